package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/commands"
	"github.com/goliatone/go-gridboard/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Add        gocommand.Commander[commands.AddWidgetInput]
	Remove     gocommand.Commander[commands.RemoveWidgetInput]
	Relocate   gocommand.Commander[commands.RelocateWidgetInput]
	Move       gocommand.Commander[commands.MoveWidgetInput]
	Resize     gocommand.Commander[commands.ResizeWidgetInput]
	Config     gocommand.Commander[commands.UpdateWidgetConfigInput]
	Save       gocommand.Commander[commands.SaveLayoutInput]
	Reset      gocommand.Commander[commands.ResetLayoutInput]
	Layout     gocommand.Querier[queries.LayoutInput, dashboard.LayoutPayload]
	Catalog    gocommand.Querier[queries.CatalogInput, []dashboard.CatalogEntry]
	WidgetData gocommand.Querier[queries.WidgetDataInput, dashboard.WidgetData]
	Events     http.Handler
	Socket     http.Handler
}

// New wires handlers to a service, its controller and the invalidation bus.
func New(service *dashboard.Service, controller *dashboard.Controller, bus *dashboard.InvalidationBus, telemetry commands.Telemetry) *Handlers {
	h := &Handlers{
		Add:        commands.NewAddWidgetCommand(service, telemetry),
		Remove:     commands.NewRemoveWidgetCommand(service, telemetry),
		Relocate:   commands.NewRelocateWidgetCommand(service, telemetry),
		Move:       commands.NewMoveWidgetCommand(service, telemetry),
		Resize:     commands.NewResizeWidgetCommand(service, telemetry),
		Config:     commands.NewUpdateWidgetConfigCommand(service, telemetry),
		Save:       commands.NewSaveLayoutCommand(service, telemetry),
		Reset:      commands.NewResetLayoutCommand(service, telemetry),
		Layout:     queries.NewLayoutQuery(controller),
		Catalog:    queries.NewCatalogQuery(service),
		WidgetData: queries.NewWidgetDataQuery(service),
	}
	if bus != nil {
		h.Events = http.HandlerFunc(bus.ServeSSE)
		h.Socket = http.HandlerFunc(bus.ServeWebSocket)
	}
	return h
}

// Routes returns the dashboard route table. Authentication middleware is
// expected to run before it and store the viewer with dashboard.ContextWithViewer.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/widget-types", h.HandleCatalog)
	r.Route("/dashboard-layout", func(r chi.Router) {
		r.Get("/", h.HandleGetLayout)
		r.Put("/", h.HandleSaveLayout)
		r.Post("/reset", h.HandleResetLayout)
		r.Post("/widgets", h.HandleAddWidget)
		r.Route("/widgets/{id}", func(r chi.Router) {
			r.Delete("/", h.HandleRemoveWidget)
			r.Get("/data", h.HandleWidgetData)
			r.Post("/relocate", h.HandleRelocateWidget)
			r.Post("/move", h.HandleMoveWidget)
			r.Post("/resize", h.HandleResizeWidget)
			r.Put("/config", h.HandleUpdateConfig)
		})
		if h.Events != nil {
			r.Get("/events", h.Events.ServeHTTP)
		}
		if h.Socket != nil {
			r.Get("/ws", h.Socket.ServeHTTP)
		}
	})
	return r
}

func (h *Handlers) HandleGetLayout(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("width"))
	payload, err := h.Layout.Query(r.Context(), queries.LayoutInput{
		Viewer:   viewer,
		Viewport: dashboard.Viewport{WidthPx: width},
		Filter:   dateRangeFromQuery(r),
	})
	if err != nil {
		HandleError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, payload)
}

func (h *Handlers) HandleSaveLayout(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var payload commands.SaveLayoutInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var result dashboard.MutationResult
	payload.Viewer, payload.Result = viewer, &result
	h.respondMutation(w, r, h.Save.Execute(r.Context(), payload), &result, http.StatusOK)
}

func (h *Handlers) HandleResetLayout(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var result dashboard.MutationResult
	err := h.Reset.Execute(r.Context(), commands.ResetLayoutInput{Viewer: viewer, Result: &result})
	h.respondMutation(w, r, err, &result, http.StatusOK)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var payload commands.AddWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var result dashboard.MutationResult
	payload.Viewer, payload.Result = viewer, &result
	h.respondMutation(w, r, h.Add.Execute(r.Context(), payload), &result, http.StatusCreated)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var result dashboard.MutationResult
	input := commands.RemoveWidgetInput{Viewer: viewer, WidgetID: chi.URLParam(r, "id"), Result: &result}
	h.respondMutation(w, r, h.Remove.Execute(r.Context(), input), &result, http.StatusOK)
}

func (h *Handlers) HandleRelocateWidget(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var payload commands.RelocateWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var result dashboard.MutationResult
	payload.Viewer, payload.WidgetID, payload.Result = viewer, chi.URLParam(r, "id"), &result
	h.respondMutation(w, r, h.Relocate.Execute(r.Context(), payload), &result, http.StatusOK)
}

func (h *Handlers) HandleMoveWidget(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var payload commands.MoveWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var result dashboard.MutationResult
	payload.Viewer, payload.WidgetID, payload.Result = viewer, chi.URLParam(r, "id"), &result
	h.respondMutation(w, r, h.Move.Execute(r.Context(), payload), &result, http.StatusOK)
}

func (h *Handlers) HandleResizeWidget(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var payload commands.ResizeWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var result dashboard.MutationResult
	payload.Viewer, payload.WidgetID, payload.Result = viewer, chi.URLParam(r, "id"), &result
	h.respondMutation(w, r, h.Resize.Execute(r.Context(), payload), &result, http.StatusOK)
}

func (h *Handlers) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	var payload commands.UpdateWidgetConfigInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var result dashboard.MutationResult
	payload.Viewer, payload.WidgetID, payload.Result = viewer, chi.URLParam(r, "id"), &result
	h.respondMutation(w, r, h.Config.Execute(r.Context(), payload), &result, http.StatusOK)
}

func (h *Handlers) HandleWidgetData(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}
	data, err := h.WidgetData.Query(r.Context(), queries.WidgetDataInput{
		Viewer:   viewer,
		WidgetID: chi.URLParam(r, "id"),
		Filter:   dateRangeFromQuery(r),
	})
	if err != nil {
		HandleError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, data)
}

func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		if viewer, ok := dashboard.ViewerFromContext(r.Context()); ok {
			locale = viewer.Locale
		}
	}
	entries, err := h.Catalog.Query(r.Context(), queries.CatalogInput{Locale: locale})
	if err != nil {
		HandleError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// respondMutation writes the mutation result. A failed save still carries the
// updated layout so the client can keep showing it.
func (h *Handlers) respondMutation(w http.ResponseWriter, r *http.Request, err error, result *dashboard.MutationResult, status int) {
	if err != nil {
		HandleError(w, r, err, result)
		return
	}
	writeJSON(w, r, status, result)
}

func requireViewer(w http.ResponseWriter, r *http.Request) (dashboard.ViewerContext, bool) {
	viewer, ok := dashboard.ViewerFromContext(r.Context())
	if !ok {
		HandleError(w, r, dashboard.ErrMissingViewer, nil)
		return dashboard.ViewerContext{}, false
	}
	return viewer, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_input", "malformed JSON body", nil)
		return false
	}
	return true
}

func dateRangeFromQuery(r *http.Request) dashboard.DateRange {
	q := r.URL.Query()
	return dashboard.DateRange{StartDate: q.Get("startDate"), EndDate: q.Get("endDate")}
}
