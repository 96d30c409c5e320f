package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultFetchConcurrency = 4

// WidgetView is a widget as rendered for a viewport, with its content.
type WidgetView struct {
	Widget
	Title string     `json:"title"`
	Data  WidgetData `json:"data,omitempty"`
	Error string     `json:"error,omitempty"`
}

// LayoutPayload is everything a client needs to draw the dashboard.
type LayoutPayload struct {
	ID        string         `json:"id,omitempty"`
	UserID    string         `json:"user_id"`
	Widgets   []WidgetView   `json:"widgets"`
	Stacked   bool           `json:"stacked"`
	Editable  bool           `json:"editable"`
	Grid      Grid           `json:"grid"`
	Catalog   []CatalogEntry `json:"catalog"`
	Filter    DateRange      `json:"filter"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// Controller assembles layout payloads for transports.
type Controller struct {
	service     *Service
	concurrency int
}

// NewController wires the service into a controller.
func NewController(service *Service) *Controller {
	return &Controller{service: service, concurrency: defaultFetchConcurrency}
}

// LayoutPayload resolves the viewer's layout, applies the responsive adapter
// for viewport, and fetches widget content concurrently. A provider failure
// is reported on its widget and does not fail the payload.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext, viewport Viewport, filter DateRange) (LayoutPayload, error) {
	layout, err := c.service.Layout(ctx, viewer)
	if err != nil {
		return LayoutPayload{}, err
	}
	stacked := viewport.Narrow()
	rendered := Stack(layout.Widgets, stacked)

	views := make([]WidgetView, len(rendered))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, widget := range rendered {
		views[i] = WidgetView{Widget: widget, Title: c.title(widget, viewer.Locale)}
		stored := layout.Widgets[i]
		g.Go(func() error {
			data, err := c.service.fetchWidgetData(gctx, viewer, stored, filter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				views[i].Error = err.Error()
				c.service.recordTelemetry(gctx, "dashboard.widget.provider_error", map[string]any{
					"user_id":   viewer.UserID,
					"widget_id": stored.ID,
					"type":      string(stored.Type),
					"error":     err.Error(),
				})
				return nil
			}
			views[i].Data = data
			return nil
		})
	}
	_ = g.Wait()

	payload := LayoutPayload{
		ID:       layout.ID,
		UserID:   viewer.UserID,
		Widgets:  views,
		Stacked:  stacked,
		Editable: !stacked,
		Grid:     c.service.Grid(),
		Catalog:  c.service.Catalog(viewer.Locale),
		Filter:   filter,
	}
	if layout.UpdatedAt != nil {
		payload.UpdatedAt = layout.UpdatedAt.Format(time.RFC3339)
	}
	return payload, nil
}

func (c *Controller) title(widget Widget, locale string) string {
	if def, ok := c.service.Registry().Definition(widget.Type); ok {
		return def.NameForLocale(locale)
	}
	return string(widget.Type)
}
