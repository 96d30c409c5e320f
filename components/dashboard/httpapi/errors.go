package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/pkg/logger"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Layout  *dashboard.Layout `json:"layout,omitempty"`
}

// WriteError writes an error body. layout is attached when the in-memory
// layout changed even though the request failed.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, layout *dashboard.Layout) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message, Layout: layout}); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

// HandleError maps dashboard errors to HTTP status codes.
func HandleError(w http.ResponseWriter, r *http.Request, err error, result *dashboard.MutationResult) {
	log := logger.FromContext(r.Context())

	var perr *dashboard.PersistenceError
	var lerr *dashboard.LoadError
	switch {
	case errors.As(err, &perr):
		log.Error("layout save failed", "error", perr.Err)
		var layout *dashboard.Layout
		if result != nil {
			layout = &result.Layout
		}
		WriteError(w, r, http.StatusBadGateway, "persistence_failure", "Error saving layout", layout)

	case errors.As(err, &lerr):
		log.Error("layout load failed", "error", lerr.Err)
		WriteError(w, r, http.StatusServiceUnavailable, "load_failure", "Layout temporarily unavailable", nil)

	case errors.Is(err, dashboard.ErrMissingViewer):
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", err.Error(), nil)

	case errors.Is(err, dashboard.ErrGridFull):
		log.Warn("grid full", "error", err)
		WriteError(w, r, http.StatusConflict, "grid_full", err.Error(), nil)

	case errors.Is(err, dashboard.ErrCollision):
		WriteError(w, r, http.StatusConflict, "collision", err.Error(), nil)

	case errors.Is(err, dashboard.ErrWidgetNotFound), errors.Is(err, dashboard.ErrNoProvider):
		log.Warn("resource not found", "error", err)
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error(), nil)

	case errors.Is(err, dashboard.ErrUnknownWidgetKind),
		errors.Is(err, dashboard.ErrInvalidConfig),
		errors.Is(err, dashboard.ErrInvalidLayout),
		errors.Is(err, dashboard.ErrStackedMode),
		errors.Is(err, dashboard.ErrInvalidCellSize):
		log.Warn("validation failed", "error", err)
		WriteError(w, r, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	default:
		log.Log(r.Context(), slog.LevelError, "unexpected error", "error", err, "type", fmt.Sprintf("%T", err))
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred", nil)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}
