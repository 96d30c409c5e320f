package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// LayoutInput identifies the viewer, the viewport the dashboard is drawn in
// and the dashboard-level date filter.
type LayoutInput struct {
	Viewer   dashboard.ViewerContext
	Viewport dashboard.Viewport
	Filter   dashboard.DateRange
}

type layoutController interface {
	LayoutPayload(ctx context.Context, viewer dashboard.ViewerContext, viewport dashboard.Viewport, filter dashboard.DateRange) (dashboard.LayoutPayload, error)
}

// LayoutQuery executes read-only layout resolution.
type LayoutQuery struct {
	controller layoutController
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(controller layoutController) *LayoutQuery {
	return &LayoutQuery{controller: controller}
}

var _ gocommand.Querier[LayoutInput, dashboard.LayoutPayload] = (*LayoutQuery)(nil)

// Query resolves the layout payload for the viewer.
func (q *LayoutQuery) Query(ctx context.Context, input LayoutInput) (dashboard.LayoutPayload, error) {
	return q.controller.LayoutPayload(ctx, input.Viewer, input.Viewport, input.Filter)
}
