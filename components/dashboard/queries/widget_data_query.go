package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// WidgetDataInput requests the content of one widget.
type WidgetDataInput struct {
	Viewer   dashboard.ViewerContext
	WidgetID string
	Filter   dashboard.DateRange
}

type widgetDataService interface {
	WidgetData(ctx context.Context, viewer dashboard.ViewerContext, id string, filter dashboard.DateRange) (dashboard.WidgetData, error)
}

// WidgetDataQuery fetches content for a single widget, e.g. after an
// invalidation event named its resources.
type WidgetDataQuery struct {
	service widgetDataService
}

// NewWidgetDataQuery builds the query.
func NewWidgetDataQuery(service widgetDataService) *WidgetDataQuery {
	return &WidgetDataQuery{service: service}
}

var _ gocommand.Querier[WidgetDataInput, dashboard.WidgetData] = (*WidgetDataQuery)(nil)

// Query resolves widget content.
func (q *WidgetDataQuery) Query(ctx context.Context, input WidgetDataInput) (dashboard.WidgetData, error) {
	return q.service.WidgetData(ctx, input.Viewer, input.WidgetID, input.Filter)
}
