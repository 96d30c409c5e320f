package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// RelocateWidgetInput carries a finished drag: pointer delta and the cell size
// measured by the client when the drag ended.
type RelocateWidgetInput struct {
	Viewer   dashboard.ViewerContext   `json:"-"`
	WidgetID string                    `json:"widget_id"`
	Delta    dashboard.PixelDelta      `json:"delta"`
	Cell     dashboard.CellSize        `json:"cell"`
	Stacked  bool                      `json:"stacked,omitempty"`
	Result   *dashboard.MutationResult `json:"-"`
}

type relocateService interface {
	RelocateWidget(ctx context.Context, viewer dashboard.ViewerContext, req dashboard.RelocateRequest) (dashboard.MutationResult, error)
}

// RelocateWidgetCommand wraps Service.RelocateWidget.
type RelocateWidgetCommand struct {
	service   relocateService
	telemetry Telemetry
}

// NewRelocateWidgetCommand builds a command instance.
func NewRelocateWidgetCommand(service relocateService, telemetry Telemetry) *RelocateWidgetCommand {
	return &RelocateWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RelocateWidgetInput] = (*RelocateWidgetCommand)(nil)

// Execute applies the drag. Collisions surface as dashboard.ErrCollision.
func (c *RelocateWidgetCommand) Execute(ctx context.Context, msg RelocateWidgetInput) error {
	if c.service == nil {
		return errors.New("relocate command requires service")
	}
	result, err := c.service.RelocateWidget(ctx, msg.Viewer, dashboard.RelocateRequest{
		ID:      msg.WidgetID,
		Delta:   msg.Delta,
		Cell:    msg.Cell,
		Stacked: msg.Stacked,
	})
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.relocate", map[string]any{
		"widget_id": msg.WidgetID,
		"user_id":   msg.Viewer.UserID,
		"changed":   result.Changed,
	})
	return err
}
