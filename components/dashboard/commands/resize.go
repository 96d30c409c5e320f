package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// ResizeWidgetInput requests a new span for a widget.
type ResizeWidgetInput struct {
	Viewer   dashboard.ViewerContext   `json:"-"`
	WidgetID string                    `json:"widget_id"`
	W        int                       `json:"w"`
	H        int                       `json:"h"`
	Stacked  bool                      `json:"stacked,omitempty"`
	Result   *dashboard.MutationResult `json:"-"`
}

type resizeService interface {
	ResizeWidget(ctx context.Context, viewer dashboard.ViewerContext, id string, w, h int, stacked bool) (dashboard.MutationResult, error)
}

// ResizeWidgetCommand wraps Service.ResizeWidget.
type ResizeWidgetCommand struct {
	service   resizeService
	telemetry Telemetry
}

// NewResizeWidgetCommand builds a command instance.
func NewResizeWidgetCommand(service resizeService, telemetry Telemetry) *ResizeWidgetCommand {
	return &ResizeWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResizeWidgetInput] = (*ResizeWidgetCommand)(nil)

// Execute resizes the widget.
func (c *ResizeWidgetCommand) Execute(ctx context.Context, msg ResizeWidgetInput) error {
	if c.service == nil {
		return errors.New("resize command requires service")
	}
	result, err := c.service.ResizeWidget(ctx, msg.Viewer, msg.WidgetID, msg.W, msg.H, msg.Stacked)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.resize", map[string]any{
		"widget_id": msg.WidgetID,
		"user_id":   msg.Viewer.UserID,
		"w":         msg.W,
		"h":         msg.H,
	})
	return err
}
