package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// MoveWidgetInput places a widget at an absolute cell. Used by clients that
// compute the target cell themselves, such as keyboard moves and the CLI.
type MoveWidgetInput struct {
	Viewer   dashboard.ViewerContext   `json:"-"`
	WidgetID string                    `json:"widget_id"`
	X        int                       `json:"x"`
	Y        int                       `json:"y"`
	Result   *dashboard.MutationResult `json:"-"`
}

type moveService interface {
	MoveWidget(ctx context.Context, viewer dashboard.ViewerContext, id string, x, y int) (dashboard.MutationResult, error)
}

// MoveWidgetCommand wraps Service.MoveWidget.
type MoveWidgetCommand struct {
	service   moveService
	telemetry Telemetry
}

// NewMoveWidgetCommand builds a command instance.
func NewMoveWidgetCommand(service moveService, telemetry Telemetry) *MoveWidgetCommand {
	return &MoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MoveWidgetInput] = (*MoveWidgetCommand)(nil)

// Execute moves the widget.
func (c *MoveWidgetCommand) Execute(ctx context.Context, msg MoveWidgetInput) error {
	if c.service == nil {
		return errors.New("move command requires service")
	}
	result, err := c.service.MoveWidget(ctx, msg.Viewer, msg.WidgetID, msg.X, msg.Y)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.move", map[string]any{
		"widget_id": msg.WidgetID,
		"user_id":   msg.Viewer.UserID,
		"x":         msg.X,
		"y":         msg.Y,
	})
	return err
}
