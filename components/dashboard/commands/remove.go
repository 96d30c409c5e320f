package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// RemoveWidgetInput identifies the widget to remove.
type RemoveWidgetInput struct {
	Viewer   dashboard.ViewerContext   `json:"-"`
	WidgetID string                    `json:"widget_id"`
	Result   *dashboard.MutationResult `json:"-"`
}

type removeService interface {
	RemoveWidget(ctx context.Context, viewer dashboard.ViewerContext, id string) (dashboard.MutationResult, error)
}

// RemoveWidgetCommand wraps Service.RemoveWidget.
type RemoveWidgetCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemoveWidgetCommand builds a command instance.
func NewRemoveWidgetCommand(service removeService, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveWidgetInput] = (*RemoveWidgetCommand)(nil)

// Execute removes the widget.
func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg RemoveWidgetInput) error {
	if c.service == nil {
		return errors.New("remove command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("remove command requires widget id")
	}
	result, err := c.service.RemoveWidget(ctx, msg.Viewer, msg.WidgetID)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.remove", map[string]any{"widget_id": msg.WidgetID, "user_id": msg.Viewer.UserID})
	return err
}
