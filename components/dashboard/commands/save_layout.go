package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// SaveLayoutInput replaces the whole widget list.
type SaveLayoutInput struct {
	Viewer  dashboard.ViewerContext   `json:"-"`
	Widgets []dashboard.Widget        `json:"widgets"`
	Result  *dashboard.MutationResult `json:"-"`
}

type saveService interface {
	ReplaceLayout(ctx context.Context, viewer dashboard.ViewerContext, widgets []dashboard.Widget) (dashboard.MutationResult, error)
}

// SaveLayoutCommand wraps Service.ReplaceLayout.
type SaveLayoutCommand struct {
	service   saveService
	telemetry Telemetry
}

// NewSaveLayoutCommand builds a command instance.
func NewSaveLayoutCommand(service saveService, telemetry Telemetry) *SaveLayoutCommand {
	return &SaveLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutInput] = (*SaveLayoutCommand)(nil)

// Execute validates and stores the layout.
func (c *SaveLayoutCommand) Execute(ctx context.Context, msg SaveLayoutInput) error {
	if c.service == nil {
		return errors.New("save layout command requires service")
	}
	result, err := c.service.ReplaceLayout(ctx, msg.Viewer, msg.Widgets)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.save", map[string]any{"user_id": msg.Viewer.UserID, "widgets": len(msg.Widgets)})
	return err
}
