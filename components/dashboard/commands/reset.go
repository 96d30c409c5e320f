package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// ResetLayoutInput restores the seed layout.
type ResetLayoutInput struct {
	Viewer dashboard.ViewerContext   `json:"-"`
	Result *dashboard.MutationResult `json:"-"`
}

type resetService interface {
	ResetLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.MutationResult, error)
}

// ResetLayoutCommand wraps Service.ResetLayout.
type ResetLayoutCommand struct {
	service   resetService
	telemetry Telemetry
}

// NewResetLayoutCommand builds a command instance.
func NewResetLayoutCommand(service resetService, telemetry Telemetry) *ResetLayoutCommand {
	return &ResetLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetLayoutInput] = (*ResetLayoutCommand)(nil)

// Execute reinstalls the seed layout.
func (c *ResetLayoutCommand) Execute(ctx context.Context, msg ResetLayoutInput) error {
	if c.service == nil {
		return errors.New("reset command requires service")
	}
	result, err := c.service.ResetLayout(ctx, msg.Viewer)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.reset", map[string]any{"user_id": msg.Viewer.UserID})
	return err
}
