package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// InvalidateInput announces that finance resources of a user changed, e.g.
// after a transaction was created.
type InvalidateInput struct {
	UserID string   `json:"user_id"`
	Tags   []string `json:"tags"`
	Reason string   `json:"reason,omitempty"`
}

type invalidator interface {
	Invalidate(ctx context.Context, event dashboard.InvalidationEvent) error
}

// InvalidateCommand raises a targeted invalidation on the bus.
type InvalidateCommand struct {
	bus       invalidator
	telemetry Telemetry
}

// NewInvalidateCommand creates the command.
func NewInvalidateCommand(bus invalidator, telemetry Telemetry) *InvalidateCommand {
	return &InvalidateCommand{bus: bus, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[InvalidateInput] = (*InvalidateCommand)(nil)

// Execute publishes the invalidation.
func (c *InvalidateCommand) Execute(ctx context.Context, msg InvalidateInput) error {
	if c.bus == nil {
		return errors.New("invalidate command requires bus")
	}
	if len(msg.Tags) == 0 {
		return errors.New("invalidate command requires at least one tag")
	}
	if err := c.bus.Invalidate(ctx, dashboard.InvalidationEvent{
		UserID: msg.UserID,
		Tags:   msg.Tags,
		Reason: msg.Reason,
	}); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.invalidate", map[string]any{"user_id": msg.UserID, "tags": msg.Tags})
	return nil
}
