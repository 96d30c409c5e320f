package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// AddWidgetInput requests a new widget of Type at the first free position.
type AddWidgetInput struct {
	Viewer dashboard.ViewerContext   `json:"-"`
	Type   dashboard.WidgetKind      `json:"type"`
	Config *dashboard.WidgetConfig   `json:"config,omitempty"`
	Result *dashboard.MutationResult `json:"-"`
}

type addService interface {
	AddWidget(ctx context.Context, viewer dashboard.ViewerContext, kind dashboard.WidgetKind, config *dashboard.WidgetConfig) (dashboard.MutationResult, error)
}

// AddWidgetCommand wraps Service.AddWidget so transports can add widgets
// without linking directly against the service.
type AddWidgetCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddWidgetCommand creates a command instance.
func NewAddWidgetCommand(service addService, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute delegates to the dashboard service. The result is written to
// msg.Result even when the save failed.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add command requires service")
	}
	result, err := c.service.AddWidget(ctx, msg.Viewer, msg.Type, msg.Config)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	payload := map[string]any{"type": string(msg.Type), "user_id": msg.Viewer.UserID}
	if result.Widget != nil {
		payload["widget_id"] = result.Widget.ID
	}
	c.telemetry.Record(ctx, "dashboard.command.add", payload)
	return err
}
