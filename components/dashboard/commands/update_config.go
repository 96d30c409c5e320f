package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// UpdateWidgetConfigInput replaces a widget's date range. A nil Config clears it.
type UpdateWidgetConfigInput struct {
	Viewer   dashboard.ViewerContext   `json:"-"`
	WidgetID string                    `json:"widget_id"`
	Config   *dashboard.WidgetConfig   `json:"config"`
	Result   *dashboard.MutationResult `json:"-"`
}

type configService interface {
	UpdateWidgetConfig(ctx context.Context, viewer dashboard.ViewerContext, id string, config *dashboard.WidgetConfig) (dashboard.MutationResult, error)
}

// UpdateWidgetConfigCommand wraps Service.UpdateWidgetConfig.
type UpdateWidgetConfigCommand struct {
	service   configService
	telemetry Telemetry
}

// NewUpdateWidgetConfigCommand builds a command instance.
func NewUpdateWidgetConfigCommand(service configService, telemetry Telemetry) *UpdateWidgetConfigCommand {
	return &UpdateWidgetConfigCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateWidgetConfigInput] = (*UpdateWidgetConfigCommand)(nil)

// Execute validates and stores the configuration.
func (c *UpdateWidgetConfigCommand) Execute(ctx context.Context, msg UpdateWidgetConfigInput) error {
	if c.service == nil {
		return errors.New("update config command requires service")
	}
	result, err := c.service.UpdateWidgetConfig(ctx, msg.Viewer, msg.WidgetID, msg.Config)
	storeResult(msg.Result, result)
	if err != nil && !isPersistenceError(err) {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.config", map[string]any{"widget_id": msg.WidgetID, "user_id": msg.Viewer.UserID})
	return err
}
