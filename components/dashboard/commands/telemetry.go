package commands

import (
	"context"
	"errors"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// Telemetry allows commands to emit structured events.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

func storeResult(dst *dashboard.MutationResult, result dashboard.MutationResult) {
	if dst != nil {
		*dst = result
	}
}

func isPersistenceError(err error) bool {
	var perr *dashboard.PersistenceError
	return errors.As(err, &perr)
}
