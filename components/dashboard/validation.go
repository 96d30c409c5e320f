package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DateLayout is the wire format of WidgetConfig dates.
const DateLayout = "2006-01-02"

// ConfigValidator validates widget configuration payloads for a kind.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config *WidgetConfig) error
}

// JSONSchemaValidator compiles widget schemas and validates configurations
// against them, then checks the date range is well formed.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[WidgetKind]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[WidgetKind]*jsonschema.Schema),
	}
}

// Validate ensures the configuration satisfies the widget schema. Failures wrap ErrInvalidConfig.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config *WidgetConfig) error {
	if len(def.Schema) > 0 {
		schema, err := v.schemaFor(def)
		if err != nil {
			return err
		}
		payload := map[string]any{}
		if config != nil {
			data, err := json.Marshal(config)
			if err != nil {
				return fmt.Errorf("dashboard: marshal config for %s: %w", def.Kind, err)
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("dashboard: normalize config for %s: %w", def.Kind, err)
			}
		}
		if err := schema.Validate(payload); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, def.Kind, err)
		}
	}
	if config == nil {
		return nil
	}
	if _, err := ConfigDateRange(config); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, def.Kind, err)
	}
	return nil
}

// ConfigDateRange parses the configured dates. Either end may be empty.
func ConfigDateRange(config *WidgetConfig) (DateRange, error) {
	if config == nil {
		return DateRange{}, nil
	}
	var start, end time.Time
	var err error
	if config.StartDate != "" {
		if start, err = time.Parse(DateLayout, config.StartDate); err != nil {
			return DateRange{}, fmt.Errorf("startDate %q is not a YYYY-MM-DD date", config.StartDate)
		}
	}
	if config.EndDate != "" {
		if end, err = time.Parse(DateLayout, config.EndDate); err != nil {
			return DateRange{}, fmt.Errorf("endDate %q is not a YYYY-MM-DD date", config.EndDate)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return DateRange{}, fmt.Errorf("startDate %s is after endDate %s", config.StartDate, config.EndDate)
	}
	return DateRange{StartDate: config.StartDate, EndDate: config.EndDate}, nil
}

func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Kind]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Kind, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(def.Kind) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Kind, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Kind, err)
	}
	v.mu.Lock()
	v.compiled[def.Kind] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(WidgetDefinition, *WidgetConfig) error { return nil }
