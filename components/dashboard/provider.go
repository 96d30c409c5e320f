package dashboard

import "context"

// Provider computes the content of one widget.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Widget     Widget
	Definition WidgetDefinition
	Viewer     ViewerContext
	// Range is the effective date range after applying the dashboard filter,
	// the widget configuration and the trailing default, in that order.
	Range      DateRange
	Translator TranslationService
}

// WidgetData is an opaque JSON payload rendered by the client.
type WidgetData map[string]any
