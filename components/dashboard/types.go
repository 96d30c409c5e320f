package dashboard

import (
	"context"
	"time"
)

// LayoutStore is the persistence bridge for per-user layouts. The boolean
// returned by LoadLayout separates "no layout record" from "a record whose
// widget list is empty".
type LayoutStore interface {
	LoadLayout(ctx context.Context, viewer ViewerContext) (Layout, bool, error)
	SaveLayout(ctx context.Context, viewer ViewerContext, widgets []Widget) error
}

// ProviderRegistry stores the widget catalog and the content provider per kind.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(kind WidgetKind, provider Provider) error
	Definition(kind WidgetKind) (WidgetDefinition, bool)
	Provider(kind WidgetKind) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports (REST/WebSocket/AMQP) about layout changes.
type RefreshHook interface {
	LayoutUpdated(ctx context.Context, event LayoutEvent) error
}

// Notifier surfaces user-visible outcomes that are not request errors, such as
// a save that failed after the in-memory layout was already updated.
type Notifier interface {
	Notify(ctx context.Context, viewer ViewerContext, note Notification) error
}

// Widget is a dashboard tile of a given kind occupying a rectangle of cells.
type Widget struct {
	ID       string         `json:"id"`
	Type     WidgetKind     `json:"type"`
	Position WidgetPosition `json:"position"`
	Config   *WidgetConfig  `json:"config,omitempty"`
}

// WidgetConfig holds the optional per-widget date range (YYYY-MM-DD).
type WidgetConfig struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Layout is the persisted unit: one widget list per user.
type Layout struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Widgets   []Widget   `json:"widgets"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ViewerContext captures the active user/locale information.
type ViewerContext struct {
	UserID string `json:"user_id"`
	Locale string `json:"locale,omitempty"`
}

// LayoutEvent describes a committed layout change.
type LayoutEvent struct {
	UserID   string   `json:"user_id"`
	Reason   string   `json:"reason"`
	WidgetID string   `json:"widget_id,omitempty"`
	Tags     []string `json:"tags"`
	Widgets  []Widget `json:"widgets,omitempty"`
}

// Notification levels.
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification is a user-facing message produced by the service.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// DateRange is an inclusive day range used by widget content providers.
type DateRange struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Clone returns a deep copy of the widget.
func (w Widget) Clone() Widget {
	if w.Config != nil {
		cfg := *w.Config
		w.Config = &cfg
	}
	return w
}

func cloneWidgets(widgets []Widget) []Widget {
	if widgets == nil {
		return nil
	}
	out := make([]Widget, len(widgets))
	for i, w := range widgets {
		out[i] = w.Clone()
	}
	return out
}

func indexOfWidget(widgets []Widget, id string) int {
	for i, w := range widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}
