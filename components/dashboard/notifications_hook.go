package dashboard

import (
	"context"
	"errors"
	"log/slog"
)

// RefreshHooks fans a layout event out to several hooks.
type RefreshHooks []RefreshHook

// LayoutUpdated calls every hook and joins their errors.
func (h RefreshHooks) LayoutUpdated(ctx context.Context, event LayoutEvent) error {
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.LayoutUpdated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

// Notify calls every notifier and joins their errors.
func (n Notifiers) Notify(ctx context.Context, viewer ViewerContext, note Notification) error {
	var errs []error
	for _, notifier := range n {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, viewer, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopRefreshHook struct{}

func (noopRefreshHook) LayoutUpdated(context.Context, LayoutEvent) error { return nil }

// BusNotifier delivers notifications to the viewer's live connections.
type BusNotifier struct {
	Bus *InvalidationBus
}

// Notify publishes note as a dashboard-layout event for the viewer.
func (n BusNotifier) Notify(ctx context.Context, viewer ViewerContext, note Notification) error {
	if n.Bus == nil {
		return nil
	}
	return n.Bus.Invalidate(ctx, InvalidationEvent{
		UserID:       viewer.UserID,
		Tags:         []string{TagDashboardLayout},
		Reason:       "notification",
		Notification: &note,
	})
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs note at a level derived from note.Level.
func (n LogNotifier) Notify(ctx context.Context, viewer ViewerContext, note Notification) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch note.Level {
	case NotificationError:
		level = slog.LevelError
	case NotificationWarning:
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, note.Message, "user_id", viewer.UserID)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, ViewerContext, Notification) error { return nil }
