package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) Notify(context.Context, ViewerContext, Notification) error {
	n.calls++
	return n.err
}

func TestNotifiersFanOutAndJoinErrors(t *testing.T) {
	boom := errors.New("boom")
	first := &countingNotifier{}
	second := &countingNotifier{err: boom}
	notifiers := Notifiers{first, nil, second}

	err := notifiers.Notify(context.Background(), ViewerContext{UserID: "u1"}, Notification{Level: NotificationError, Message: "Error saving layout"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected every notifier to be called once, got %d and %d", first.calls, second.calls)
	}
}

func TestBusNotifierPublishesLayoutEvent(t *testing.T) {
	bus := NewInvalidationBus()
	received := make(chan InvalidationEvent, 1)
	bus.Listen(func(event InvalidationEvent) { received <- event })

	note := Notification{Level: NotificationWarning, Message: "retrying"}
	if err := (BusNotifier{Bus: bus}).Notify(context.Background(), ViewerContext{UserID: "u1"}, note); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case event := <-received:
		if event.UserID != "u1" || !event.HasTag(TagDashboardLayout) {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Notification == nil || event.Notification.Message != "retrying" {
			t.Fatalf("expected notification payload, got %+v", event.Notification)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestNilBusNotifierIsNoop(t *testing.T) {
	if err := (BusNotifier{}).Notify(context.Background(), ViewerContext{UserID: "u1"}, Notification{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
