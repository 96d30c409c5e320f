package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	events []InvalidationEvent
}

func (f *recordingForwarder) Forward(_ context.Context, event InvalidationEvent) error {
	f.events = append(f.events, event)
	return nil
}

func receive(t *testing.T, ch <-chan InvalidationEvent) InvalidationEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatalf("expected an event")
	}
	return InvalidationEvent{}
}

func assertNoEvent(t *testing.T, ch <-chan InvalidationEvent) {
	t.Helper()
	select {
	case event := <-ch:
		t.Fatalf("unexpected event %+v", event)
	default:
	}
}

func TestInvalidationBusTargetsTags(t *testing.T) {
	bus := NewInvalidationBus()
	wallets, cancelWallets := bus.Subscribe("u1", TagWallets)
	defer cancelWallets()
	expenses, cancelExpenses := bus.Subscribe("u1", TagExpenses, TagCategories)
	defer cancelExpenses()
	everything, cancelAll := bus.Subscribe("")
	defer cancelAll()

	require.NoError(t, bus.Invalidate(context.Background(), InvalidationEvent{UserID: "u1", Tags: []string{TagCategories}}))

	event := receive(t, expenses)
	assert.True(t, event.HasTag(TagCategories))
	assert.False(t, event.At.IsZero())
	receive(t, everything)
	assertNoEvent(t, wallets)
}

func TestInvalidationBusScopesByUser(t *testing.T) {
	bus := NewInvalidationBus()
	mine, cancel := bus.Subscribe("u1", TagWallets)
	defer cancel()

	require.NoError(t, bus.Invalidate(context.Background(), InvalidationEvent{UserID: "u2", Tags: []string{TagWallets}}))
	assertNoEvent(t, mine)

	require.NoError(t, bus.Invalidate(context.Background(), InvalidationEvent{Tags: []string{TagWallets}}))
	receive(t, mine)
}

func TestInvalidationBusLayoutUpdatedAndForwarding(t *testing.T) {
	bus := NewInvalidationBus()
	forwarder := &recordingForwarder{}
	bus.ForwardTo(forwarder)
	ch, cancel := bus.Subscribe("u1", TagDashboardLayout)
	defer cancel()

	err := bus.LayoutUpdated(context.Background(), LayoutEvent{UserID: "u1", Reason: "add", Widgets: SeedWidgets()})
	require.NoError(t, err)

	event := receive(t, ch)
	assert.Equal(t, "add", event.Reason)
	assert.Equal(t, []string{TagDashboardLayout}, event.Tags)
	require.Len(t, forwarder.events, 1)

	bus.Deliver(InvalidationEvent{UserID: "u1", Tags: []string{TagDashboardLayout}})
	receive(t, ch)
	assert.Len(t, forwarder.events, 1, "delivered remote events are not forwarded again")
}

func TestInvalidationBusCancelClosesChannel(t *testing.T) {
	bus := NewInvalidationBus()
	ch, cancel := bus.Subscribe("u1")
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestInvalidationBusServeSSE(t *testing.T) {
	bus := NewInvalidationBus()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(ContextWithViewer(r.Context(), ViewerContext{UserID: "u1"}))
		bus.ServeSSE(w, r)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "?tags=wallets")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	go func() {
		for i := 0; i < 20; i++ {
			_ = bus.Invalidate(context.Background(), InvalidationEvent{UserID: "u1", Tags: []string{TagWallets}, Reason: "wallet-updated"})
			time.Sleep(10 * time.Millisecond)
		}
	}()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))
	var event InvalidationEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
	assert.Equal(t, "wallet-updated", event.Reason)
}

func TestInvalidationBusServeWebSocket(t *testing.T) {
	bus := NewInvalidationBus()
	server := httptest.NewServer(http.HandlerFunc(bus.ServeWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?tags=dashboard-layout"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		for i := 0; i < 20; i++ {
			_ = bus.LayoutUpdated(context.Background(), LayoutEvent{UserID: "u1", Reason: "remove"})
			time.Sleep(10 * time.Millisecond)
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event InvalidationEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "remove", event.Reason)
}

func TestInvalidationBusWebSocketOrigins(t *testing.T) {
	bus := NewInvalidationBus()
	bus.AllowOrigins("https://admin.example.com/")
	server := httptest.NewServer(http.HandlerFunc(bus.ServeWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	dial := func(origin string) (*http.Response, error) {
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		if conn != nil {
			conn.Close()
		}
		return resp, err
	}

	_, err := dial("")
	require.NoError(t, err)
	_, err = dial(server.URL)
	require.NoError(t, err)
	_, err = dial("https://admin.example.com")
	require.NoError(t, err)

	resp, err := dial("https://evil.example.net")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
