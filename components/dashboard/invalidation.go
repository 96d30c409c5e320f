package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Invalidation tags. Each names a resource whose change stales cached content.
const (
	TagWallets         = "wallets"
	TagCategories      = "categories"
	TagTransactions    = "transactions"
	TagIncomes         = "incomes"
	TagExpenses        = "expenses"
	TagDashboardLayout = "dashboard-layout"
)

// KnownTags lists every invalidation tag in use.
func KnownTags() []string {
	return []string{TagWallets, TagCategories, TagTransactions, TagIncomes, TagExpenses, TagDashboardLayout}
}

// InvalidationEvent announces that the tagged resources of a user changed.
// An empty UserID targets every user.
type InvalidationEvent struct {
	UserID   string    `json:"user_id,omitempty"`
	Tags     []string  `json:"tags"`
	Reason   string    `json:"reason,omitempty"`
	WidgetID string    `json:"widget_id,omitempty"`
	Widgets  []Widget  `json:"widgets,omitempty"`
	Origin   string    `json:"origin,omitempty"`
	At       time.Time `json:"at"`

	Notification *Notification `json:"notification,omitempty"`
}

// HasTag reports whether the event carries tag.
func (e InvalidationEvent) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EventForwarder relays events to other instances, e.g. over a message broker.
type EventForwarder interface {
	Forward(ctx context.Context, event InvalidationEvent) error
}

type busSubscription struct {
	userID string
	tags   map[string]struct{}
	ch     chan InvalidationEvent
}

func (s busSubscription) matches(event InvalidationEvent) bool {
	if s.userID != "" && event.UserID != "" && s.userID != event.UserID {
		return false
	}
	if len(s.tags) == 0 {
		return true
	}
	for _, tag := range event.Tags {
		if _, ok := s.tags[tag]; ok {
			return true
		}
	}
	return false
}

// InvalidationBus fans out invalidation events to subscribers that asked for
// at least one of the event tags. It also implements RefreshHook so committed
// layout changes reach the same subscribers.
type InvalidationBus struct {
	mu        sync.RWMutex
	subs      map[int]busSubscription
	listeners []func(InvalidationEvent)
	next      int
	forwarder EventForwarder
	origins   []string
	now       func() time.Time
}

// NewInvalidationBus creates an empty bus.
func NewInvalidationBus() *InvalidationBus {
	return &InvalidationBus{
		subs: make(map[int]busSubscription),
		now:  time.Now,
	}
}

// AllowOrigins adds browser origins (scheme://host[:port] or bare host)
// allowed to open WebSocket subscriptions besides the serving host itself.
func (b *InvalidationBus) AllowOrigins(origins ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			b.origins = append(b.origins, strings.TrimSuffix(o, "/"))
		}
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins and the configured allow list.
func (b *InvalidationBus) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, allowed := range b.origins {
		if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	return false
}

// ForwardTo relays every locally raised event to f.
func (b *InvalidationBus) ForwardTo(f EventForwarder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarder = f
}

// Listen registers a synchronous callback invoked for every delivered event.
func (b *InvalidationBus) Listen(fn func(InvalidationEvent)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Invalidate delivers the event locally and forwards it when a forwarder is set.
func (b *InvalidationBus) Invalidate(ctx context.Context, event InvalidationEvent) error {
	if event.At.IsZero() {
		event.At = b.now().UTC()
	}
	b.Deliver(event)
	b.mu.RLock()
	forwarder := b.forwarder
	b.mu.RUnlock()
	if forwarder == nil {
		return nil
	}
	return forwarder.Forward(ctx, event)
}

// Deliver notifies local listeners and matching subscribers without forwarding.
// Subscribers that are not keeping up drop the event.
func (b *InvalidationBus) Deliver(event InvalidationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.listeners {
		fn(event)
	}
	for _, sub := range b.subs {
		if !sub.matches(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// LayoutUpdated satisfies RefreshHook.
func (b *InvalidationBus) LayoutUpdated(ctx context.Context, event LayoutEvent) error {
	tags := event.Tags
	if len(tags) == 0 {
		tags = []string{TagDashboardLayout}
	}
	return b.Invalidate(ctx, InvalidationEvent{
		UserID:   event.UserID,
		Tags:     tags,
		Reason:   event.Reason,
		WidgetID: event.WidgetID,
		Widgets:  cloneWidgets(event.Widgets),
	})
}

// Subscribe returns a channel of events for userID matching any of tags and a
// cancel func. Empty userID or tags subscribe to everything on that axis.
func (b *InvalidationBus) Subscribe(userID string, tags ...string) (<-chan InvalidationEvent, func()) {
	sub := busSubscription{
		userID: userID,
		tags:   make(map[string]struct{}, len(tags)),
		ch:     make(chan InvalidationEvent, 8),
	}
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			sub.tags[tag] = struct{}{}
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = sub
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// subscribeRequest subscribes the viewer on r to the tags listed in the
// comma separated "tags" query parameter.
func (b *InvalidationBus) subscribeRequest(r *http.Request) (<-chan InvalidationEvent, func()) {
	viewer, _ := ViewerFromContext(r.Context())
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}
	return b.Subscribe(viewer.UserID, tags...)
}

// ServeWebSocket upgrades the request and streams matching events as JSON.
func (b *InvalidationBus) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: b.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := b.subscribeRequest(r)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams matching events as Server-Sent Events.
func (b *InvalidationBus) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := b.subscribeRequest(r)
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
