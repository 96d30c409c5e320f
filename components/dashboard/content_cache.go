package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// ContentCache is an in-memory TTL cache of widget content. Entries carry the
// resource tags they were computed from so an invalidation drops only the
// entries it stales.
type ContentCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cachedContent
	// nextSweep is when set next drops expired entries nobody read back.
	nextSweep time.Time
}

type cachedContent struct {
	data    WidgetData
	userID  string
	tags    []string
	expires time.Time
}

// NewContentCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewContentCache(ttl time.Duration) *ContentCache {
	return &ContentCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedContent),
	}
}

// Attach drops matching entries whenever bus delivers an event.
func (c *ContentCache) Attach(bus *InvalidationBus) {
	if c == nil || bus == nil {
		return
	}
	bus.Listen(func(event InvalidationEvent) {
		c.Invalidate(event.UserID, event.Tags...)
	})
}

// GetOrLoad returns a cached entry or loads and stores a new one.
func (c *ContentCache) GetOrLoad(key, userID string, tags []string, load func() (WidgetData, error)) (WidgetData, error) {
	if data, ok := c.get(key); ok {
		return data, nil
	}
	data, err := load()
	if err != nil {
		return nil, err
	}
	c.set(key, userID, tags, data)
	return data, nil
}

// Invalidate drops entries of userID carrying any of tags. An empty userID
// matches every user. It returns the number of dropped entries.
func (c *ContentCache) Invalidate(userID string, tags ...string) int {
	if c == nil || len(tags) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		want[tag] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key, entry := range c.entries {
		if userID != "" && entry.userID != userID {
			continue
		}
		for _, tag := range entry.tags {
			if _, ok := want[tag]; ok {
				delete(c.entries, key)
				dropped++
				break
			}
		}
	}
	return dropped
}

// Len returns the number of live entries.
func (c *ContentCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ContentCache) get(key string) (WidgetData, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return nil, false
	}
	return entry.data, true
}

func (c *ContentCache) set(key, userID string, tags []string, data WidgetData) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !now.Before(c.nextSweep) {
		for k, entry := range c.entries {
			if now.After(entry.expires) {
				delete(c.entries, k)
			}
		}
		c.nextSweep = now.Add(c.ttl)
	}
	c.entries[key] = cachedContent{
		data:    data,
		userID:  userID,
		tags:    append([]string(nil), tags...),
		expires: now.Add(c.ttl),
	}
}

// contentKey returns a deterministic cache key for a widget render.
func contentKey(userID string, kind WidgetKind, rng DateRange) string {
	b, err := json.Marshal(struct {
		User  string     `json:"u"`
		Kind  WidgetKind `json:"k"`
		Range DateRange  `json:"r"`
	}{userID, kind, rng})
	if err != nil {
		return userID + "|" + string(kind) + "|invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
