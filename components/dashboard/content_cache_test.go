package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentCacheGetOrLoad(t *testing.T) {
	cache := NewContentCache(time.Minute)
	calls := 0
	load := func() (WidgetData, error) {
		calls++
		return WidgetData{"total": "10.00"}, nil
	}
	for i := 0; i < 3; i++ {
		data, err := cache.GetOrLoad("k", "u1", []string{TagWallets}, load)
		require.NoError(t, err)
		assert.Equal(t, "10.00", data["total"])
	}
	assert.Equal(t, 1, calls)
}

func TestContentCacheExpires(t *testing.T) {
	cache := NewContentCache(time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	calls := 0
	load := func() (WidgetData, error) { calls++; return WidgetData{}, nil }

	_, _ = cache.GetOrLoad("k", "u1", nil, load)
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetOrLoad("k", "u1", nil, load)
	assert.Equal(t, 2, calls)
}

func TestContentCacheSweepsExpiredOnSet(t *testing.T) {
	cache := NewContentCache(time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	load := func() (WidgetData, error) { return WidgetData{}, nil }

	for _, key := range []string{"a", "b", "c"} {
		_, err := cache.GetOrLoad(key, "u1", nil, load)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, cache.Len())

	now = now.Add(2 * time.Minute)
	_, err := cache.GetOrLoad("d", "u1", nil, load)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestContentCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewContentCache(time.Minute)
	_, err := cache.GetOrLoad("k", "u1", nil, func() (WidgetData, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestContentCacheTargetedInvalidation(t *testing.T) {
	cache := NewContentCache(time.Minute)
	bus := NewInvalidationBus()
	cache.Attach(bus)
	load := func() (WidgetData, error) { return WidgetData{}, nil }

	_, _ = cache.GetOrLoad("balance-u1", "u1", []string{TagWallets}, load)
	_, _ = cache.GetOrLoad("expenses-u1", "u1", []string{TagTransactions, TagExpenses}, load)
	_, _ = cache.GetOrLoad("expenses-u2", "u2", []string{TagTransactions, TagExpenses}, load)
	require.Equal(t, 3, cache.Len())

	require.NoError(t, bus.Invalidate(context.Background(), InvalidationEvent{UserID: "u1", Tags: []string{TagExpenses}}))
	assert.Equal(t, 2, cache.Len())
	_, ok := cache.get("balance-u1")
	assert.True(t, ok, "wallet content survives an expenses invalidation")
	_, ok = cache.get("expenses-u2")
	assert.True(t, ok, "other users keep their content")

	assert.Equal(t, 1, cache.Invalidate("", TagTransactions))
	assert.Equal(t, 0, cache.Invalidate("u1"))
}

func TestContentKeyDependsOnRange(t *testing.T) {
	a := contentKey("u1", KindPeriodIncomes, DateRange{StartDate: "2024-01-01"})
	b := contentKey("u1", KindPeriodIncomes, DateRange{StartDate: "2024-02-01"})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, contentKey("u1", KindPeriodIncomes, DateRange{StartDate: "2024-01-01"}))
}
