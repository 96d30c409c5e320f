package dashboard

import (
	"context"
	"testing"
	"time"

	core "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/pkg/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStackRequiresStore(t *testing.T) {
	_, err := NewStack(StackOptions{})
	require.Error(t, err)
}

func TestNewStackServesSeedLayoutWithContent(t *testing.T) {
	source := stubFinance()
	stack, err := NewStack(StackOptions{
		Store:    core.NewInMemoryLayoutStore(),
		Finance:  source,
		CacheTTL: time.Minute,
	})
	require.NoError(t, err)
	require.NotNil(t, stack.Cache)

	viewer := ViewerContext{UserID: "u1"}
	payload, err := stack.Controller.LayoutPayload(context.Background(), viewer, core.Viewport{WidthPx: 1200}, core.DateRange{})
	require.NoError(t, err)
	require.Len(t, payload.Widgets, 2)
	for _, view := range payload.Widgets {
		assert.Empty(t, view.Error, "widget %s", view.ID)
	}
}

func TestNewStackInvalidatesCacheOnLayoutChange(t *testing.T) {
	stack, err := NewStack(StackOptions{
		Store:    core.NewInMemoryLayoutStore(),
		Finance:  stubFinance(),
		CacheTTL: time.Minute,
	})
	require.NoError(t, err)

	events := make(chan core.InvalidationEvent, 4)
	stack.Bus.Listen(func(e core.InvalidationEvent) { events <- e })

	viewer := ViewerContext{UserID: "u1"}
	_, err = stack.Service.RemoveWidget(context.Background(), viewer, "default-incomes")
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, "u1", e.UserID)
		assert.True(t, e.HasTag(core.TagDashboardLayout))
	case <-time.After(time.Second):
		t.Fatal("expected a layout invalidation event")
	}
}

func stubFinance() *finance.StaticSource {
	return finance.NewStaticSource(finance.StaticData{
		Wallets: []core.Wallet{{ID: "w1", Name: "Main", Balance: decimal.NewFromInt(1200)}},
		Transactions: []core.Transaction{
			{ID: "t1", Type: core.TransactionIncome, Amount: decimal.NewFromInt(300), Date: "2024-01-10"},
		},
	})
}
