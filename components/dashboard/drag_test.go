package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragTrackerRelocatesOnEnd(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, []Widget{
		{ID: "a", Type: KindTotalBalance, Position: WidgetPosition{X: 0, Y: 0, W: 2, H: 1}},
	})
	tracker := NewDragTracker(0)

	require.NoError(t, tracker.Start("a"))
	assert.ErrorIs(t, tracker.Start("b"), ErrDragInProgress)
	require.NoError(t, tracker.Move(PixelDelta{X: 100, Y: 0}))
	require.NoError(t, tracker.Move(PixelDelta{X: 410, Y: 160}))

	w, moved, err := tracker.End(context.Background(), engine, CellSize{Width: 200, Height: 150})
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, WidgetPosition{X: 2, Y: 1, W: 2, H: 1}, w.Position)

	_, active := tracker.Active()
	assert.False(t, active)
}

func TestDragTrackerIgnoresShortPress(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)
	tracker := NewDragTracker(8)

	require.NoError(t, tracker.Start("default-balance"))
	require.NoError(t, tracker.Move(PixelDelta{X: 3, Y: 4}))
	_, moved, err := tracker.End(context.Background(), engine, CellSize{Width: 1, Height: 1})
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, saver.calls)
}

func TestDragTrackerCancel(t *testing.T) {
	tracker := NewDragTracker(0)
	require.NoError(t, tracker.Start("a"))
	tracker.Cancel()

	assert.ErrorIs(t, tracker.Move(PixelDelta{X: 10}), ErrNoActiveDrag)
	_, _, err := tracker.End(context.Background(), nil, CellSize{Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrNoActiveDrag)
	require.NoError(t, tracker.Start("b"))
}

func TestDragTrackerEndWithoutRelocator(t *testing.T) {
	tracker := NewDragTracker(0)
	require.NoError(t, tracker.Start("a"))
	require.NoError(t, tracker.Move(PixelDelta{X: 400, Y: 0}))

	_, moved, err := tracker.End(context.Background(), nil, CellSize{Width: 200, Height: 150})
	assert.ErrorIs(t, err, ErrNoRelocator)
	assert.False(t, moved)

	_, active := tracker.Active()
	assert.False(t, active)
}
