package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	calls [][]Widget
	err   error
}

func (s *recordingSaver) save(_ context.Context, widgets []Widget) error {
	s.calls = append(s.calls, widgets)
	return s.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("w%d", n)
	}
}

func newTestEngine(t *testing.T, saver *recordingSaver, widgets []Widget) *Engine {
	t.Helper()
	engine := NewEngine(EngineOptions{
		Grid:    DefaultGrid(),
		Catalog: NewRegistry(),
		Save:    saver.save,
		NewID:   sequentialIDs(),
	})
	if widgets == nil {
		require.NoError(t, engine.LoadInitial(Layout{}, false))
	} else {
		require.NoError(t, engine.LoadInitial(Layout{Widgets: widgets}, true))
	}
	return engine
}

func TestLoadInitialSeedsWhenNoRecord(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	assert.Equal(t, SeedWidgets(), engine.Widgets())
	assert.Empty(t, saver.calls, "bootstrap must not write")
}

func TestLoadInitialKeepsSavedEmptyLayout(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, []Widget{})
	assert.Empty(t, engine.Widgets())
}

func TestLoadInitialRejectsInvalidLayout(t *testing.T) {
	engine := NewEngine(EngineOptions{})
	err := engine.LoadInitial(Layout{Widgets: []Widget{
		{ID: "a", Position: WidgetPosition{X: 0, Y: 0, W: 2, H: 1}},
		{ID: "b", Position: WidgetPosition{X: 1, Y: 0, W: 2, H: 1}},
	}}, true)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	assert.Empty(t, engine.Widgets())
}

func TestAddPlacesAtFirstFreeSlot(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	widget, err := engine.Add(context.Background(), KindPeriodExpenses, nil)
	require.NoError(t, err)
	assert.Equal(t, WidgetPosition{X: 0, Y: 1, W: 2, H: 1}, widget.Position)
	assert.Equal(t, "w1", widget.ID)
	require.Len(t, saver.calls, 1)
	assert.Len(t, saver.calls[0], 3)
}

func TestAddGridFullLeavesStateUnchanged(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := engine.Add(ctx, KindTotalBalance, nil)
		require.NoError(t, err)
	}
	before := engine.Widgets()
	writes := len(saver.calls)

	_, err := engine.Add(ctx, KindTotalBalance, nil)
	assert.ErrorIs(t, err, ErrGridFull)
	assert.Equal(t, before, engine.Widgets())
	assert.Len(t, saver.calls, writes)
}

func TestAddUnknownKind(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, nil)
	_, err := engine.Add(context.Background(), "net-worth", nil)
	assert.ErrorIs(t, err, ErrUnknownWidgetKind)
}

func TestAddCopiesConfig(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, []Widget{})
	cfg := &WidgetConfig{StartDate: "2024-01-01", EndDate: "2024-01-31"}
	widget, err := engine.Add(context.Background(), KindPeriodIncomes, cfg)
	require.NoError(t, err)
	cfg.StartDate = "1999-01-01"
	assert.Equal(t, "2024-01-01", widget.Config.StartDate)
	stored, ok := engine.Widget(widget.ID)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", stored.Config.StartDate)
}

func TestRemove(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	require.NoError(t, engine.Remove(context.Background(), "default-balance"))
	widgets := engine.Widgets()
	require.Len(t, widgets, 1)
	assert.Equal(t, "default-incomes", widgets[0].ID)

	err := engine.Remove(context.Background(), "default-balance")
	assert.ErrorIs(t, err, ErrWidgetNotFound)
	assert.Len(t, saver.calls, 1)
}

func TestRelocateCollisionIsRejected(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)
	cell := CellSize{Width: 200, Height: 150}

	_, moved, err := engine.Relocate(context.Background(), "default-balance", PixelDelta{X: 190, Y: 10}, cell)
	assert.ErrorIs(t, err, ErrCollision)
	assert.False(t, moved)
	w, _ := engine.Widget("default-balance")
	assert.Equal(t, WidgetPosition{X: 0, Y: 0, W: 2, H: 1}, w.Position)
	assert.Empty(t, saver.calls)
}

func TestRelocateMovesAndClamps(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)
	cell := CellSize{Width: 200, Height: 150}

	w, moved, err := engine.Relocate(context.Background(), "default-balance", PixelDelta{X: -40, Y: 2000}, cell)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, WidgetPosition{X: 0, Y: 2, W: 2, H: 1}, w.Position)
	require.Len(t, saver.calls, 1)
}

func TestRelocateUsesSeparateCellAxes(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, []Widget{
		{ID: "a", Type: KindTotalBalance, Position: WidgetPosition{X: 0, Y: 0, W: 1, H: 1}},
	})
	w, moved, err := engine.Relocate(context.Background(), "a", PixelDelta{X: 160, Y: 160}, CellSize{Width: 300, Height: 100})
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, WidgetPosition{X: 1, Y: 2, W: 1, H: 1}, w.Position)
}

func TestRelocateRoundsHalvesUp(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, []Widget{
		{ID: "a", Type: KindTotalBalance, Position: WidgetPosition{X: 2, Y: 0, W: 1, H: 1}},
	})
	w, moved, err := engine.Relocate(context.Background(), "a", PixelDelta{X: -150, Y: 150}, CellSize{Width: 100, Height: 100})
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, WidgetPosition{X: 1, Y: 2, W: 1, H: 1}, w.Position)

	_, moved, err = engine.Relocate(context.Background(), "a", PixelDelta{X: -50, Y: -49}, CellSize{Width: 100, Height: 100})
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestRelocateZeroDeltaIsNoOp(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	_, moved, err := engine.Relocate(context.Background(), "default-balance", PixelDelta{X: 40, Y: -30}, CellSize{Width: 200, Height: 150})
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, saver.calls)
}

func TestRelocateRejectsInvalidCellSize(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, nil)
	_, _, err := engine.Relocate(context.Background(), "default-balance", PixelDelta{X: 400}, CellSize{Width: 0, Height: 150})
	assert.ErrorIs(t, err, ErrInvalidCellSize)
}

func TestRelocateUnknownWidget(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, nil)
	_, _, err := engine.Relocate(context.Background(), "missing", PixelDelta{X: 400}, CellSize{Width: 200, Height: 150})
	assert.ErrorIs(t, err, ErrWidgetNotFound)
}

func TestResizeCollisionIsRejected(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	_, _, err := engine.Resize(context.Background(), "default-balance", 4, 1)
	assert.ErrorIs(t, err, ErrCollision)
	w, _ := engine.Widget("default-balance")
	assert.Equal(t, WidgetPosition{X: 0, Y: 0, W: 2, H: 1}, w.Position)
	assert.Empty(t, saver.calls)
}

func TestResizeClampsAndShiftsOrigin(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, []Widget{
		{ID: "a", Type: KindTotalBalance, Position: WidgetPosition{X: 3, Y: 2, W: 1, H: 1}},
	})
	w, changed, err := engine.Resize(context.Background(), "a", 9, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, WidgetPosition{X: 0, Y: 2, W: 4, H: 1}, w.Position)

	w, _, err = engine.Resize(context.Background(), "a", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, WidgetPosition{X: 0, Y: 0, W: 2, H: 3}, w.Position)
}

func TestUpdateConfig(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	w, err := engine.UpdateConfig(context.Background(), "default-incomes", &WidgetConfig{StartDate: "2024-03-01"})
	require.NoError(t, err)
	require.NotNil(t, w.Config)
	assert.Equal(t, "2024-03-01", w.Config.StartDate)

	w, err = engine.UpdateConfig(context.Background(), "default-incomes", &WidgetConfig{})
	require.NoError(t, err)
	assert.Nil(t, w.Config)
	assert.Len(t, saver.calls, 2)
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	saver := &recordingSaver{err: errors.New("network down")}
	engine := newTestEngine(t, saver, nil)

	widget, err := engine.Add(context.Background(), KindExpenseBreakdown, nil)
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.EqualError(t, perr.Unwrap(), "network down")
	_, ok := engine.Widget(widget.ID)
	assert.True(t, ok, "optimistic update must survive the failed save")
}

func TestWidgetsReturnsCopy(t *testing.T) {
	engine := newTestEngine(t, &recordingSaver{}, nil)
	widgets := engine.Widgets()
	widgets[0].Position.X = 3
	widgets[0].Config = &WidgetConfig{StartDate: "2024-01-01"}

	fresh := engine.Widgets()
	assert.Equal(t, 0, fresh[0].Position.X)
	assert.Nil(t, fresh[0].Config)
}

func TestReplaceValidates(t *testing.T) {
	saver := &recordingSaver{}
	engine := newTestEngine(t, saver, nil)

	err := engine.Replace(context.Background(), []Widget{
		{ID: "a", Position: WidgetPosition{X: 0, Y: 0, W: 3, H: 1}},
		{ID: "b", Position: WidgetPosition{X: 2, Y: 0, W: 2, H: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidLayout)
	assert.Equal(t, SeedWidgets(), engine.Widgets())

	require.NoError(t, engine.Replace(context.Background(), nil))
	assert.Empty(t, engine.Widgets())
	require.NoError(t, engine.Reset(context.Background()))
	assert.Equal(t, SeedWidgets(), engine.Widgets())
	assert.Len(t, saver.calls, 2)
}

func TestRandomMutationsPreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	engine := newTestEngine(t, &recordingSaver{}, nil)
	ctx := context.Background()
	kinds := []WidgetKind{KindTotalBalance, KindPeriodIncomes, KindPeriodExpenses, KindIncomeVsExpenses, KindExpenseBreakdown}
	cell := CellSize{Width: 200, Height: 150}

	for step := 0; step < 2000; step++ {
		widgets := engine.Widgets()
		pick := func() string {
			if len(widgets) == 0 {
				return "missing"
			}
			return widgets[rng.IntN(len(widgets))].ID
		}
		switch rng.IntN(5) {
		case 0:
			_, _ = engine.Add(ctx, kinds[rng.IntN(len(kinds))], nil)
		case 1:
			_ = engine.Remove(ctx, pick())
		case 2:
			delta := PixelDelta{X: rng.Float64()*1600 - 800, Y: rng.Float64()*900 - 450}
			_, _, _ = engine.Relocate(ctx, pick(), delta, cell)
		case 3:
			_, _, _ = engine.Resize(ctx, pick(), rng.IntN(6)-1, rng.IntN(5)-1)
		case 4:
			_, _, _ = engine.MoveTo(ctx, pick(), rng.IntN(6)-1, rng.IntN(5)-1)
		}
		if err := engine.Grid().ValidateLayout(engine.Widgets()); err != nil {
			t.Fatalf("step %d broke the layout invariant: %v", step, err)
		}
	}
}

func TestNewWidgetIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^widget-\d+-[0-9a-z]{9}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewWidgetID()
		if !pattern.MatchString(id) {
			t.Fatalf("unexpected id format %q", id)
		}
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
