package dashboard

const (
	// GridCols is the number of columns on the dashboard canvas.
	GridCols = 4
	// GridRows is the number of rows on the dashboard canvas.
	GridRows = 3
)

// Grid describes the fixed cell canvas widgets are placed on.
type Grid struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// DefaultGrid returns the 4x3 dashboard canvas.
func DefaultGrid() Grid {
	return Grid{Cols: GridCols, Rows: GridRows}
}

func (g Grid) normalized() Grid {
	if g.Cols <= 0 || g.Rows <= 0 {
		return DefaultGrid()
	}
	return g
}

// Cells returns the total number of cells on the grid.
func (g Grid) Cells() int {
	return g.Cols * g.Rows
}

// WidgetPosition is a rectangle measured in cells with a top-left origin.
type WidgetPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Size is the width/height part of a position.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// DefaultWidgetSize is used by the allocator when a kind does not declare its own size.
var DefaultWidgetSize = Size{W: 2, H: 1}

// Size returns the dimensions of the rectangle.
func (p WidgetPosition) Size() Size {
	return Size{W: p.W, H: p.H}
}

// IsWithinBounds reports whether pos lies fully inside the grid.
func (g Grid) IsWithinBounds(pos WidgetPosition) bool {
	return pos.W >= 1 && pos.H >= 1 &&
		pos.X >= 0 && pos.Y >= 0 &&
		pos.X+pos.W <= g.Cols &&
		pos.Y+pos.H <= g.Rows
}

// Overlaps reports whether two rectangles share at least one cell.
func Overlaps(a, b WidgetPosition) bool {
	overlapsX := a.X < b.X+b.W && a.X+a.W > b.X
	overlapsY := a.Y < b.Y+b.H && a.Y+a.H > b.Y
	return overlapsX && overlapsY
}

// IsValidPosition is the gatekeeper run before any layout mutation is committed:
// the widget must be in bounds and must not collide with any other widget.
func (g Grid) IsValidPosition(widget Widget, all []Widget) bool {
	if !g.IsWithinBounds(widget.Position) {
		return false
	}
	for _, other := range all {
		if other.ID == widget.ID {
			continue
		}
		if Overlaps(widget.Position, other.Position) {
			return false
		}
	}
	return true
}

// ValidateLayout checks the non-overlap and bounds invariants for a whole list,
// and that ids are present and unique.
func (g Grid) ValidateLayout(widgets []Widget) error {
	seen := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		if w.ID == "" {
			return invalidLayoutf("widget of type %q has no id", w.Type)
		}
		if _, dup := seen[w.ID]; dup {
			return invalidLayoutf("duplicate widget id %s", w.ID)
		}
		seen[w.ID] = struct{}{}
		if !g.IsValidPosition(w, widgets) {
			return invalidLayoutf("widget %s at %+v is out of bounds or overlaps another widget", w.ID, w.Position)
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
