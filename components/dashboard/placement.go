package dashboard

// FindAvailablePosition scans candidate top-left cells in row-major order and
// returns the first rectangle of the requested size no existing widget overlaps.
// The boolean is false when the grid has no free rectangle of that size.
func (g Grid) FindAvailablePosition(existing []Widget, size Size) (WidgetPosition, bool) {
	if size.W <= 0 || size.H <= 0 {
		size = DefaultWidgetSize
	}
	for y := 0; y+size.H <= g.Rows; y++ {
		for x := 0; x+size.W <= g.Cols; x++ {
			candidate := WidgetPosition{X: x, Y: y, W: size.W, H: size.H}
			if !collidesWithAny(candidate, existing) {
				return candidate, true
			}
		}
	}
	return WidgetPosition{}, false
}

func collidesWithAny(pos WidgetPosition, widgets []Widget) bool {
	for _, w := range widgets {
		if Overlaps(pos, w.Position) {
			return true
		}
	}
	return false
}
