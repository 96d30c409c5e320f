package dashboard

// NarrowBreakpointPx is the viewport width below which widgets are stacked.
const NarrowBreakpointPx = 768

// Viewport describes the client rendering the dashboard.
type Viewport struct {
	WidthPx int `json:"width"`
}

// Narrow reports whether the viewport renders the stacked single-column view.
// An unknown width (zero) renders the grid.
func (v Viewport) Narrow() bool {
	return v.WidthPx > 0 && v.WidthPx < NarrowBreakpointPx
}

// Stack derives the presentation positions for a viewport. Narrow viewports
// get one full-width row per widget in list order; wide viewports get an
// unchanged copy. The input is never modified and the result is never persisted.
func Stack(widgets []Widget, narrow bool) []Widget {
	out := cloneWidgets(widgets)
	if out == nil {
		return []Widget{}
	}
	if !narrow {
		return out
	}
	for i := range out {
		out[i].Position = WidgetPosition{X: 0, Y: i, W: 1, H: 1}
	}
	return out
}
