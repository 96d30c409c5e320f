package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/goliatone/go-gridboard/components/dashboard"
)

const glyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func glyph(i int) byte {
	if i < 0 || i >= len(glyphs) {
		return '#'
	}
	return glyphs[i]
}

// renderGrid draws every cell of grid, marking cells covered by the i-th
// widget with its glyph and free cells with a dot.
func renderGrid(grid dashboard.Grid, widgets []dashboard.Widget) string {
	cells := make([][]byte, grid.Rows)
	for y := range cells {
		cells[y] = []byte(strings.Repeat(".", grid.Cols))
	}
	for i, w := range widgets {
		for y := w.Position.Y; y < w.Position.Y+w.Position.H && y < grid.Rows; y++ {
			for x := w.Position.X; x < w.Position.X+w.Position.W && x < grid.Cols; x++ {
				if y >= 0 && x >= 0 {
					cells[y][x] = glyph(i)
				}
			}
		}
	}
	var b strings.Builder
	for _, row := range cells {
		for x, c := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
