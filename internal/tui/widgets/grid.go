package widgets

import (
	"strings"
)

// Grid lays widgets out row-major in a fixed number of columns. Rows share
// the height evenly.
type Grid struct {
	Widgets []Widget
	Columns int
	Gap     int
}

func (g Grid) Render(width, height int) string {
	if len(g.Widgets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	cols := max(1, min(g.Columns, len(g.Widgets)))
	rowCount := (len(g.Widgets) + cols - 1) / cols
	heights := splitSizes(height, rowCount)

	out := make([]string, 0, height)
	for r := 0; r < rowCount; r++ {
		end := min(len(g.Widgets), (r+1)*cols)
		row := HStack{Widgets: g.Widgets[r*cols : end], Gap: g.Gap, Slots: cols}
		out = append(out, splitToLines(row.Render(width, heights[r]), heights[r])...)
	}
	return joinLines(out)
}

// HStack places widgets side by side. Slots reserves room for that many
// columns so a short last row lines up with the rows above.
type HStack struct {
	Widgets []Widget
	Gap     int
	Slots   int
}

func (h HStack) Render(width, height int) string {
	if len(h.Widgets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	slots := max(h.Slots, len(h.Widgets))
	widths := splitSizes(max(1, width-h.Gap*(slots-1)), slots)
	cells := make([][]string, len(h.Widgets))
	for i, w := range h.Widgets {
		cells[i] = splitToLines(w.Render(widths[i], height), height)
	}
	gap := strings.Repeat(" ", h.Gap)
	out := make([]string, height)
	for line := range out {
		parts := make([]string, len(cells))
		for i := range cells {
			parts[i] = padRight(cells[i][line], widths[i])
		}
		out[line] = strings.Join(parts, gap)
	}
	return joinLines(out)
}

// splitSizes divides total into n parts, spreading the remainder from the
// left.
func splitSizes(total, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = total / n
	}
	for i := 0; i < total%n; i++ {
		out[i]++
	}
	return out
}
