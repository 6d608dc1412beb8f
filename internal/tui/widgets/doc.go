// Package widgets contains dumb render primitives.
//
// Allowed here:
// - stateless drawing/composition helpers (panes, bar charts, grids, popup overlay)
//
// Not allowed here:
// - key handling, filter state, or fetch logic
package widgets

// Widget renders itself into a width x height cell box.
type Widget interface {
	Render(width, height int) string
}

// Text is a Widget showing a fixed string.
type Text string

func (t Text) Render(width, height int) string {
	lines := splitToLines(string(t), height)
	for i := range lines {
		lines[i] = padRight(lines[i], width)
	}
	return joinLines(lines)
}
