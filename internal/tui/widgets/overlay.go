package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderPopup draws popup in a bordered card centred over base.
func RenderPopup(base, popup string, width, height int, border lipgloss.Color) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := splitToLines(base, height)
	for i := range canvas {
		canvas[i] = padRight(canvas[i], width)
	}
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if border != "" {
		style = style.BorderForeground(border)
	}
	card := strings.Split(style.Render(popup), "\n")
	cardWidth := 0
	for _, l := range card {
		cardWidth = max(cardWidth, ansi.StringWidth(l))
	}
	x := max(0, (width-cardWidth)/2)
	y := max(0, (height-len(card))/2)

	for i, line := range card {
		row := y + i
		if row >= height {
			break
		}
		left := ansi.Truncate(canvas[row], x, "")
		mid := padRight(line, cardWidth)
		right := dropColumns(canvas[row], x+cardWidth)
		canvas[row] = padRight(left+mid+right, width)
	}
	return joinLines(canvas)
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return ansi.TruncateLeft(s, cols, "")
}

func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// splitToLines splits s into exactly height lines when height > 0.
func splitToLines(s string, height int) []string {
	lines := strings.Split(s, "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	for height > 0 && len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func joinLines(lines []string) string { return strings.Join(lines, "\n") }
