package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// BarPoint is one labelled bar.
type BarPoint struct {
	Label string
	Value float64
}

// BarChart draws horizontal bars scaled to the largest value, one per line.
type BarChart struct {
	Points []BarPoint
	Color  lipgloss.Color
	// Format renders a value; defaults to a compact number.
	Format func(float64) string
	Empty  string
}

func (c BarChart) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(c.Points) == 0 {
		empty := c.Empty
		if empty == "" {
			empty = "(no data)"
		}
		return padRight(empty, width)
	}
	format := c.Format
	if format == nil {
		format = FormatNumber
	}

	points := c.Points
	if len(points) > height {
		points = points[:height]
	}
	labelW, valueW := 0, 0
	maxV := 0.0
	values := make([]string, len(points))
	for i, p := range points {
		labelW = max(labelW, ansi.StringWidth(p.Label))
		values[i] = format(p.Value)
		valueW = max(valueW, len(values[i]))
		maxV = max(maxV, p.Value)
	}
	labelW = min(labelW, max(4, width/3))
	barMax := max(1, width-labelW-valueW-2)
	if maxV <= 0 {
		maxV = 1
	}

	bar := lipgloss.NewStyle()
	if c.Color != "" {
		bar = bar.Foreground(c.Color)
	}
	lines := make([]string, 0, len(points))
	for i, p := range points {
		n := int(p.Value / maxV * float64(barMax))
		if p.Value > 0 {
			n = max(n, 1)
		}
		label := padRight(ansi.Truncate(p.Label, labelW, "…"), labelW)
		b := bar.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barMax-n)
		lines = append(lines, fmt.Sprintf("%s %s %*s", label, b, valueW, values[i]))
	}
	return joinLines(lines)
}

// FormatNumber renders v with thousands suffixes.
func FormatNumber(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%.1fk", v/1e3)
	case v == float64(int64(v)):
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
