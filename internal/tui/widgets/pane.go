package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Pane is a rounded box with the title set into the top border.
type Pane struct {
	Title   string
	Content string
	Focused bool
	// Border and FocusBorder default to Catppuccin overlay0 and green.
	Border      lipgloss.Color
	FocusBorder lipgloss.Color
	Text        lipgloss.Color
}

func (p Pane) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	width = max(width, 4)
	height = max(height, 3)

	border := p.Border
	if border == "" {
		border = lipgloss.Color("#6c7086")
	}
	if p.Focused {
		border = p.FocusBorder
		if border == "" {
			border = lipgloss.Color("#a6e3a1")
		}
	}
	text := p.Text
	if text == "" {
		text = lipgloss.Color("#cdd6f4")
	}
	borderStyle := lipgloss.NewStyle().Foreground(border)
	titleStyle := lipgloss.NewStyle().Foreground(text).Bold(true)

	innerWidth := width - 2
	contentWidth := innerWidth - 2

	titleText := ""
	if p.Title != "" {
		titleText = " " + ansi.Truncate(p.Title, max(1, innerWidth-3), "…") + " "
	}
	dashes := max(0, innerWidth-ansi.StringWidth(titleText))
	leftDash := min(1, dashes)

	top := borderStyle.Render("╭"+strings.Repeat("─", leftDash)) +
		titleStyle.Render(titleText) +
		borderStyle.Render(strings.Repeat("─", dashes-leftDash)+"╮")

	v := borderStyle.Render("│")
	body := splitToLines(p.Content, height-2)
	rows := make([]string, 0, height)
	rows = append(rows, top)
	for _, line := range body {
		rows = append(rows, v+" "+padRight(line, contentWidth)+" "+v)
	}
	rows = append(rows, borderStyle.Render("╰"+strings.Repeat("─", innerWidth)+"╯"))
	return joinLines(rows)
}
