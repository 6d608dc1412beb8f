package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/dashtabs/internal/embedding"
	"github.com/jask/dashtabs/internal/tui/widgets"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	tileColumns   = 2
)

func (a *App) View() string {
	width, height := a.width, a.height
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}

	header := a.renderTabs(width)
	bar := a.renderFilterBar(width)
	status := a.renderStatus(width)
	var footer string
	if a.mode == modePicker {
		footer = a.help.View(pickerHelp(a.keys))
	} else {
		footer = a.help.View(a.keys)
	}

	used := lipgloss.Height(header) + lipgloss.Height(bar) + lipgloss.Height(status) + lipgloss.Height(footer)
	body := a.renderDashboard(width, max(3, height-used))
	screen := lipgloss.JoinVertical(lipgloss.Left, header, bar, body, status, footer)

	switch a.mode {
	case modePicker:
		def := a.picker.def
		popup := a.picker.view(a.store.Staged().Values(def.Name), a.loading[def.Name], a.fetchErr[def.Name])
		return widgets.RenderPopup(screen, popup, width, height, colorFocus)
	case modeDate:
		return widgets.RenderPopup(screen, a.date.view(a.store.StagedRange()), width, height, colorFocus)
	}
	return screen
}

func (a *App) renderTabs(width int) string {
	parts := []string{titleStyle.Render("dashtabs") + " "}
	for i, e := range a.embedders {
		if i == a.tab {
			parts = append(parts, activeTabStyle.Render(e.Label))
		} else {
			parts = append(parts, tabStyle.Render(e.Label))
		}
	}
	return ansi.Truncate(strings.Join(parts, ""), width, "…")
}

func (a *App) renderFilterBar(width int) string {
	staged := a.store.Staged()
	chips := make([]string, 0, a.chipCount())
	for i, d := range a.defs {
		text := d.Label + ": " + summarize(staged.Values(d.Name))
		switch {
		case a.loading[d.Name]:
			text += " …"
		case a.fetchErr[d.Name] != nil:
			text += " !"
		}
		chips = append(chips, a.chip(i, text))
	}
	chips = append(chips, a.chip(len(a.defs), a.dateLabel+": "+a.store.StagedRange().Label()))

	line := strings.Join(chips, " ")
	if a.store.Dirty() {
		line += " " + dirtyMarkStyle.Render("● unapplied")
	}
	// wrap chips onto as many lines as the width requires
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (a *App) chip(i int, text string) string {
	if i == a.focus && a.mode == modeBrowse {
		return focusedChipStyle.Render(text)
	}
	return chipStyle.Render(text)
}

func summarize(values []string) string {
	switch len(values) {
	case 0:
		return "All"
	case 1:
		return values[0]
	default:
		return fmt.Sprintf("%s +%d", values[0], len(values)-1)
	}
}

func (a *App) renderDashboard(width, height int) string {
	if len(a.embedders) == 0 {
		return widgets.Text(mutedStyle.Render("No dashboards configured")).Render(width, height)
	}
	e := a.embedders[a.tab]
	frame := a.frames[a.tab]
	if err := a.frameErr[a.tab]; err != nil && frame.RanAt.IsZero() {
		msg := errorStyle.Render("Dashboard unavailable: " + err.Error())
		if embedding.IsNotConnected(err) || !e.Connected() {
			msg += "\n" + mutedStyle.Render("The connection failed at startup and is not retried. See the log.")
		}
		return widgets.Text(msg).Render(width, height)
	}
	if frame.RanAt.IsZero() {
		return widgets.Text(mutedStyle.Render("Loading "+e.Label+"…")).Render(width, height)
	}
	tiles := make([]widgets.Widget, 0, len(frame.Tiles))
	for i, t := range frame.Tiles {
		tiles = append(tiles, tileWidget{tile: t, color: tileColor(i)})
	}
	return widgets.Grid{Widgets: tiles, Columns: tileColumns, Gap: 1}.Render(width, height)
}

type tileWidget struct {
	tile  embedding.TileFrame
	color lipgloss.Color
}

func (t tileWidget) Render(width, height int) string {
	var content string
	if t.tile.Err != nil {
		content = errorStyle.Render(t.tile.Err.Error())
	} else {
		points := make([]widgets.BarPoint, 0, len(t.tile.Points))
		for _, p := range t.tile.Points {
			points = append(points, widgets.BarPoint{Label: p.Label, Value: p.Value})
		}
		content = widgets.BarChart{Points: points, Color: t.color}.Render(max(1, width-4), max(1, height-2))
	}
	return widgets.Pane{Title: t.tile.Title, Content: content, Border: colorSurface1, FocusBorder: colorFocus, Text: colorText}.Render(width, height)
}

func (a *App) renderStatus(width int) string {
	if a.status == "" {
		return ""
	}
	style := statusStyle
	if a.isErr {
		style = errorStyle
	}
	return style.Render(ansi.Truncate(a.status, width, "…"))
}
