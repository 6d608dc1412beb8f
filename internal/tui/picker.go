package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/service"
)

const pickerRows = 10

// optionPicker edits one filter's staged values.
type optionPicker struct {
	def     filters.Def
	input   textinput.Model
	all     []filters.Option
	visible []filters.Option
	cursor  int
}

func newOptionPicker(def filters.Def, options []filters.Option) optionPicker {
	inp := textinput.New()
	inp.Placeholder = "search"
	inp.Prompt = "/ "
	inp.CharLimit = 64
	inp.Focus()
	p := optionPicker{def: def, input: inp}
	p.setOptions(options)
	return p
}

func (p *optionPicker) setOptions(options []filters.Option) {
	p.all = options
	p.refresh()
}

func (p *optionPicker) refresh() {
	p.visible = service.RankOptions(p.all, p.input.Value())
	if p.cursor >= len(p.visible) {
		p.cursor = max(0, len(p.visible)-1)
	}
}

func (p *optionPicker) move(delta int) {
	if len(p.visible) == 0 {
		return
	}
	p.cursor = (p.cursor + delta + len(p.visible)) % len(p.visible)
}

func (p *optionPicker) current() (filters.Option, bool) {
	if p.cursor < 0 || p.cursor >= len(p.visible) {
		return filters.Option{}, false
	}
	return p.visible[p.cursor], true
}

func (p *optionPicker) updateInput(msg tea.Msg) tea.Cmd {
	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != before {
		p.cursor = 0
		p.refresh()
	}
	return cmd
}

func (p optionPicker) view(selected []string, loading bool, fetchErr error) string {
	var b strings.Builder
	title := p.def.Label
	if p.def.SingleValued() {
		title += mutedStyle.Render("  single choice")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n")

	chosen := make(map[string]bool, len(selected))
	for _, v := range selected {
		chosen[v] = true
	}

	switch {
	case fetchErr != nil && len(p.all) == 0:
		b.WriteString(errorStyle.Render("could not load options"))
	case loading && len(p.all) == 0:
		b.WriteString(mutedStyle.Render("loading…"))
	case len(p.visible) == 0:
		b.WriteString(mutedStyle.Render("(no options)"))
	default:
		start := max(0, min(p.cursor-pickerRows/2, len(p.visible)-pickerRows))
		end := min(len(p.visible), start+pickerRows)
		for i := start; i < end; i++ {
			o := p.visible[i]
			mark := checkbox(p.def.SingleValued(), chosen[o.Value])
			line := fmt.Sprintf("%s %s", mark, o.Label)
			if i == p.cursor {
				line = cursorStyle.Render("▶ ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")
	status := fmt.Sprintf("%d selected · %d of %d", len(selected), len(p.visible), len(p.all))
	if loading && len(p.all) > 0 {
		status += " · refreshing"
	}
	b.WriteString(mutedStyle.Render(status))
	return b.String()
}

func checkbox(single, on bool) string {
	switch {
	case single && on:
		return selectedStyle.Render("(•)")
	case single:
		return "( )"
	case on:
		return selectedStyle.Render("[x]")
	default:
		return "[ ]"
	}
}
