package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/dashtabs/internal/daterange"
)

// datePicker chooses a preset or types a custom inclusive range.
type datePicker struct {
	cursor  int
	custom  bool
	inputs  [2]textinput.Model
	focused int
	err     string
}

func newDatePicker(current daterange.Range) datePicker {
	d := datePicker{}
	for i, p := range daterange.Presets {
		if p == current.Preset {
			d.cursor = i
		}
	}
	for i, label := range []string{"from ", "to   "} {
		inp := textinput.New()
		inp.Placeholder = "YYYY-MM-DD"
		inp.Prompt = label
		inp.CharLimit = 10
		d.inputs[i] = inp
	}
	if current.Preset == daterange.Custom && !current.Start.IsZero() {
		d.inputs[0].SetValue(current.Start.Format("2006-01-02"))
		d.inputs[1].SetValue(current.End.Format("2006-01-02"))
	}
	return d
}

func (d *datePicker) move(delta int) {
	n := len(daterange.Presets)
	d.cursor = (d.cursor + delta + n) % n
}

func (d *datePicker) preset() daterange.Preset { return daterange.Presets[d.cursor] }

func (d *datePicker) startCustom() {
	d.custom = true
	d.err = ""
	d.focus(0)
}

func (d *datePicker) focus(i int) {
	d.focused = i
	for j := range d.inputs {
		if j == i {
			d.inputs[j].Focus()
		} else {
			d.inputs[j].Blur()
		}
	}
}

func (d *datePicker) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.inputs[d.focused], cmd = d.inputs[d.focused].Update(msg)
	return cmd
}

// submit advances from the start field, or parses the range from the end
// field.
func (d *datePicker) submit() (daterange.Range, bool) {
	if d.focused == 0 {
		d.focus(1)
		return daterange.Range{}, false
	}
	r, err := daterange.NewCustom(strings.TrimSpace(d.inputs[0].Value()), strings.TrimSpace(d.inputs[1].Value()))
	if err != nil {
		d.err = err.Error()
		return daterange.Range{}, false
	}
	d.err = ""
	return r, true
}

func (d datePicker) view(staged daterange.Range) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Date range"))
	b.WriteString("\n")
	if d.custom {
		b.WriteString(d.inputs[0].View())
		b.WriteString("\n")
		b.WriteString(d.inputs[1].View())
		if d.err != "" {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(d.err))
		}
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("enter next/done · esc back"))
		return b.String()
	}
	for i, p := range daterange.Presets {
		mark := checkbox(true, p == staged.Preset)
		line := mark + " " + p.Label()
		if i == d.cursor {
			line = cursorStyle.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("staged: " + staged.Label()))
	return b.String()
}
