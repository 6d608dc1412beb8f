package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/dashtabs/internal/daterange"
	"github.com/jask/dashtabs/internal/embedding"
	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/service"
)

// Deps are the collaborators the App drives.
type Deps struct {
	Store     *filters.Store
	Fetcher   *service.OptionFetcher
	Embedders []*embedding.Embedder
	// DateFilter is the dashboard filter name the active date range is
	// pushed under.
	DateFilter string
	DateLabel  string
	Logger     *slog.Logger
}

// App is the filter bar plus dashboard tabs.
type App struct {
	ctx        context.Context
	store      *filters.Store
	fetcher    *service.OptionFetcher
	graph      *filters.Graph
	defs       []filters.Def
	embedders  []*embedding.Embedder
	dateFilter string
	dateLabel  string
	logger     *slog.Logger
	seq        *service.Sequencer

	options  map[string][]filters.Option
	loading  map[string]bool
	fetchErr map[string]error

	frames   []embedding.Frame
	frameErr []error

	tab    int
	focus  int
	mode   mode
	picker optionPicker
	date   datePicker

	keys   keyMap
	help   help.Model
	width  int
	height int
	status string
	isErr  bool
}

type mode string

const (
	modeBrowse mode = "browse"
	modePicker mode = "picker"
	modeDate   mode = "date"
)

func New(ctx context.Context, d Deps) *App {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	label := d.DateLabel
	if label == "" {
		label = "Date"
	}
	graph := d.Store.Propagator().Graph()
	return &App{
		ctx:        ctx,
		store:      d.Store,
		fetcher:    d.Fetcher,
		graph:      graph,
		defs:       graph.Defs(),
		embedders:  d.Embedders,
		dateFilter: d.DateFilter,
		dateLabel:  label,
		logger:     logger,
		seq:        service.NewSequencer(),
		options:    map[string][]filters.Option{},
		loading:    map[string]bool{},
		fetchErr:   map[string]error{},
		frames:     make([]embedding.Frame, len(d.Embedders)),
		frameErr:   make([]error, len(d.Embedders)),
		mode:       modeBrowse,
		keys:       newKeyMap(),
		help:       help.New(),
	}
}

// Init fetches every filter's options and mounts every dashboard once with
// the initial active filters.
func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.defs)+len(a.embedders))
	for _, req := range a.store.Propagator().All(a.store.Staged()) {
		cmds = append(cmds, a.fetchCmd(req))
	}
	f := embedding.Filters(a.store.DashboardFilters(a.dateFilter))
	for i := range a.embedders {
		cmds = append(cmds, a.mountCmd(i, f))
	}
	return tea.Batch(cmds...)
}

type optionsLoadedMsg struct {
	filter  string
	seq     uint64
	options []filters.Option
}

type optionsFailedMsg struct {
	filter string
	seq    uint64
	err    error
}

type frameMsg struct {
	tab   int
	seq   uint64
	frame embedding.Frame
	err   error
}

func (a *App) fetchCmd(req filters.Request) tea.Cmd {
	seq := a.seq.Next(req.Filter)
	a.loading[req.Filter] = true
	ctx, fetcher := a.ctx, a.fetcher
	return func() tea.Msg {
		opts, err := fetcher.Fetch(ctx, req)
		if err != nil {
			return optionsFailedMsg{filter: req.Filter, seq: seq, err: err}
		}
		return optionsLoadedMsg{filter: req.Filter, seq: seq, options: opts}
	}
}

func (a *App) mountCmd(i int, f embedding.Filters) tea.Cmd {
	e := a.embedders[i]
	seq := a.seq.Next(frameKey(e))
	ctx := a.ctx
	return func() tea.Msg {
		frame, err := e.Mount(ctx, f)
		return frameMsg{tab: i, seq: seq, frame: frame, err: err}
	}
}

func (a *App) applyCmd(i int, f embedding.Filters) tea.Cmd {
	e := a.embedders[i]
	seq := a.seq.Next(frameKey(e))
	ctx := a.ctx
	return func() tea.Msg {
		frame, err := e.Apply(ctx, f)
		return frameMsg{tab: i, seq: seq, frame: frame, err: err}
	}
}

// frameKey namespaces dashboard runs in the sequencer apart from filters.
func frameKey(e *embedding.Embedder) string { return "dashboard:" + e.DashboardID }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
		return a, nil
	case optionsLoadedMsg:
		if !a.seq.Latest(m.filter, m.seq) {
			a.logger.Debug("dropped stale options", slog.String("filter", m.filter), slog.Uint64("seq", m.seq))
			return a, nil
		}
		a.loading[m.filter] = false
		delete(a.fetchErr, m.filter)
		a.options[m.filter] = m.options
		if a.mode == modePicker && a.picker.def.Name == m.filter {
			a.picker.setOptions(m.options)
		}
		return a, nil
	case optionsFailedMsg:
		if !a.seq.Latest(m.filter, m.seq) {
			return a, nil
		}
		a.loading[m.filter] = false
		a.fetchErr[m.filter] = m.err
		a.setError(fmt.Sprintf("Options for %s: %v", a.labelOf(m.filter), m.err))
		return a, nil
	case frameMsg:
		if m.tab < 0 || m.tab >= len(a.embedders) || !a.seq.Latest(frameKey(a.embedders[m.tab]), m.seq) {
			return a, nil
		}
		if m.err != nil {
			a.frameErr[m.tab] = m.err
			a.setError(fmt.Sprintf("%s: %v", a.embedders[m.tab].Label, m.err))
			return a, nil
		}
		a.frameErr[m.tab] = nil
		a.frames[m.tab] = m.frame
		return a, nil
	case tea.KeyMsg:
		switch a.mode {
		case modePicker:
			return a.handlePickerKey(m)
		case modeDate:
			return a.handleDateKey(m)
		default:
			return a.handleBrowseKey(m)
		}
	}
	return a, nil
}

func (a *App) handleBrowseKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.NextTab):
		if len(a.embedders) > 0 {
			a.tab = (a.tab + 1) % len(a.embedders)
		}
	case key.Matches(m, a.keys.PrevTab):
		if len(a.embedders) > 0 {
			a.tab = (a.tab - 1 + len(a.embedders)) % len(a.embedders)
		}
	case key.Matches(m, a.keys.PrevChip):
		a.focus = (a.focus - 1 + a.chipCount()) % a.chipCount()
	case key.Matches(m, a.keys.NextChip):
		a.focus = (a.focus + 1) % a.chipCount()
	case key.Matches(m, a.keys.Open):
		if a.focusOnDate() {
			a.openDatePicker()
			return a, nil
		}
		def := a.defs[a.focus]
		a.picker = newOptionPicker(def, a.options[def.Name])
		a.mode = modePicker
	case key.Matches(m, a.keys.DateRange):
		a.openDatePicker()
	case key.Matches(m, a.keys.Clear):
		if a.focusOnDate() {
			a.store.SetRange(daterange.Default())
			return a, nil
		}
		return a, a.runPlan(a.store.Clear(a.defs[a.focus].Name))
	case key.Matches(m, a.keys.Apply):
		return a, a.apply()
	case key.Matches(m, a.keys.Reset):
		cmd := a.runPlan(a.store.Reset())
		a.setStatus("Filters reset · press a to apply")
		return a, cmd
	case key.Matches(m, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	return a, nil
}

func (a *App) handlePickerKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Close), key.Matches(m, a.keys.Submit):
		a.mode = modeBrowse
		return a, nil
	case key.Matches(m, a.keys.Up):
		a.picker.move(-1)
		return a, nil
	case key.Matches(m, a.keys.Down):
		a.picker.move(1)
		return a, nil
	case key.Matches(m, a.keys.Toggle):
		opt, ok := a.picker.current()
		if !ok {
			return a, nil
		}
		cmd := a.runPlan(a.store.Toggle(a.picker.def.Name, opt.Value))
		if a.picker.def.SingleValued() {
			a.mode = modeBrowse
		}
		return a, cmd
	}
	return a, a.picker.updateInput(m)
}

func (a *App) handleDateKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.date.custom {
		switch {
		case key.Matches(m, a.keys.Close):
			a.date.custom = false
			return a, nil
		case m.Type == tea.KeyTab, key.Matches(m, a.keys.Down), key.Matches(m, a.keys.Up):
			a.date.focus(1 - a.date.focused)
			return a, nil
		case key.Matches(m, a.keys.Submit):
			if r, ok := a.date.submit(); ok {
				a.store.SetRange(r)
				a.mode = modeBrowse
				a.setStatus("Date range staged: " + r.Label())
			}
			return a, nil
		}
		return a, a.date.updateInput(m)
	}
	switch {
	case key.Matches(m, a.keys.Close):
		a.mode = modeBrowse
	case key.Matches(m, a.keys.Up):
		a.date.move(-1)
	case key.Matches(m, a.keys.Down):
		a.date.move(1)
	case key.Matches(m, a.keys.Submit), key.Matches(m, a.keys.Toggle):
		p := a.date.preset()
		if p == daterange.Custom {
			a.date.startCustom()
			return a, nil
		}
		r := daterange.Of(p)
		a.store.SetRange(r)
		a.mode = modeBrowse
		a.setStatus("Date range staged: " + r.Label())
	}
	return a, nil
}

func (a *App) openDatePicker() {
	a.date = newDatePicker(a.store.StagedRange())
	a.mode = modeDate
}

// runPlan starts the refetches a staged change requires.
func (a *App) runPlan(plan filters.Plan) tea.Cmd {
	if !plan.Changed && len(plan.Refetch) == 0 {
		return nil
	}
	if len(plan.Cleared) > 0 {
		a.logger.Debug("cleared dependent filters", slog.Any("filters", plan.Cleared))
	}
	cmds := make([]tea.Cmd, 0, len(plan.Refetch))
	for _, req := range plan.Refetch {
		cmds = append(cmds, a.fetchCmd(req))
	}
	return tea.Batch(cmds...)
}

// apply commits the staged filters and pushes them to every dashboard.
func (a *App) apply() tea.Cmd {
	if !a.store.Apply() {
		a.setStatus("Nothing to apply")
		return nil
	}
	f := embedding.Filters(a.store.DashboardFilters(a.dateFilter))
	a.logger.Info("filters applied", slog.Any("filters", f))
	cmds := make([]tea.Cmd, 0, len(a.embedders))
	for i := range a.embedders {
		cmds = append(cmds, a.applyCmd(i, f))
	}
	a.setStatus(fmt.Sprintf("Applied filters to %d dashboards", len(a.embedders)))
	return tea.Batch(cmds...)
}

func (a *App) chipCount() int { return len(a.defs) + 1 }

func (a *App) focusOnDate() bool { return a.focus >= len(a.defs) }

func (a *App) labelOf(name string) string {
	if d, ok := a.graph.Def(name); ok {
		return d.Label
	}
	return name
}

func (a *App) setStatus(s string) {
	a.status = s
	a.isErr = false
}

func (a *App) setError(s string) {
	a.status = s
	a.isErr = true
}
