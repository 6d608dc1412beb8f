package filters

import (
	"strings"

	"github.com/jask/dashtabs/internal/daterange"
)

// Store keeps the staged selection the user is editing and the active one
// applied to dashboards. It is owned by a single update loop and is not safe
// for concurrent use.
type Store struct {
	prop        *Propagator
	staged      Selection
	active      Selection
	stagedRange daterange.Range
	activeRange daterange.Range
}

// NewStore starts with empty selections and the default date range.
func NewStore(p *Propagator) *Store {
	return &Store{
		prop:        p,
		staged:      Selection{},
		active:      Selection{},
		stagedRange: daterange.Default(),
		activeRange: daterange.Default(),
	}
}

// Propagator returns the rule set the store stages through.
func (s *Store) Propagator() *Propagator { return s.prop }

// Staged returns a copy of the staged selection.
func (s *Store) Staged() Selection { return s.staged.Clone() }

// Active returns a copy of the active selection.
func (s *Store) Active() Selection { return s.active.Clone() }

func (s *Store) StagedRange() daterange.Range { return s.stagedRange }
func (s *Store) ActiveRange() daterange.Range { return s.activeRange }

// Stage replaces the staged values of name and propagates to dependents.
func (s *Store) Stage(name string, values []string) Plan {
	return s.prop.Propagate(s.staged, name, values)
}

// Toggle adds or removes one value. Button groups hold a single value, so
// toggling a new value replaces the current one.
func (s *Store) Toggle(name, value string) Plan {
	def, ok := s.prop.Graph().Def(name)
	if !ok || value == "" {
		return Plan{}
	}
	current := s.staged[name]
	selected := false
	for _, v := range current {
		if v == value {
			selected = true
			break
		}
	}
	var next []string
	switch {
	case selected:
		for _, v := range current {
			if v != value {
				next = append(next, v)
			}
		}
	case def.SingleValued():
		next = []string{value}
	default:
		next = append(append(next, current...), value)
	}
	return s.Stage(name, next)
}

// Clear removes every staged value of name.
func (s *Store) Clear(name string) Plan { return s.Stage(name, nil) }

// SetRange stages a date range.
func (s *Store) SetRange(r daterange.Range) { s.stagedRange = r }

// Dirty reports whether staged differs from active.
func (s *Store) Dirty() bool {
	return !s.staged.Equal(s.active) || !s.stagedRange.Equal(s.activeRange)
}

// Apply commits staged to active and reports whether active changed.
func (s *Store) Apply() bool {
	if !s.Dirty() {
		return false
	}
	s.active = s.staged.Clone()
	s.activeRange = s.stagedRange
	return true
}

// Reset empties the staged selection and restores the default date range.
// The plan refetches every filter that has parents, now unscoped.
func (s *Store) Reset() Plan {
	plan := Plan{Changed: len(s.staged) > 0 || !s.stagedRange.Equal(daterange.Default())}
	plan.Cleared = s.staged.Names()
	s.staged = Selection{}
	s.stagedRange = daterange.Default()
	for _, d := range s.prop.Graph().Defs() {
		if s.prop.Graph().HasParents(d.Name) {
			plan.Refetch = append(plan.Refetch, s.prop.Request(s.staged, d.Name))
		}
	}
	return plan
}

// DashboardFilters renders the active state as the name -> value map pushed
// to embedded dashboards. Multi-values are comma-joined with carets escaping
// literal commas.
func (s *Store) DashboardFilters(dateFilter string) map[string]string {
	out := make(map[string]string, len(s.active)+1)
	for name, values := range s.active {
		if len(values) == 0 {
			continue
		}
		out[name] = JoinValues(values)
	}
	if dateFilter != "" {
		if expr := s.activeRange.Expression(); expr != "" {
			out[dateFilter] = expr
		}
	}
	return out
}

// JoinValues comma-joins values, escaping commas and carets with a caret.
func JoinValues(values []string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ReplaceAll(v, "^", "^^")
		v = strings.ReplaceAll(v, ",", "^,")
		escaped = append(escaped, v)
	}
	return strings.Join(escaped, ",")
}

// SplitValues is the inverse of JoinValues. Values are kept byte for byte;
// only empty entries are dropped.
func SplitValues(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if v := cur.String(); v != "" {
			out = append(out, v)
		}
		cur.Reset()
	}
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '^':
			escaped = true
		case r == ',':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
