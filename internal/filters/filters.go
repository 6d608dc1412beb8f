// Package filters holds the filter bar's state: static filter definitions,
// the staged and active selections, and the cascading dependency rules that
// decide which filters are cleared and refetched when a selection changes.
package filters

import (
	"fmt"
	"slices"
	"sort"
)

// Kind is how a filter is presented and how many values it can hold.
type Kind string

const (
	SelectMulti Kind = "select_multi"
	ButtonGroup Kind = "button_group"
)

// ParseKind maps a config string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case SelectMulti, ButtonGroup:
		return Kind(s), nil
	case "":
		return SelectMulti, nil
	default:
		return "", fmt.Errorf("unknown filter kind %q: must be one of %s, %s", s, SelectMulti, ButtonGroup)
	}
}

// Def is a static filter definition.
type Def struct {
	Name      string
	Label     string
	Field     string
	Kind      Kind
	ListensTo []string
}

// SingleValued reports whether the filter holds at most one value.
func (d Def) SingleValued() bool { return d.Kind == ButtonGroup }

// Option is one choice offered by a filter.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Selection maps filter name to selected values. Filters with no values are
// absent from the map.
type Selection map[string][]string

// Values returns a copy of the values selected for name.
func (s Selection) Values(name string) []string {
	return slices.Clone(s[name])
}

// Has reports whether name has at least one selected value.
func (s Selection) Has(name string) bool { return len(s[name]) > 0 }

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		if len(v) == 0 {
			continue
		}
		out[k] = slices.Clone(v)
	}
	return out
}

// Equal compares two selections as sets of values per filter.
func (s Selection) Equal(other Selection) bool {
	names := map[string]struct{}{}
	for k, v := range s {
		if len(v) > 0 {
			names[k] = struct{}{}
		}
	}
	for k, v := range other {
		if len(v) > 0 {
			names[k] = struct{}{}
		}
	}
	for name := range names {
		if !sameValues(s[name], other[name]) {
			return false
		}
	}
	return true
}

// Names returns the filters with values, sorted.
func (s Selection) Names() []string {
	out := make([]string, 0, len(s))
	for k, v := range s {
		if len(v) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (s Selection) set(name string, values []string) {
	if len(values) == 0 {
		delete(s, name)
		return
	}
	s[name] = values
}

// normalizeValues drops empty strings and duplicates, keeping first-seen order.
func normalizeValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return len(removed(a, b)) == 0
}

// removed returns values present in before but not in after.
func removed(before, after []string) []string {
	keep := make(map[string]struct{}, len(after))
	for _, v := range after {
		keep[v] = struct{}{}
	}
	var out []string
	for _, v := range before {
		if _, ok := keep[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
