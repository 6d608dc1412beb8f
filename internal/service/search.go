package service

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/dashtabs/internal/filters"
)

// RankOptions narrows options to those matching term. Substring matches come
// first in their original order, followed by near misses ordered by edit
// distance. An empty term returns options unchanged.
func RankOptions(options []filters.Option, term string) []filters.Option {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return options
	}
	var exact []filters.Option
	type near struct {
		opt  filters.Option
		dist int
		idx  int
	}
	var fuzzy []near
	threshold := max(1, len(term)/3)
	for i, o := range options {
		label := strings.ToLower(o.Label)
		if strings.Contains(label, term) {
			exact = append(exact, o)
			continue
		}
		if d := prefixDistance(label, term); d <= threshold {
			fuzzy = append(fuzzy, near{opt: o, dist: d, idx: i})
		}
	}
	sort.SliceStable(fuzzy, func(i, j int) bool {
		if fuzzy[i].dist != fuzzy[j].dist {
			return fuzzy[i].dist < fuzzy[j].dist
		}
		return fuzzy[i].idx < fuzzy[j].idx
	})
	out := make([]filters.Option, 0, len(exact)+len(fuzzy))
	out = append(out, exact...)
	for _, n := range fuzzy {
		out = append(out, n.opt)
	}
	return out
}

// prefixDistance compares term with the label's leading runes so a typo in a
// partially typed word still matches.
func prefixDistance(label, term string) int {
	lr := []rune(label)
	tr := []rune(term)
	if len(lr) > len(tr) {
		lr = lr[:len(tr)]
	}
	return levenshtein.ComputeDistance(string(lr), term)
}
