// Package daterange models the date-range picker: a small set of relative
// presets plus an inclusive custom range, each with a filter expression that
// is pushed to dashboards and parsed back by query runners.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

// Preset identifies a date range choice.
type Preset string

const (
	Today      Preset = "today"
	Last7Days  Preset = "last_7_days"
	Last30Days Preset = "last_30_days"
	Last90Days Preset = "last_90_days"
	ThisMonth  Preset = "this_month"
	LastMonth  Preset = "last_month"
	YearToDate Preset = "year_to_date"
	Custom     Preset = "custom"
)

// DefaultPreset is the range restored by a filter reset.
const DefaultPreset = Last7Days

const dayLayout = "2006-01-02"

// exprLayout is the date format used inside filter expressions.
const exprLayout = "2006/01/02"

// Presets lists the choices offered by the picker, in display order.
var Presets = []Preset{Today, Last7Days, Last30Days, Last90Days, ThisMonth, LastMonth, YearToDate, Custom}

var presetLabels = map[Preset]string{
	Today:      "Today",
	Last7Days:  "Last 7 days",
	Last30Days: "Last 30 days",
	Last90Days: "Last 90 days",
	ThisMonth:  "This month",
	LastMonth:  "Last month",
	YearToDate: "Year to date",
	Custom:     "Custom",
}

var presetExprs = map[Preset]string{
	Today:      "today",
	Last7Days:  "7 days",
	Last30Days: "30 days",
	Last90Days: "90 days",
	ThisMonth:  "this month",
	LastMonth:  "last month",
	YearToDate: "this year to second",
}

// Range is a preset, or an inclusive custom day range when Preset is Custom.
type Range struct {
	Preset Preset
	Start  time.Time
	End    time.Time
}

// Default returns the last-7-days range.
func Default() Range { return Range{Preset: DefaultPreset} }

// Of returns a relative range for p. Custom yields an empty custom range.
func Of(p Preset) Range { return Range{Preset: p} }

// NewCustom builds an inclusive day range from two YYYY-MM-DD strings.
func NewCustom(start, end string) (Range, error) {
	s, err := time.ParseInLocation(dayLayout, strings.TrimSpace(start), time.Local)
	if err != nil {
		return Range{}, fmt.Errorf("start date %q: expected YYYY-MM-DD", start)
	}
	e, err := time.ParseInLocation(dayLayout, strings.TrimSpace(end), time.Local)
	if err != nil {
		return Range{}, fmt.Errorf("end date %q: expected YYYY-MM-DD", end)
	}
	if e.Before(s) {
		return Range{}, fmt.Errorf("end date %s is before start date %s", e.Format(dayLayout), s.Format(dayLayout))
	}
	return Range{Preset: Custom, Start: s, End: e}, nil
}

// ParsePreset validates a config value.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.TrimSpace(s))
	if _, ok := presetLabels[p]; !ok || p == Custom {
		return "", fmt.Errorf("unknown date preset %q", s)
	}
	return p, nil
}

// Label is the picker chip text.
func (r Range) Label() string {
	if r.Preset == Custom {
		if r.Start.IsZero() || r.End.IsZero() {
			return presetLabels[Custom]
		}
		return r.Start.Format(dayLayout) + " - " + r.End.Format(dayLayout)
	}
	if l, ok := presetLabels[r.Preset]; ok {
		return l
	}
	return presetLabels[DefaultPreset]
}

// Label returns the display text for p.
func (p Preset) Label() string { return presetLabels[p] }

// Expression renders the range as a dashboard filter value.
func (r Range) Expression() string {
	if r.Preset == Custom {
		if r.Start.IsZero() || r.End.IsZero() {
			return ""
		}
		// "to" is exclusive in expressions; custom ranges are inclusive.
		return r.Start.Format(exprLayout) + " to " + r.End.AddDate(0, 0, 1).Format(exprLayout)
	}
	return presetExprs[r.Preset]
}

// Equal compares presets and, for custom ranges, the days.
func (r Range) Equal(o Range) bool {
	if r.Preset != o.Preset {
		return false
	}
	if r.Preset != Custom {
		return true
	}
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// Bounds returns the half-open interval [start, end) the range covers at now.
// ok is false for an incomplete custom range.
func (r Range) Bounds(now time.Time) (start, end time.Time, ok bool) {
	loc := now.Location()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrow := dayStart.AddDate(0, 0, 1)
	switch r.Preset {
	case Today:
		return dayStart, tomorrow, true
	case Last7Days:
		return dayStart.AddDate(0, 0, -6), tomorrow, true
	case Last30Days:
		return dayStart.AddDate(0, 0, -29), tomorrow, true
	case Last90Days:
		return dayStart.AddDate(0, 0, -89), tomorrow, true
	case ThisMonth:
		s := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return s, s.AddDate(0, 1, 0), true
	case LastMonth:
		e := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return e.AddDate(0, -1, 0), e, true
	case YearToDate:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), tomorrow, true
	case Custom:
		if r.Start.IsZero() || r.End.IsZero() {
			return time.Time{}, time.Time{}, false
		}
		s := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
		e := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, loc)
		return s, e.AddDate(0, 0, 1), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Parse is the inverse of Expression.
func Parse(expr string) (Range, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	for p, e := range presetExprs {
		if e == expr {
			return Range{Preset: p}, nil
		}
	}
	from, to, found := strings.Cut(expr, " to ")
	if !found {
		return Range{}, fmt.Errorf("unrecognized date expression %q", expr)
	}
	s, err := time.ParseInLocation(exprLayout, strings.TrimSpace(from), time.Local)
	if err != nil {
		return Range{}, fmt.Errorf("date expression %q: %w", expr, err)
	}
	e, err := time.ParseInLocation(exprLayout, strings.TrimSpace(to), time.Local)
	if err != nil {
		return Range{}, fmt.Errorf("date expression %q: %w", expr, err)
	}
	if !e.After(s) {
		return Range{}, fmt.Errorf("date expression %q: empty range", expr)
	}
	return Range{Preset: Custom, Start: s, End: e.AddDate(0, 0, -1)}, nil
}
