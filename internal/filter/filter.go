// Package filter narrows a set of stop records by declarative criteria and
// computes summary counts over the result. Everything here is a pure function
// of its inputs: criteria are request-scoped values, never package state.
package filter

import (
	"slices"
	"time"

	"github.com/pkordes/securecheck/internal/domain"
)

// All is the "no restriction" choice for the gender and drug filters.
const All = "All"

// TriState is a boolean filter that can also be switched off.
type TriState struct {
	Set   bool
	Value bool
}

// Any returns a TriState that matches both true and false.
func Any() TriState { return TriState{} }

// Only returns a TriState that matches v only.
func Only(v bool) TriState { return TriState{Set: true, Value: v} }

// String renders the state the way the filter form does: All, true or false.
func (t TriState) String() string {
	switch {
	case !t.Set:
		return All
	case t.Value:
		return "true"
	default:
		return "false"
	}
}

// Criteria is the set of filters applied to a record set.
// Start and End are inclusive calendar dates; their time-of-day is ignored.
// An empty Countries subset selects nothing.
type Criteria struct {
	Start        time.Time
	End          time.Time
	Gender       string
	Countries    []string
	Drugs        TriState
	ArrestedOnly bool
}

// DefaultCriteria returns the filter form's initial state: every record
// between 2020-01-01 and 2030-12-30, all genders, all countries.
func DefaultCriteria() Criteria {
	return Criteria{
		Start:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2030, 12, 30, 0, 0, 0, 0, time.UTC),
		Gender:    All,
		Countries: slices.Clone(domain.Countries),
		Drugs:     Any(),
	}
}

// Apply returns the records matching every criterion, in input order.
// The predicates are independent, so the result is the same whatever order
// they are checked in, and applying the same criteria again changes nothing.
// The returned slice is never nil.
func Apply(records []domain.StopRecord, c Criteria) []domain.StopRecord {
	start, end := dateOnly(c.Start), dateOnly(c.End)

	out := make([]domain.StopRecord, 0, len(records))
	for _, r := range records {
		if !matches(r, c, start, end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r domain.StopRecord, c Criteria, start, end time.Time) bool {
	d := dateOnly(r.StopDate)
	if d.Before(start) || d.After(end) {
		return false
	}
	if c.Gender != "" && c.Gender != All && r.DriverGender != c.Gender {
		return false
	}
	if !slices.Contains(c.Countries, r.Country) {
		return false
	}
	if c.Drugs.Set && r.DrugsRelatedStop != c.Drugs.Value {
		return false
	}
	if c.ArrestedOnly && !r.IsArrested {
		return false
	}
	return true
}

// dateOnly truncates t to midnight UTC of its calendar date so that
// comparisons ignore both time-of-day and location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary holds the headline counts shown above a filtered record list.
type Summary struct {
	Total     int
	Male      int
	Female    int
	Arrests   int
	DrugStops int
}

// Summarize counts records by gender, arrests and drug-related stops.
func Summarize(records []domain.StopRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.DriverGender {
		case "Male":
			s.Male++
		case "Female":
			s.Female++
		}
		if r.IsArrested {
			s.Arrests++
		}
		if r.DrugsRelatedStop {
			s.DrugStops++
		}
	}
	return s
}
