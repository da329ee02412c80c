// Package domain contains the core data types for the SecureCheck application.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used on the wire and in exports.
const DateLayout = "2006-01-02"

// Columns lists the police_stops columns in schema order.
// CSV exports use it verbatim as their header row.
var Columns = []string{
	"vehicle_number", "country", "stop_date", "stop_time",
	"driver_gender", "driver_age", "driver_race", "violation",
	"search_conducted", "search_type", "stop_outcome",
	"is_arrested", "drugs_related_stop", "stop_duration",
}

// Allowed values for the enumerated StopRecord fields.
var (
	Countries   = []string{"India", "USA", "Canada"}
	Genders     = []string{"Male", "Female"}
	Races       = []string{"Asian", "White", "Black", "Hispanic", "Other"}
	Violations  = []string{"Speeding", "Other", "DUI", "Seatbelt", "Signal"}
	SearchTypes = []string{"Vehicle Search", "No Search", "Frisk", "Unknown"}
	Durations   = []string{"0-15 min", "16-30 min", "30+ min"}
)

// Outcomes the store is known to record. stop_outcome is open-ended, so this
// list is informational only.
const (
	OutcomeTicket  = "Ticket"
	OutcomeArrest  = "Arrest"
	OutcomeWarning = "Warning"
)

// StopRecord is one traffic-stop event, one row of police_stops.
// (VehicleNumber, StopDate, StopTime) is the natural lookup key; it is not
// declared unique.
type StopRecord struct {
	VehicleNumber    string
	Country          string
	StopDate         time.Time
	StopTime         TimeOfDay
	DriverGender     string
	DriverAge        int
	DriverRace       string
	Violation        string
	SearchConducted  bool
	SearchType       string
	StopOutcome      string
	IsArrested       bool
	DrugsRelatedStop bool
	StopDuration     string
}

// NewStop carries the form fields for a new record. The outcome is not part of
// the form; it is predicted from history at insert time.
type NewStop struct {
	VehicleNumber    string
	Country          string
	StopDate         time.Time
	StopTime         TimeOfDay
	DriverGender     string
	DriverAge        int
	DriverRace       string
	Violation        string
	SearchConducted  bool
	SearchType       string
	IsArrested       bool
	DrugsRelatedStop bool
	StopDuration     string
}

// Record builds the StopRecord that will be persisted for n with the given outcome.
func (n NewStop) Record(outcome string) StopRecord {
	return StopRecord{
		VehicleNumber:    n.VehicleNumber,
		Country:          n.Country,
		StopDate:         n.StopDate,
		StopTime:         n.StopTime,
		DriverGender:     n.DriverGender,
		DriverAge:        n.DriverAge,
		DriverRace:       n.DriverRace,
		Violation:        n.Violation,
		SearchConducted:  n.SearchConducted,
		SearchType:       n.SearchType,
		StopOutcome:      outcome,
		IsArrested:       n.IsArrested,
		DrugsRelatedStop: n.DrugsRelatedStop,
		StopDuration:     n.StopDuration,
	}
}

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: invalid time of day %q", ErrValidation, s)
}

// TimeOfDayFromDuration converts an offset since midnight, as stored in a
// TIME column, to a TimeOfDay. Sub-second precision is dropped.
func TimeOfDayFromDuration(d time.Duration) TimeOfDay {
	secs := int(d / time.Second)
	return TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}
}

// String returns the fixed HH:MM:SS storage form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Display returns the 12-hour form used in confirmation text, e.g. "3.05 PM".
func (t TimeOfDay) Display() string {
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d.%02d %s", h, t.Minute, suffix)
}

// MarshalText implements encoding.TextMarshaler so TimeOfDay encodes as "HH:MM:SS".
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Values returns the record's fields as strings in Columns order.
// Booleans are rendered as 1/0, the same way they are persisted.
func (r StopRecord) Values() []string {
	return []string{
		r.VehicleNumber,
		r.Country,
		r.StopDate.Format(DateLayout),
		r.StopTime.String(),
		r.DriverGender,
		fmt.Sprintf("%d", r.DriverAge),
		r.DriverRace,
		r.Violation,
		BoolFlag(r.SearchConducted),
		r.SearchType,
		r.StopOutcome,
		BoolFlag(r.IsArrested),
		BoolFlag(r.DrugsRelatedStop),
		r.StopDuration,
	}
}

// BoolFlag renders b the way boolean columns are stored: "1" or "0".
func BoolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
