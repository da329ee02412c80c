package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Bucket is an inclusive age range with its display label.
type Bucket struct {
	Label string
	Min   int
	Max   int
}

// Buckets classifies ages into labelled ranges. Ages that fall in no range get
// Else, exactly like the ELSE branch of the generated CASE expression.
type Buckets struct {
	Ranges []Bucket
	Else   string
}

// AgeBuckets are the driver age groups of the arrest-rate report.
var AgeBuckets = Buckets{
	Ranges: []Bucket{
		{Label: "18-25", Min: 18, Max: 25},
		{Label: "26-35", Min: 26, Max: 35},
		{Label: "36-45", Min: 36, Max: 45},
		{Label: "46-60", Min: 46, Max: 60},
	},
	Else: "60+",
}

// TrendAgeBuckets are the coarser age groups of the violation-trend report.
var TrendAgeBuckets = Buckets{
	Ranges: []Bucket{
		{Label: "18-25", Min: 18, Max: 25},
		{Label: "26-40", Min: 26, Max: 40},
		{Label: "41-60", Min: 41, Max: 60},
	},
	Else: "60+",
}

// label returns the bucket label for age. It mirrors CaseSQL for tests.
func (b Buckets) label(age int) string {
	for _, r := range b.Ranges {
		if age >= r.Min && age <= r.Max {
			return r.Label
		}
	}
	return b.Else
}

// CaseSQL renders the buckets as a SQL CASE expression over column.
func (b Buckets) CaseSQL(column string) string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, r := range b.Ranges {
		fmt.Fprintf(&sb, "\n\t\t\tWHEN %s BETWEEN %d AND %d THEN '%s'", column, r.Min, r.Max, r.Label)
	}
	fmt.Fprintf(&sb, "\n\t\t\tELSE '%s'\n\t\tEND", b.Else)
	return sb.String()
}

// DurationWeight maps a stop_duration label to the minutes it counts for when
// averaging durations.
type DurationWeight struct {
	Label   string
	Minutes float64
}

// DurationWeights is the fixed minute mapping. Unlisted labels count as 0.
var DurationWeights = []DurationWeight{
	{Label: "0-15 min", Minutes: 7.5},
	{Label: "16-30 min", Minutes: 23},
	{Label: "30+ min", Minutes: 35},
}

// durationMinutes returns the minutes a stop_duration label contributes to an
// average, or 0 for an unmapped label.
func durationMinutes(label string) float64 {
	for _, w := range DurationWeights {
		if w.Label == label {
			return w.Minutes
		}
	}
	return 0
}

func durationCaseSQL(column string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CASE %s", column)
	for _, w := range DurationWeights {
		fmt.Fprintf(&sb, "\n\t\t\t\tWHEN '%s' THEN %s", w.Label, strconv.FormatFloat(w.Minutes, 'f', -1, 64))
	}
	sb.WriteString("\n\t\t\t\tELSE 0\n\t\t\tEND")
	return sb.String()
}

// Night runs from NightStartHour through the hour before DayStartHour.
const (
	NightStartHour = 20
	DayStartHour   = 6
)

// Time period labels.
const (
	PeriodDay   = "Day"
	PeriodNight = "Night"
)

// timePeriod classifies an hour of the day (0-23) as Day or Night.
func timePeriod(hour int) string {
	if hour >= NightStartHour || hour < DayStartHour {
		return PeriodNight
	}
	return PeriodDay
}

func periodCaseSQL(column string) string {
	hour := fmt.Sprintf("EXTRACT(HOUR FROM %s)", column)
	return fmt.Sprintf("CASE\n\t\t\tWHEN %s >= %d OR %s < %d THEN '%s'\n\t\t\tELSE '%s'\n\t\tEND",
		hour, NightStartHour, hour, DayStartHour, PeriodNight, PeriodDay)
}
