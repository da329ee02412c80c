package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgeBuckets_Label(t *testing.T) {
	cases := map[int]string{
		18: "18-25",
		25: "18-25",
		26: "26-35",
		35: "26-35",
		36: "36-45",
		45: "36-45",
		46: "46-60",
		60: "46-60",
		61: "60+",
		99: "60+",
		// Under-18 ages fall through to the ELSE branch, as in the SQL.
		17: "60+",
	}
	for age, want := range cases {
		assert.Equal(t, want, AgeBuckets.label(age), "age %d", age)
	}
}

func TestTrendAgeBuckets_Label(t *testing.T) {
	assert.Equal(t, "18-25", TrendAgeBuckets.label(25))
	assert.Equal(t, "26-40", TrendAgeBuckets.label(26))
	assert.Equal(t, "26-40", TrendAgeBuckets.label(40))
	assert.Equal(t, "41-60", TrendAgeBuckets.label(41))
	assert.Equal(t, "60+", TrendAgeBuckets.label(61))
}

// TestBuckets_DisjointCoverage verifies that no age from 18 upward matches more
// than one range, so a record is never double counted.
func TestBuckets_DisjointCoverage(t *testing.T) {
	for _, b := range []Buckets{AgeBuckets, TrendAgeBuckets} {
		for age := 18; age <= 120; age++ {
			matches := 0
			for _, r := range b.Ranges {
				if age >= r.Min && age <= r.Max {
					matches++
				}
			}
			assert.LessOrEqual(t, matches, 1, "age %d matches %d ranges", age, matches)
			if matches == 0 {
				assert.Equal(t, b.Else, b.label(age))
			}
		}
	}
}

func TestTimePeriod(t *testing.T) {
	assert.Equal(t, PeriodDay, timePeriod(19))
	assert.Equal(t, PeriodNight, timePeriod(20))
	assert.Equal(t, PeriodNight, timePeriod(23))
	assert.Equal(t, PeriodNight, timePeriod(0))
	assert.Equal(t, PeriodNight, timePeriod(5))
	assert.Equal(t, PeriodDay, timePeriod(6))
	assert.Equal(t, PeriodDay, timePeriod(12))
}

func TestDurationMinutes(t *testing.T) {
	assert.Equal(t, 7.5, durationMinutes("0-15 min"))
	assert.Equal(t, 23.0, durationMinutes("16-30 min"))
	assert.Equal(t, 35.0, durationMinutes("30+ min"))
	assert.Equal(t, 0.0, durationMinutes("45 min"))
	assert.Equal(t, 0.0, durationMinutes(""))
}
