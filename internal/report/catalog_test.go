package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/securecheck/internal/report"
)

func TestCatalog_Size(t *testing.T) {
	assert.Len(t, report.All(), 20)
	assert.Len(t, report.ByTier(report.TierMedium), 14)
	assert.Len(t, report.ByTier(report.TierComplex), 6)
	assert.Len(t, report.IDs(), 20, "ids must be unique")
}

// TestCatalog_DefinitionsAreConsistent verifies that every column a definition
// orders by or charts is one of the columns it declares.
func TestCatalog_DefinitionsAreConsistent(t *testing.T) {
	for _, d := range report.All() {
		t.Run(d.ID, func(t *testing.T) {
			require.NotEmpty(t, d.Label)
			require.NotEmpty(t, d.SQL)
			require.NotEmpty(t, d.Columns)

			cols := map[string]bool{}
			for _, c := range d.Columns {
				cols[c] = true
			}
			for _, k := range d.Order {
				assert.True(t, cols[k.Column], "order column %q not declared", k.Column)
			}
			assert.True(t, cols[d.Chart.Category], "chart category %q not declared", d.Chart.Category)
			require.NotEmpty(t, d.Chart.Values)
			for _, v := range d.Chart.Values {
				assert.True(t, cols[v], "chart value %q not declared", v)
			}
			if d.Chart.Color != "" {
				assert.True(t, cols[d.Chart.Color], "chart color %q not declared", d.Chart.Color)
			}
			if d.Chart.Facet != "" {
				assert.True(t, cols[d.Chart.Facet], "chart facet %q not declared", d.Chart.Facet)
			}
			for _, c := range d.Columns {
				assert.Contains(t, d.SQL, c)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	d, ok := report.Lookup("stops-by-hour")
	require.True(t, ok)
	assert.Equal(t, report.CategoryTime, d.Category)
	assert.Equal(t, []string{"hour", "total"}, d.Columns)

	_, ok = report.Lookup("no-such-report")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	defs := report.All()
	defs[0].ID = "mutated"

	_, ok := report.Lookup("mutated")
	assert.False(t, ok)
	assert.NotEqual(t, "mutated", report.All()[0].ID)
}

func TestParseTier(t *testing.T) {
	tier, ok := report.ParseTier("complex")
	assert.True(t, ok)
	assert.Equal(t, report.TierComplex, tier)

	_, ok = report.ParseTier("")
	assert.True(t, ok)

	_, ok = report.ParseTier("entry")
	assert.False(t, ok)
}

// TestCatalog_SQLUsesSharedTables verifies that the generated CASE expressions
// carry the same boundaries as the Go classifiers.
func TestCatalog_SQLUsesSharedTables(t *testing.T) {
	age, _ := report.Lookup("arrest-rate-by-age")
	assert.Contains(t, age.SQL, "WHEN driver_age BETWEEN 18 AND 25 THEN '18-25'")
	assert.Contains(t, age.SQL, "WHEN driver_age BETWEEN 46 AND 60 THEN '46-60'")
	assert.Contains(t, age.SQL, "ELSE '60+'")

	trend, _ := report.Lookup("violation-trends-age-race")
	assert.Contains(t, trend.SQL, "WHEN driver_age BETWEEN 26 AND 40 THEN '26-40'")

	dur, _ := report.Lookup("avg-duration-by-violation")
	assert.Contains(t, dur.SQL, "WHEN '0-15 min' THEN 7.5")
	assert.Contains(t, dur.SQL, "WHEN '16-30 min' THEN 23")
	assert.Contains(t, dur.SQL, "WHEN '30+ min' THEN 35")
	assert.Contains(t, dur.SQL, "ELSE 0")

	night, _ := report.Lookup("night-vs-day-arrests")
	assert.Contains(t, night.SQL, "EXTRACT(HOUR FROM stop_time) >= 20 OR EXTRACT(HOUR FROM stop_time) < 6 THEN 'Night'")

	ranked, _ := report.Lookup("ranked-violations")
	assert.Equal(t, 2, strings.Count(ranked.SQL, "DENSE_RANK()"))

	yearly, _ := report.Lookup("yearly-country-breakdown")
	assert.Contains(t, yearly.SQL, "OVER (PARTITION BY country ORDER BY year)")
}
