// Package report holds the static catalog of analytical queries over
// police_stops. Each Definition pairs one literal aggregate statement with the
// columns it yields, the ordering it guarantees, and a chart encoding hint for
// whatever renders the result. The catalog is built once at package init and
// never mutated.
package report

import (
	"fmt"
	"sort"
)

// Tier groups reports by analytical depth.
type Tier string

const (
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// Category is the analysis area a report belongs to.
type Category string

const (
	CategoryVehicle     Category = "vehicle"
	CategoryDemographic Category = "demographic"
	CategoryTime        Category = "time"
	CategoryViolation   Category = "violation"
	CategoryLocation    Category = "location"
	CategoryComplex     Category = "complex"
)

// Chart is a rendering hint. Category is the grouping column on the category
// axis; Values are the rate/count columns on the value axis. Color and Facet
// name a second and third grouping column when the report has them.
type Chart struct {
	Title      string
	Category   string
	Values     []string
	Color      string
	Facet      string
	Horizontal bool
	Grouped    bool
}

// OrderKey is one column of a report's stated ordering.
type OrderKey struct {
	Column string
	Desc   bool
}

// Definition is one catalog entry.
type Definition struct {
	ID       string
	Label    string
	Tier     Tier
	Category Category
	SQL      string
	Columns  []string
	Order    []OrderKey
	Chart    Chart
}

func asc(col string) OrderKey  { return OrderKey{Column: col} }
func desc(col string) OrderKey { return OrderKey{Column: col, Desc: true} }

var definitions = []Definition{
	// ---- Vehicle ------------------------------------------------------------
	{
		ID:       "top-drug-vehicles",
		Label:    "Top 10 vehicles involved in drug-related stops",
		Tier:     TierMedium,
		Category: CategoryVehicle,
		SQL: `
		SELECT vehicle_number, COUNT(*) AS stops
		FROM police_stops
		WHERE drugs_related_stop = 1
		GROUP BY vehicle_number
		ORDER BY stops DESC
		LIMIT 10`,
		Columns: []string{"vehicle_number", "stops"},
		Order:   []OrderKey{desc("stops")},
		Chart: Chart{
			Title: "Top 10 Vehicles in Drug-Related Stops", Category: "vehicle_number",
			Values: []string{"stops"}, Horizontal: true,
		},
	},
	{
		ID:       "most-searched-vehicles",
		Label:    "Most frequently searched vehicles",
		Tier:     TierMedium,
		Category: CategoryVehicle,
		SQL: `
		SELECT vehicle_number, COUNT(*) AS searches
		FROM police_stops
		WHERE search_conducted = 1
		GROUP BY vehicle_number
		ORDER BY searches DESC
		LIMIT 10`,
		Columns: []string{"vehicle_number", "searches"},
		Order:   []OrderKey{desc("searches")},
		Chart: Chart{
			Title: "Most Frequently Searched Vehicles", Category: "vehicle_number",
			Values: []string{"searches"}, Horizontal: true,
		},
	},

	// ---- Demographic --------------------------------------------------------
	{
		ID:       "arrest-rate-by-age",
		Label:    "Driver age group with highest arrest rate",
		Tier:     TierMedium,
		Category: CategoryDemographic,
		SQL: fmt.Sprintf(`
		SELECT
		%s AS age_group,
		AVG(is_arrested) * 100 AS arrest_rate
		FROM police_stops
		GROUP BY age_group
		ORDER BY arrest_rate DESC`, AgeBuckets.CaseSQL("driver_age")),
		Columns: []string{"age_group", "arrest_rate"},
		Order:   []OrderKey{desc("arrest_rate")},
		Chart: Chart{
			Title: "Arrest Rate by Driver Age (%)", Category: "age_group",
			Values: []string{"arrest_rate"}, Color: "age_group",
		},
	},
	{
		ID:       "gender-by-country",
		Label:    "Gender distribution of drivers stopped in each country",
		Tier:     TierMedium,
		Category: CategoryDemographic,
		SQL: `
		SELECT country, driver_gender, COUNT(*) AS total
		FROM police_stops
		GROUP BY country, driver_gender
		ORDER BY country, driver_gender`,
		Columns: []string{"country", "driver_gender", "total"},
		Order:   []OrderKey{asc("country"), asc("driver_gender")},
		Chart: Chart{
			Title: "Gender Distribution by Country", Category: "country",
			Values: []string{"total"}, Color: "driver_gender", Grouped: true,
		},
	},
	{
		ID:       "search-rate-by-race-gender",
		Label:    "Race and gender combination with highest search rate",
		Tier:     TierMedium,
		Category: CategoryDemographic,
		SQL: `
		SELECT driver_race, driver_gender, AVG(search_conducted) * 100 AS search_rate
		FROM police_stops
		GROUP BY driver_race, driver_gender
		ORDER BY search_rate DESC`,
		Columns: []string{"driver_race", "driver_gender", "search_rate"},
		Order:   []OrderKey{desc("search_rate")},
		Chart: Chart{
			Title: "Race & Gender Search Rates (%)", Category: "driver_race",
			Values: []string{"search_rate"}, Color: "driver_gender", Horizontal: true,
		},
	},

	// ---- Time & duration ----------------------------------------------------
	{
		ID:       "stops-by-hour",
		Label:    "Time of day with most traffic stops",
		Tier:     TierMedium,
		Category: CategoryTime,
		SQL: `
		SELECT EXTRACT(HOUR FROM stop_time)::int AS hour, COUNT(*) AS total
		FROM police_stops
		GROUP BY hour
		ORDER BY hour`,
		Columns: []string{"hour", "total"},
		Order:   []OrderKey{asc("hour")},
		Chart: Chart{
			Title: "Stops by Hour of Day", Category: "hour", Values: []string{"total"},
		},
	},
	{
		ID:       "avg-duration-by-violation",
		Label:    "Average stop duration for different violations",
		Tier:     TierMedium,
		Category: CategoryTime,
		SQL: fmt.Sprintf(`
		SELECT violation,
		ROUND(AVG(
			%s
		), 2) AS avg_duration
		FROM police_stops
		GROUP BY violation
		ORDER BY avg_duration DESC`, durationCaseSQL("stop_duration")),
		Columns: []string{"violation", "avg_duration"},
		Order:   []OrderKey{desc("avg_duration")},
		Chart: Chart{
			Title: "Average Stop Duration by Violation (minutes)", Category: "violation",
			Values: []string{"avg_duration"},
		},
	},
	{
		ID:       "night-vs-day-arrests",
		Label:    "Are night stops more likely to lead to arrests?",
		Tier:     TierMedium,
		Category: CategoryTime,
		SQL: fmt.Sprintf(`
		SELECT
		%s AS time_period,
		ROUND(AVG(is_arrested) * 100, 2) AS arrest_rate
		FROM police_stops
		GROUP BY time_period
		ORDER BY time_period`, periodCaseSQL("stop_time")),
		Columns: []string{"time_period", "arrest_rate"},
		Order:   []OrderKey{asc("time_period")},
		Chart: Chart{
			Title: "Arrest Rate Day vs Night (%)", Category: "time_period",
			Values: []string{"arrest_rate"},
		},
	},

	// ---- Violation ----------------------------------------------------------
	{
		ID:       "violation-search-arrest-rates",
		Label:    "Violations most associated with searches or arrests",
		Tier:     TierMedium,
		Category: CategoryViolation,
		SQL: `
		SELECT violation,
		AVG(search_conducted) * 100 AS search_rate,
		AVG(is_arrested) * 100 AS arrest_rate
		FROM police_stops
		GROUP BY violation
		ORDER BY search_rate DESC`,
		Columns: []string{"violation", "search_rate", "arrest_rate"},
		Order:   []OrderKey{desc("search_rate")},
		Chart: Chart{
			Title: "Violations with Highest Search Rate (%)", Category: "violation",
			Values: []string{"search_rate"},
		},
	},
	{
		ID:       "young-driver-violations",
		Label:    "Violations most common among younger drivers (<25)",
		Tier:     TierMedium,
		Category: CategoryViolation,
		SQL: `
		SELECT violation, COUNT(*) AS total
		FROM police_stops
		WHERE driver_age < 25
		GROUP BY violation
		ORDER BY total DESC`,
		Columns: []string{"violation", "total"},
		Order:   []OrderKey{desc("total")},
		Chart: Chart{
			Title: "Violations by Drivers Under 25", Category: "violation",
			Values: []string{"total"},
		},
	},
	{
		ID:       "low-risk-violations",
		Label:    "Violations that rarely result in search or arrest",
		Tier:     TierMedium,
		Category: CategoryViolation,
		SQL: `
		SELECT violation,
		AVG(search_conducted) * 100 AS search_rate,
		AVG(is_arrested) * 100 AS arrest_rate
		FROM police_stops
		GROUP BY violation
		ORDER BY search_rate ASC, arrest_rate ASC`,
		Columns: []string{"violation", "search_rate", "arrest_rate"},
		Order:   []OrderKey{asc("search_rate"), asc("arrest_rate")},
		Chart: Chart{
			Title: "Violations with Lowest Search/Arrest Rates (%)", Category: "violation",
			Values: []string{"search_rate", "arrest_rate"}, Grouped: true,
		},
	},

	// ---- Location -----------------------------------------------------------
	{
		ID:       "drug-rate-by-country",
		Label:    "Countries reporting highest rate of drug-related stops",
		Tier:     TierMedium,
		Category: CategoryLocation,
		SQL: `
		SELECT country, AVG(drugs_related_stop) * 100 AS drug_rate
		FROM police_stops
		GROUP BY country
		ORDER BY drug_rate DESC`,
		Columns: []string{"country", "drug_rate"},
		Order:   []OrderKey{desc("drug_rate")},
		Chart: Chart{
			Title: "Drug-Related Stop Rate by Country (%)", Category: "country",
			Values: []string{"drug_rate"},
		},
	},
	{
		ID:       "arrest-rate-by-country-violation",
		Label:    "Arrest rate by country and violation",
		Tier:     TierMedium,
		Category: CategoryLocation,
		SQL: `
		SELECT country, violation, AVG(is_arrested) * 100 AS arrest_rate
		FROM police_stops
		GROUP BY country, violation
		ORDER BY arrest_rate DESC`,
		Columns: []string{"country", "violation", "arrest_rate"},
		Order:   []OrderKey{desc("arrest_rate")},
		Chart: Chart{
			Title: "Arrest Rate by Country & Violation (%)", Category: "violation",
			Values: []string{"arrest_rate"}, Color: "country", Horizontal: true,
		},
	},
	{
		ID:       "searches-by-country",
		Label:    "Country with the most stops with search conducted",
		Tier:     TierMedium,
		Category: CategoryLocation,
		SQL: `
		SELECT country, COUNT(*) AS searches
		FROM police_stops
		WHERE search_conducted = 1
		GROUP BY country
		ORDER BY searches DESC`,
		Columns: []string{"country", "searches"},
		Order:   []OrderKey{desc("searches")},
		Chart: Chart{
			Title: "Searches by Country", Category: "country", Values: []string{"searches"},
		},
	},

	// ---- Complex ------------------------------------------------------------
	{
		ID:       "yearly-country-breakdown",
		Label:    "Yearly breakdown of stops and arrests by country",
		Tier:     TierComplex,
		Category: CategoryComplex,
		SQL: `
		SELECT country, year, total_stops, total_arrests,
		AVG(total_stops) OVER (PARTITION BY country ORDER BY year) AS running_avg_stops,
		AVG(total_arrests) OVER (PARTITION BY country ORDER BY year) AS running_avg_arrests
		FROM (
			SELECT country,
			EXTRACT(YEAR FROM stop_date)::int AS year,
			COUNT(*) AS total_stops,
			SUM(is_arrested) AS total_arrests
			FROM police_stops
			GROUP BY country, EXTRACT(YEAR FROM stop_date)
		) AS year_wise_data
		ORDER BY country, year`,
		Columns: []string{"country", "year", "total_stops", "total_arrests", "running_avg_stops", "running_avg_arrests"},
		Order:   []OrderKey{asc("country"), asc("year")},
		Chart: Chart{
			Title: "Yearly Arrests by Country", Category: "year",
			Values: []string{"total_arrests"}, Color: "country", Grouped: true,
		},
	},
	{
		ID:       "violation-trends-age-race",
		Label:    "Driver violation trends by age and race",
		Tier:     TierComplex,
		Category: CategoryComplex,
		SQL: fmt.Sprintf(`
		SELECT
		driver_race,
		%s AS age_group,
		violation,
		COUNT(*) AS violation_count
		FROM police_stops
		GROUP BY driver_race, age_group, violation
		ORDER BY driver_race, age_group`, TrendAgeBuckets.CaseSQL("driver_age")),
		Columns: []string{"driver_race", "age_group", "violation", "violation_count"},
		Order:   []OrderKey{asc("driver_race"), asc("age_group")},
		Chart: Chart{
			Title: "Driver Violation Trends by Age Group and Race", Category: "violation",
			Values: []string{"violation_count"}, Color: "age_group", Facet: "driver_race",
		},
	},
	{
		ID:       "stops-by-period",
		Label:    "Time period analysis of stops (year/month/hour)",
		Tier:     TierComplex,
		Category: CategoryComplex,
		SQL: `
		SELECT
		EXTRACT(YEAR FROM stop_date)::int AS year,
		EXTRACT(MONTH FROM stop_date)::int AS month,
		EXTRACT(HOUR FROM stop_time)::int AS hour,
		COUNT(*) AS total_stops
		FROM police_stops
		GROUP BY year, month, hour
		ORDER BY year, month, hour`,
		Columns: []string{"year", "month", "hour", "total_stops"},
		Order:   []OrderKey{asc("year"), asc("month"), asc("hour")},
		Chart: Chart{
			Title: "Time Period Analysis of Stops (Year/Month/Hour)", Category: "hour",
			Values: []string{"total_stops"}, Color: "month", Facet: "year",
		},
	},
	{
		ID:       "ranked-violations",
		Label:    "Violations with high search and arrest rates (ranked)",
		Tier:     TierComplex,
		Category: CategoryComplex,
		SQL: `
		SELECT
		violation,
		COUNT(*) AS total_stops,
		ROUND(100.0 * SUM(search_conducted) / COUNT(*), 2) AS search_rate_percent,
		ROUND(100.0 * SUM(is_arrested) / COUNT(*), 2) AS arrest_rate_percent,
		DENSE_RANK() OVER (ORDER BY SUM(search_conducted) DESC) AS search_rank,
		DENSE_RANK() OVER (ORDER BY SUM(is_arrested) DESC) AS arrest_rank
		FROM police_stops
		GROUP BY violation
		ORDER BY total_stops DESC`,
		Columns: []string{"violation", "total_stops", "search_rate_percent", "arrest_rate_percent", "search_rank", "arrest_rank"},
		Order:   []OrderKey{desc("total_stops")},
		Chart: Chart{
			Title: "Violations with High Search and Arrest Rates (%)", Category: "violation",
			Values: []string{"search_rate_percent", "arrest_rate_percent"},
		},
	},
	{
		ID:       "demographics-by-country",
		Label:    "Driver demographics by country (age/gender/race)",
		Tier:     TierComplex,
		Category: CategoryComplex,
		SQL: `
		SELECT
		country,
		driver_gender,
		driver_race,
		ROUND(AVG(driver_age), 1) AS avg_age,
		COUNT(*) AS total_stops
		FROM police_stops
		GROUP BY country, driver_gender, driver_race
		ORDER BY country, total_stops DESC`,
		Columns: []string{"country", "driver_gender", "driver_race", "avg_age", "total_stops"},
		Order:   []OrderKey{asc("country"), desc("total_stops")},
		Chart: Chart{
			Title: "Driver Demographics by Country", Category: "country",
			Values: []string{"total_stops"}, Color: "driver_gender", Facet: "driver_race",
		},
	},
	{
		ID:       "top-arrest-violations",
		Label:    "Top 5 violations with highest arrest rates",
		Tier:     TierComplex,
		Category: CategoryComplex,
		SQL: `
		SELECT
		violation,
		AVG(is_arrested) * 100 AS arrest_rate
		FROM police_stops
		GROUP BY violation
		ORDER BY arrest_rate DESC
		LIMIT 5`,
		Columns: []string{"violation", "arrest_rate"},
		Order:   []OrderKey{desc("arrest_rate")},
		Chart: Chart{
			Title: "Top 5 Violations with Highest Arrest Rates (%)", Category: "violation",
			Values: []string{"arrest_rate"},
		},
	},
}

var byID = indexDefinitions(definitions)

func indexDefinitions(defs []Definition) map[string]Definition {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		if _, dup := m[d.ID]; dup {
			panic("report: duplicate definition id " + d.ID)
		}
		m[d.ID] = d
	}
	return m
}

// All returns every definition in catalog order. The returned slice is a copy.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition with the given id.
func Lookup(id string) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// ByTier returns the definitions of one tier in catalog order.
func ByTier(t Tier) []Definition {
	var out []Definition
	for _, d := range definitions {
		if d.Tier == t {
			out = append(out, d)
		}
	}
	return out
}

// IDs returns every report id sorted alphabetically.
func IDs() []string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseTier validates a tier name. The empty string is accepted and means all tiers.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case "", TierMedium, TierComplex:
		return Tier(s), true
	}
	return "", false
}
