package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/securecheck/internal/domain"
)

// ParseCriteria builds Criteria from query parameters, starting from
// DefaultCriteria for anything not supplied:
//
//	start, end     YYYY-MM-DD, inclusive
//	gender         All | Male | Female
//	country        repeatable or comma-separated; present but empty selects nothing
//	drugs          All | true | false
//	arrested_only  true | false
//
// Malformed values are reported as domain.ErrValidation.
func ParseCriteria(q url.Values) (Criteria, error) {
	c := DefaultCriteria()

	var (
		start, end   *openapi_types.Date
		gender       *string
		countries    *[]string
		drugs        *string
		arrestedOnly *bool
	)

	binds := []struct {
		name string
		dest any
	}{
		{"start", &start},
		{"end", &end},
		{"gender", &gender},
		{"country", &countries},
		{"drugs", &drugs},
		{"arrested_only", &arrestedOnly},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return Criteria{}, fmt.Errorf("%w: invalid %s: %v", domain.ErrValidation, b.name, err)
		}
	}

	if start != nil {
		c.Start = start.Time
	}
	if end != nil {
		c.End = end.Time
	}

	if gender != nil && *gender != "" {
		g := *gender
		if g != All && !slices.Contains(domain.Genders, g) {
			return Criteria{}, fmt.Errorf("%w: gender must be one of All, Male, Female", domain.ErrValidation)
		}
		c.Gender = g
	}

	if countries != nil {
		c.Countries = splitList(*countries)
	} else if _, present := q["country"]; present {
		c.Countries = []string{}
	}

	if drugs != nil && *drugs != "" && *drugs != All {
		v, err := strconv.ParseBool(*drugs)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: drugs must be All, true or false", domain.ErrValidation)
		}
		c.Drugs = Only(v)
	}

	if arrestedOnly != nil {
		c.ArrestedOnly = *arrestedOnly
	}

	return c, nil
}

// Values renders c back into query parameters accepted by ParseCriteria.
func (c Criteria) Values() url.Values {
	q := url.Values{}
	q.Set("start", c.Start.Format(domain.DateLayout))
	q.Set("end", c.End.Format(domain.DateLayout))
	if c.Gender != "" {
		q.Set("gender", c.Gender)
	}
	q.Set("country", strings.Join(c.Countries, ","))
	q.Set("drugs", c.Drugs.String())
	q.Set("arrested_only", strconv.FormatBool(c.ArrestedOnly))
	return q
}

// splitList flattens repeated and comma-separated values, dropping blanks.
// It returns an empty, non-nil slice when nothing remains.
func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if t := strings.TrimSpace(part); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
