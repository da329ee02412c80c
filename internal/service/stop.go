package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/repo"
)

// Driver age bounds accepted on insert.
const (
	MinDriverAge = 18
	MaxDriverAge = 100
)

// Invalidator drops cached derived data after the record set changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// StopService implements the record lifecycle: outcome prediction, insert
// with confirmation reselect, the recent list, bulk delete and filtered
// browsing. No connection spans operations; each repo call acquires its own.
type StopService struct {
	stops       repo.StopRepo
	cache       Invalidator
	log         *slog.Logger
	recentLimit int
}

// NewStopService constructs a StopService backed by stops.
// cache may be nil. recentLimit is the default size of the recent list.
func NewStopService(stops repo.StopRepo, cache Invalidator, log *slog.Logger, recentLimit int) *StopService {
	if log == nil {
		log = slog.Default()
	}
	return &StopService{stops: stops, cache: cache, log: log, recentLimit: recentLimit}
}

// Confirmation is the result of Insert. Record is what was written, including
// the predicted outcome. Rows are the records found by the reselect on
// (vehicle, date, time); Confirmed is false when the reselect failed.
type Confirmation struct {
	Record    domain.StopRecord
	Rows      []domain.StopRecord
	Confirmed bool
	Narrative string
}

// Browse is a filtered view of the whole record set.
type Browse struct {
	Records []domain.StopRecord
	Summary filter.Summary
	// Total counts every stored record before filtering.
	Total int
}

// PredictOutcome returns the outcome most often recorded for violation and
// drugs. Store failures and empty history both fall back to Warning.
func (s *StopService) PredictOutcome(ctx context.Context, violation string, drugs bool) string {
	outcome, err := s.stops.MostCommonOutcome(ctx, violation, drugs)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.OutcomeWarning
	case err != nil:
		s.log.WarnContext(ctx, "outcome prediction failed, using default",
			"violation", violation, "drugs_related_stop", drugs, "error", err)
		return domain.OutcomeWarning
	case outcome == "":
		return domain.OutcomeWarning
	}
	return outcome
}

// Insert validates n, predicts its outcome, persists it, then reads it back by
// its natural key. The three steps use independent connections and nothing is
// rolled back if a later step fails.
// Returns domain.ErrValidation for invalid input.
func (s *StopService) Insert(ctx context.Context, n domain.NewStop) (Confirmation, error) {
	n, err := normalizeStop(n)
	if err != nil {
		return Confirmation{}, err
	}

	rec := n.Record(s.PredictOutcome(ctx, n.Violation, n.DrugsRelatedStop))
	if err := s.stops.Create(ctx, rec); err != nil {
		return Confirmation{}, fmt.Errorf("service.StopService.Insert: %w", err)
	}
	s.invalidate(ctx)

	conf := Confirmation{Record: rec, Rows: []domain.StopRecord{}, Narrative: Narrate(rec)}
	rows, err := s.stops.FindByKey(ctx, rec.VehicleNumber, rec.StopDate, rec.StopTime)
	if err != nil {
		s.log.WarnContext(ctx, "inserted record could not be reselected",
			"vehicle_number", rec.VehicleNumber, "error", err)
		return conf, nil
	}
	if rows != nil {
		conf.Rows = rows
	}
	conf.Confirmed = true
	return conf, nil
}

// ListRecent returns the most recent records, newest first.
// A nil or non-positive limit uses the service default; the limit is capped at
// domain.MaxRecentLimit. Always returns a non-nil slice.
func (s *StopService) ListRecent(ctx context.Context, limit *int) ([]domain.StopRecord, error) {
	records, err := s.stops.ListRecent(ctx, domain.NewRecentLimit(limit, s.recentLimit))
	if err != nil {
		return nil, fmt.Errorf("service.StopService.ListRecent: %w", err)
	}
	if records == nil {
		return []domain.StopRecord{}, nil
	}
	return records, nil
}

// Delete removes every record with the vehicle number and stop time, on any
// date, and returns how many went. Zero matches is not an error.
func (s *StopService) Delete(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error) {
	vehicle = strings.TrimSpace(vehicle)
	if vehicle == "" {
		return 0, fmt.Errorf("%w: vehicle_number is required", domain.ErrValidation)
	}
	n, err := s.stops.DeleteByVehicleAndTime(ctx, vehicle, at)
	if err != nil {
		return 0, fmt.Errorf("service.StopService.Delete: %w", err)
	}
	if n > 0 {
		s.invalidate(ctx)
	}
	return n, nil
}

// Browse loads every record and narrows it by c.
func (s *StopService) Browse(ctx context.Context, c filter.Criteria) (Browse, error) {
	all, err := s.stops.ListAll(ctx)
	if err != nil {
		return Browse{}, fmt.Errorf("service.StopService.Browse: %w", err)
	}
	records := filter.Apply(all, c)
	return Browse{
		Records: records,
		Summary: filter.Summarize(records),
		Total:   len(all),
	}, nil
}

func (s *StopService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "report cache invalidation failed", "error", err)
	}
}

// normalizeStop enforces the entry form's rules and returns n with its
// free-text fields trimmed and its duration in canonical form.
//   - vehicle number is required
//   - enumerated fields must hold one of their known values
//   - driver age must be within MinDriverAge..MaxDriverAge
//   - stop duration is matched case-insensitively
func normalizeStop(n domain.NewStop) (domain.NewStop, error) {
	n.VehicleNumber = strings.TrimSpace(n.VehicleNumber)
	if n.VehicleNumber == "" {
		return n, fmt.Errorf("%w: vehicle_number is required", domain.ErrValidation)
	}
	if n.StopDate.IsZero() {
		return n, fmt.Errorf("%w: stop_date is required", domain.ErrValidation)
	}
	if n.DriverAge < MinDriverAge || n.DriverAge > MaxDriverAge {
		return n, fmt.Errorf("%w: driver_age must be between %d and %d", domain.ErrValidation, MinDriverAge, MaxDriverAge)
	}

	enums := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"country", n.Country, domain.Countries},
		{"driver_gender", n.DriverGender, domain.Genders},
		{"driver_race", n.DriverRace, domain.Races},
		{"violation", n.Violation, domain.Violations},
		{"search_type", n.SearchType, domain.SearchTypes},
	}
	for _, e := range enums {
		if !slices.Contains(e.allowed, e.value) {
			return n, fmt.Errorf("%w: %s must be one of %s", domain.ErrValidation, e.field, strings.Join(e.allowed, ", "))
		}
	}

	i := slices.IndexFunc(domain.Durations, func(d string) bool {
		return strings.EqualFold(d, strings.TrimSpace(n.StopDuration))
	})
	if i < 0 {
		return n, fmt.Errorf("%w: stop_duration must be one of %s", domain.ErrValidation, strings.Join(domain.Durations, ", "))
	}
	n.StopDuration = domain.Durations[i]
	return n, nil
}
