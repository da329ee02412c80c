package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/repo"
	"github.com/pkordes/securecheck/internal/report"
)

// ReportCache stores report tables by report id.
// A miss is reported as ok=false with a nil error.
//
// Generation returns a token that changes on every invalidation. Set stores
// table only while the token still equals gen and reports whether it did, so
// a run that started before an invalidation never repopulates the cache with
// a table computed from the old record set.
type ReportCache interface {
	Get(ctx context.Context, id string) (domain.ResultTable, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, id string, gen int64, table domain.ResultTable) (bool, error)
}

// sharedRunTimeout bounds a report run that no caller can cancel.
const sharedRunTimeout = 2 * time.Minute

// ReportService runs catalog reports. Concurrent runs of the same report
// share one store round trip.
type ReportService struct {
	reports repo.ReportRepo
	cache   ReportCache
	log     *slog.Logger
	group   singleflight.Group
}

// NewReportService constructs a ReportService. cache may be nil.
func NewReportService(reports repo.ReportRepo, cache ReportCache, log *slog.Logger) *ReportService {
	if log == nil {
		log = slog.Default()
	}
	return &ReportService{reports: reports, cache: cache, log: log}
}

// List returns the catalog, optionally restricted to one tier.
// An empty tier lists everything; an unknown tier is a validation error.
func (s *ReportService) List(_ context.Context, tier string) ([]report.Definition, error) {
	t, ok := report.ParseTier(tier)
	if !ok {
		return nil, fmt.Errorf("%w: unknown tier %q", domain.ErrValidation, tier)
	}
	if t == "" {
		return report.All(), nil
	}
	return report.ByTier(t), nil
}

// Run executes the report with the given id and returns its table as-is.
// Returns domain.ErrNotFound for an unknown id.
func (s *ReportService) Run(ctx context.Context, id string) (report.Result, error) {
	def, ok := report.Lookup(id)
	if !ok {
		return report.Result{}, fmt.Errorf("service.ReportService.Run: %w: unknown report %q", domain.ErrNotFound, id)
	}

	if s.cache != nil {
		table, hit, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.WarnContext(ctx, "report cache read failed", "report", id, "error", err)
		}
		if hit {
			return report.Result{Definition: def, Table: table, Cached: true}, nil
		}
	}

	// The shared run is detached from any one caller: a caller that goes away
	// must not fail the others waiting on the same report. Each caller still
	// stops waiting when its own context ends.
	ch := s.group.DoChan(id, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRunTimeout)
		defer cancel()
		return s.runAndStore(runCtx, def)
	})
	select {
	case <-ctx.Done():
		return report.Result{}, fmt.Errorf("service.ReportService.Run: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return report.Result{}, fmt.Errorf("service.ReportService.Run: %w", res.Err)
		}
		return report.Result{Definition: def, Table: res.Val.(domain.ResultTable)}, nil
	}
}

// runAndStore executes def and caches the table unless the cache was
// invalidated while the query ran.
func (s *ReportService) runAndStore(ctx context.Context, def report.Definition) (domain.ResultTable, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.WarnContext(ctx, "report cache generation read failed", "report", def.ID, "error", err)
		} else {
			cacheable = true
		}
	}

	table, err := s.reports.Run(ctx, def.SQL)
	if err != nil {
		return domain.ResultTable{}, err
	}

	s.checkShape(ctx, def, table)

	if cacheable {
		stored, err := s.cache.Set(ctx, def.ID, gen, table)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "report cache write failed", "report", def.ID, "error", err)
		case !stored:
			s.log.DebugContext(ctx, "report cache invalidated during run; result not stored", "report", def.ID)
		}
	}
	return table, nil
}

// checkShape logs when a result drifts from its definition. The table is still
// returned unchanged.
func (s *ReportService) checkShape(ctx context.Context, def report.Definition, table domain.ResultTable) {
	if !slices.Equal(def.Columns, table.Columns) {
		s.log.WarnContext(ctx, "report columns differ from definition",
			"report", def.ID, "want", def.Columns, "got", table.Columns)
		return
	}
	if err := def.CheckOrder(table); err != nil {
		s.log.WarnContext(ctx, "report ordering violated", "report", def.ID, "error", err)
	}
}
