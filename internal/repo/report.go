package repo

import (
	"context"

	"github.com/pkordes/securecheck/internal/domain"
)

// ReportRepo runs catalog statements. The statements are fixed literal text
// owned by the report package, so no arguments are bound.
type ReportRepo interface {
	// Run executes sql and returns its result table. Columns come from the
	// statement's result description, so an empty result still has columns.
	Run(ctx context.Context, sql string) (domain.ResultTable, error)
}

// pgReportRepo is the Postgres implementation of ReportRepo.
type pgReportRepo struct {
	store *Store
}

// NewReportRepo constructs a ReportRepo that runs its statements through store.
func NewReportRepo(store *Store) ReportRepo {
	return &pgReportRepo{store: store}
}

func (r *pgReportRepo) Run(ctx context.Context, sql string) (domain.ResultTable, error) {
	return r.store.Query(ctx, "repo.ReportRepo.Run", sql)
}
