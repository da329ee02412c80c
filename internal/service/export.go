package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/repo"
)

// ExportFilename is the download name for filtered exports.
const ExportFilename = "filtered_data.csv"

// ExportService writes filtered record sets as CSV.
type ExportService struct {
	stops repo.StopRepo
}

// NewExportService constructs an ExportService backed by stops.
func NewExportService(stops repo.StopRepo) *ExportService {
	return &ExportService{stops: stops}
}

// WriteCSV writes every record matching c to w, preceded by a header of
// column names in schema order. Booleans are written as 1/0, dates as
// YYYY-MM-DD and times as HH:MM:SS. It returns the number of data rows written.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, c filter.Criteria) (int, error) {
	all, err := s.stops.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	records := filter.Apply(all, c)

	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return 0, fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return 0, fmt.Errorf("service.ExportService.WriteCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	return len(records), nil
}
