// Package handler: export.go implements GET /records/export.
// The filtered record set is written as CSV with the table's column order.
package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/service"
)

// ExportRecords handles GET /records/export. It accepts the same filters as
// GET /records. The CSV is assembled in memory first so a store failure can
// still be reported as a JSON error.
func (s *Server) ExportRecords(w http.ResponseWriter, r *http.Request) {
	c, err := filter.ParseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	var buf bytes.Buffer
	if _, err := s.export.WriteCSV(r.Context(), &buf, c); err != nil {
		s.writeError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ExportFilename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
