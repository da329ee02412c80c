package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ListReports handles GET /reports. Supports ?tier=medium|complex.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	var tier string
	if err := runtime.BindQueryParameter("form", true, false, "tier", r.URL.Query(), &tier); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid tier"))
		return
	}

	defs, err := s.reports.List(r.Context(), tier)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	out := make([]ReportDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, definitionToResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// RunReport handles GET /reports/{id}.
func (s *Server) RunReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.reports.Run(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, resultToResponse(res))
}
