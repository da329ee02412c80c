package handler

import (
	"net/http"
	"slices"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/securecheck/internal/domain"
)

// PredictOutcome handles GET /predictions?violation=&drugs_related_stop=.
// It never fails on store errors; the prediction falls back to Warning.
func (s *Server) PredictOutcome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var violation string
	if err := runtime.BindQueryParameter("form", true, true, "violation", q, &violation); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("violation is required"))
		return
	}
	if !slices.Contains(domain.Violations, violation) {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("unknown violation "+violation))
		return
	}

	var drugs bool
	if err := runtime.BindQueryParameter("form", true, false, "drugs_related_stop", q, &drugs); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("drugs_related_stop must be true or false"))
		return
	}

	writeJSON(w, http.StatusOK, PredictionResponse{
		Violation:        violation,
		DrugsRelatedStop: drugs,
		Outcome:          s.stops.PredictOutcome(r.Context(), violation, drugs),
	})
}
