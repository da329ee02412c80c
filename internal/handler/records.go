package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
)

// CreateRecordRequest is the body of POST /records. stop_outcome is not
// accepted; it is predicted from history.
type CreateRecordRequest struct {
	VehicleNumber    string              `json:"vehicle_number"`
	Country          string              `json:"country"`
	StopDate         *openapi_types.Date `json:"stop_date"`
	StopTime         *domain.TimeOfDay   `json:"stop_time"`
	DriverGender     string              `json:"driver_gender"`
	DriverAge        int                 `json:"driver_age"`
	DriverRace       string              `json:"driver_race"`
	Violation        string              `json:"violation"`
	SearchConducted  bool                `json:"search_conducted"`
	SearchType       string              `json:"search_type"`
	IsArrested       bool                `json:"is_arrested"`
	DrugsRelatedStop bool                `json:"drugs_related_stop"`
	StopDuration     string              `json:"stop_duration"`
}

// BrowseRecords handles GET /records.
// Supports start, end, gender, country, drugs and arrested_only filters.
func (s *Server) BrowseRecords(w http.ResponseWriter, r *http.Request) {
	c, err := filter.ParseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	b, err := s.stops.Browse(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, browseToResponse(b))
}

// ListRecentRecords handles GET /records/recent.
// Supports ?limit= (defaults to the configured recent limit, max 100).
func (s *Server) ListRecentRecords(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("limit must be an integer"))
		return
	}

	records, err := s.stops.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stopsToResponse(records))
}

// CreateRecord handles POST /records.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("body_too_large", "request body too large"))
			return
		}
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
			return
		}
		writeJSON(w, http.StatusBadRequest, requestBody("invalid request body: "+err.Error()))
		return
	}
	if req.StopDate == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("stop_date is required"))
		return
	}
	if req.StopTime == nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("stop_time is required"))
		return
	}

	conf, err := s.stops.Insert(r.Context(), domain.NewStop{
		VehicleNumber:    req.VehicleNumber,
		Country:          req.Country,
		StopDate:         req.StopDate.Time,
		StopTime:         *req.StopTime,
		DriverGender:     req.DriverGender,
		DriverAge:        req.DriverAge,
		DriverRace:       req.DriverRace,
		Violation:        req.Violation,
		SearchConducted:  req.SearchConducted,
		SearchType:       req.SearchType,
		IsArrested:       req.IsArrested,
		DrugsRelatedStop: req.DrugsRelatedStop,
		StopDuration:     req.StopDuration,
	})
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, ConfirmationResponse{
		Record:    stopToResponse(conf.Record),
		Confirmed: conf.Confirmed,
		Rows:      stopsToResponse(conf.Rows),
		Narrative: conf.Narrative,
	})
}

// DeleteRecords handles DELETE /records?vehicle_number=&stop_time=.
// Every record with that vehicle number and stop time is removed, on any date.
// The response carries the refreshed recent list.
func (s *Server) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var vehicle, stopTime string
	for _, p := range []struct {
		name string
		dest *string
	}{
		{"vehicle_number", &vehicle},
		{"stop_time", &stopTime},
	} {
		if err := runtime.BindQueryParameter("form", true, true, p.name, q, p.dest); err != nil {
			writeJSON(w, http.StatusBadRequest, requestBody(fmt.Sprintf("%s is required", p.name)))
			return
		}
	}
	if strings.TrimSpace(vehicle) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("vehicle_number is required"))
		return
	}
	at, err := domain.ParseTimeOfDay(stopTime)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	n, err := s.stops.Delete(r.Context(), vehicle, at)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	recent, err := s.stops.ListRecent(r.Context(), nil)
	if err != nil {
		s.log.WarnContext(r.Context(), "recent list refresh after delete failed", "error", err)
		recent = nil
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n, Recent: stopsToResponse(recent)})
}
