package handler

import (
	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/report"
	"github.com/pkordes/securecheck/internal/service"
)

// StopRecord is the wire form of a domain.StopRecord.
type StopRecord struct {
	VehicleNumber    string `json:"vehicle_number"`
	Country          string `json:"country"`
	StopDate         string `json:"stop_date"`
	StopTime         string `json:"stop_time"`
	DriverGender     string `json:"driver_gender"`
	DriverAge        int    `json:"driver_age"`
	DriverRace       string `json:"driver_race"`
	Violation        string `json:"violation"`
	SearchConducted  bool   `json:"search_conducted"`
	SearchType       string `json:"search_type"`
	StopOutcome      string `json:"stop_outcome"`
	IsArrested       bool   `json:"is_arrested"`
	DrugsRelatedStop bool   `json:"drugs_related_stop"`
	StopDuration     string `json:"stop_duration"`
}

// Summary is the wire form of filter.Summary.
type Summary struct {
	Total     int `json:"total"`
	Male      int `json:"male"`
	Female    int `json:"female"`
	Arrests   int `json:"arrests"`
	DrugStops int `json:"drug_stops"`
}

// BrowseResponse is the body of GET /records.
type BrowseResponse struct {
	Records         []StopRecord `json:"records"`
	Summary         Summary      `json:"summary"`
	TotalRecords    int          `json:"total_records"`
	FilteredRecords int          `json:"filtered_records"`
}

// ConfirmationResponse is the body of POST /records.
type ConfirmationResponse struct {
	Record    StopRecord   `json:"record"`
	Confirmed bool         `json:"confirmed"`
	Rows      []StopRecord `json:"rows"`
	Narrative string       `json:"narrative"`
}

// DeleteResponse is the body of DELETE /records.
type DeleteResponse struct {
	Deleted int64        `json:"deleted"`
	Recent  []StopRecord `json:"recent"`
}

// PredictionResponse is the body of GET /predictions.
type PredictionResponse struct {
	Violation        string `json:"violation"`
	DrugsRelatedStop bool   `json:"drugs_related_stop"`
	Outcome          string `json:"outcome"`
}

// OrderKey is the wire form of report.OrderKey.
type OrderKey struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// Chart is the wire form of report.Chart.
type Chart struct {
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Values     []string `json:"values"`
	Color      string   `json:"color,omitempty"`
	Facet      string   `json:"facet,omitempty"`
	Horizontal bool     `json:"horizontal"`
	Grouped    bool     `json:"grouped"`
}

// ReportDefinition is the wire form of report.Definition.
type ReportDefinition struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Tier     string     `json:"tier"`
	Category string     `json:"category"`
	Columns  []string   `json:"columns"`
	Order    []OrderKey `json:"order"`
	Chart    Chart      `json:"chart"`
	SQL      string     `json:"sql"`
}

// ReportResponse is the body of GET /reports/{id}.
type ReportResponse struct {
	Report  ReportDefinition `json:"report"`
	Columns []string         `json:"columns"`
	Rows    [][]any          `json:"rows"`
	Cached  bool             `json:"cached"`
}

func stopToResponse(r domain.StopRecord) StopRecord {
	return StopRecord{
		VehicleNumber:    r.VehicleNumber,
		Country:          r.Country,
		StopDate:         r.StopDate.Format(domain.DateLayout),
		StopTime:         r.StopTime.String(),
		DriverGender:     r.DriverGender,
		DriverAge:        r.DriverAge,
		DriverRace:       r.DriverRace,
		Violation:        r.Violation,
		SearchConducted:  r.SearchConducted,
		SearchType:       r.SearchType,
		StopOutcome:      r.StopOutcome,
		IsArrested:       r.IsArrested,
		DrugsRelatedStop: r.DrugsRelatedStop,
		StopDuration:     r.StopDuration,
	}
}

// stopsToResponse maps records to their wire form. Never returns nil so the
// JSON is always an array.
func stopsToResponse(records []domain.StopRecord) []StopRecord {
	out := make([]StopRecord, 0, len(records))
	for _, r := range records {
		out = append(out, stopToResponse(r))
	}
	return out
}

func summaryToResponse(s filter.Summary) Summary {
	return Summary(s)
}

func browseToResponse(b service.Browse) BrowseResponse {
	return BrowseResponse{
		Records:         stopsToResponse(b.Records),
		Summary:         summaryToResponse(b.Summary),
		TotalRecords:    b.Total,
		FilteredRecords: len(b.Records),
	}
}

func definitionToResponse(d report.Definition) ReportDefinition {
	order := make([]OrderKey, 0, len(d.Order))
	for _, k := range d.Order {
		order = append(order, OrderKey(k))
	}
	return ReportDefinition{
		ID:       d.ID,
		Label:    d.Label,
		Tier:     string(d.Tier),
		Category: string(d.Category),
		Columns:  d.Columns,
		Order:    order,
		Chart: Chart{
			Title:      d.Chart.Title,
			Category:   d.Chart.Category,
			Values:     d.Chart.Values,
			Color:      d.Chart.Color,
			Facet:      d.Chart.Facet,
			Horizontal: d.Chart.Horizontal,
			Grouped:    d.Chart.Grouped,
		},
		SQL: d.SQL,
	}
}

func resultToResponse(res report.Result) ReportResponse {
	rows := res.Table.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return ReportResponse{
		Report:  definitionToResponse(res.Definition),
		Columns: res.Table.Columns,
		Rows:    rows,
		Cached:  res.Cached,
	}
}
