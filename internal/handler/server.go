// Package handler implements the HTTP handlers for the SecureCheck API.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, records.go, reports.go, ...) but share the same Server struct
// so they can access its dependencies. Routes mounts them on a chi router
// through HandlerFromMux, at the paths spec/openapi.yaml declares.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/report"
	"github.com/pkordes/securecheck/internal/service"
)

// StopServicer defines the record lifecycle operations the records handlers
// depend on. Defining the interface here (in the consumer package) lets
// handler tests inject a mock without touching the database or service layer.
type StopServicer interface {
	PredictOutcome(ctx context.Context, violation string, drugs bool) string
	Insert(ctx context.Context, n domain.NewStop) (service.Confirmation, error)
	ListRecent(ctx context.Context, limit *int) ([]domain.StopRecord, error)
	Delete(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error)
	Browse(ctx context.Context, c filter.Criteria) (service.Browse, error)
}

// ReportServicer defines the catalog operations the reports handlers depend on.
type ReportServicer interface {
	List(ctx context.Context, tier string) ([]report.Definition, error)
	Run(ctx context.Context, id string) (report.Result, error)
}

// Exporter writes a filtered CSV export.
type Exporter interface {
	WriteCSV(ctx context.Context, w io.Writer, c filter.Criteria) (int, error)
}

// Server holds the services behind every endpoint.
type Server struct {
	stops   StopServicer
	reports ReportServicer
	export  Exporter
	log     *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// Any service may be nil when only a subset of routes is exercised.
func NewServer(stops StopServicer, reports ReportServicer, export Exporter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{stops: stops, reports: reports, export: export, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// ServerInterface has one method per operationId in spec/openapi.yaml, named
// by upper-casing its first letter. HandlerFromMux mounts it at the paths the
// document declares.
type ServerInterface interface {
	GetHealth(w http.ResponseWriter, r *http.Request)
	GetOpenAPI(w http.ResponseWriter, r *http.Request)
	BrowseRecords(w http.ResponseWriter, r *http.Request)
	CreateRecord(w http.ResponseWriter, r *http.Request)
	DeleteRecords(w http.ResponseWriter, r *http.Request)
	ListRecentRecords(w http.ResponseWriter, r *http.Request)
	ExportRecords(w http.ResponseWriter, r *http.Request)
	PredictOutcome(w http.ResponseWriter, r *http.Request)
	ListReports(w http.ResponseWriter, r *http.Request)
	RunReport(w http.ResponseWriter, r *http.Request)
}

var _ ServerInterface = (*Server)(nil)

// HandlerFromMux registers every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) {
	r.Get("/healthz", si.GetHealth)
	r.Get("/openapi.yaml", si.GetOpenAPI)

	r.Get("/records", si.BrowseRecords)
	r.Post("/records", si.CreateRecord)
	r.Delete("/records", si.DeleteRecords)
	r.Get("/records/recent", si.ListRecentRecords)
	r.Get("/records/export", si.ExportRecords)

	r.Get("/predictions", si.PredictOutcome)

	r.Get("/reports", si.ListReports)
	r.Get("/reports/{id}", si.RunReport)
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	HandlerFromMux(s, r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundBody("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})
	return r
}
