package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/handler"
	"github.com/pkordes/securecheck/internal/service"
)

// mockStopServicer is a test double for handler.StopServicer.
// Set only the method fields your test needs.
type mockStopServicer struct {
	predictOutcome func(ctx context.Context, violation string, drugs bool) string
	insert         func(ctx context.Context, n domain.NewStop) (service.Confirmation, error)
	listRecent     func(ctx context.Context, limit *int) ([]domain.StopRecord, error)
	delete         func(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error)
	browse         func(ctx context.Context, c filter.Criteria) (service.Browse, error)
}

func (m *mockStopServicer) PredictOutcome(ctx context.Context, violation string, drugs bool) string {
	return m.predictOutcome(ctx, violation, drugs)
}
func (m *mockStopServicer) Insert(ctx context.Context, n domain.NewStop) (service.Confirmation, error) {
	return m.insert(ctx, n)
}
func (m *mockStopServicer) ListRecent(ctx context.Context, limit *int) ([]domain.StopRecord, error) {
	return m.listRecent(ctx, limit)
}
func (m *mockStopServicer) Delete(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error) {
	return m.delete(ctx, vehicle, at)
}
func (m *mockStopServicer) Browse(ctx context.Context, c filter.Criteria) (service.Browse, error) {
	return m.browse(ctx, c)
}

// compile-time check: mockStopServicer must satisfy handler.StopServicer.
var _ handler.StopServicer = (*mockStopServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newStopsHandler wires a Server with the given mock into the chi router,
// the same way main.go wires it in production.
func newStopsHandler(svc handler.StopServicer) http.Handler {
	return handler.NewServer(svc, nil, nil, quietLogger()).Routes()
}

func recordFixture() domain.StopRecord {
	return domain.StopRecord{
		VehicleNumber:    "KA01AB1234",
		Country:          "India",
		StopDate:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		StopTime:         domain.TimeOfDay{Hour: 15, Minute: 5},
		DriverGender:     "Male",
		DriverAge:        27,
		DriverRace:       "Asian",
		Violation:        "Speeding",
		SearchConducted:  true,
		SearchType:       "Vehicle Search",
		StopOutcome:      "Ticket",
		DrugsRelatedStop: true,
		StopDuration:     "16-30 min",
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func validCreateBody() map[string]any {
	return map[string]any{
		"vehicle_number":     "KA01AB1234",
		"country":            "India",
		"stop_date":          "2024-05-01",
		"stop_time":          "15:05",
		"driver_gender":      "Male",
		"driver_age":         27,
		"driver_race":        "Asian",
		"violation":          "Speeding",
		"search_conducted":   true,
		"search_type":        "Vehicle Search",
		"is_arrested":        false,
		"drugs_related_stop": true,
		"stop_duration":      "16-30 min",
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// ---- GET /records ----------------------------------------------------------

func TestBrowseRecords_200(t *testing.T) {
	var got filter.Criteria
	svc := &mockStopServicer{
		browse: func(_ context.Context, c filter.Criteria) (service.Browse, error) {
			got = c
			return service.Browse{
				Records: []domain.StopRecord{recordFixture()},
				Summary: filter.Summary{Total: 1, Male: 1, DrugStops: 1},
				Total:   40,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/records?gender=Male&country=India,USA&drugs=true&start=2024-01-01", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Male", got.Gender)
	assert.Equal(t, []string{"India", "USA"}, got.Countries)
	assert.Equal(t, filter.Only(true), got.Drugs)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got.Start)

	var resp handler.BrowseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 40, resp.TotalRecords)
	assert.Equal(t, 1, resp.FilteredRecords)
	assert.Equal(t, handler.Summary{Total: 1, Male: 1, DrugStops: 1}, resp.Summary)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "2024-05-01", resp.Records[0].StopDate)
	assert.Equal(t, "15:05:00", resp.Records[0].StopTime)
	assert.True(t, resp.Records[0].DrugsRelatedStop)
}

func TestBrowseRecords_EmptyIsArray(t *testing.T) {
	svc := &mockStopServicer{
		browse: func(context.Context, filter.Criteria) (service.Browse, error) {
			return service.Browse{Records: []domain.StopRecord{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/records?country=", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestBrowseRecords_422_BadFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/records?gender=Robot", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)
}

func TestBrowseRecords_503_StoreDown(t *testing.T) {
	svc := &mockStopServicer{
		browse: func(context.Context, filter.Criteria) (service.Browse, error) {
			return service.Browse{}, fmt.Errorf("service.StopService.Browse: %w", domain.ErrConnectionFailed)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "store_unavailable", decodeError(t, rec).Error.Code)
}

// ---- GET /records/recent ---------------------------------------------------

func TestListRecentRecords_PassesLimit(t *testing.T) {
	var got *int
	svc := &mockStopServicer{
		listRecent: func(_ context.Context, limit *int) ([]domain.StopRecord, error) {
			got = limit
			return []domain.StopRecord{recordFixture()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/records/recent?limit=3", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, 3, *got)

	var resp []handler.StopRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 1)
}

func TestListRecentRecords_DefaultLimitIsNil(t *testing.T) {
	called := false
	svc := &mockStopServicer{
		listRecent: func(_ context.Context, limit *int) ([]domain.StopRecord, error) {
			called = true
			assert.Nil(t, limit)
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/records/recent", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListRecentRecords_400_BadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/records/recent?limit=ten", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- POST /records ---------------------------------------------------------

func TestCreateRecord_201(t *testing.T) {
	var got domain.NewStop
	svc := &mockStopServicer{
		insert: func(_ context.Context, n domain.NewStop) (service.Confirmation, error) {
			got = n
			rec := n.Record("Ticket")
			return service.Confirmation{
				Record:    rec,
				Rows:      []domain.StopRecord{rec},
				Confirmed: true,
				Narrative: service.Narrate(rec),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/records", jsonBody(t, validCreateBody()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.TimeOfDay{Hour: 15, Minute: 5}, got.StopTime)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), got.StopDate)
	assert.Equal(t, 27, got.DriverAge)
	assert.True(t, got.SearchConducted)

	var resp handler.ConfirmationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Confirmed)
	assert.Equal(t, "Ticket", resp.Record.StopOutcome)
	assert.Len(t, resp.Rows, 1)
	assert.Contains(t, resp.Narrative, "at 3.05 PM")
}

func TestCreateRecord_422_ValidationError(t *testing.T) {
	svc := &mockStopServicer{
		insert: func(context.Context, domain.NewStop) (service.Confirmation, error) {
			return service.Confirmation{}, fmt.Errorf("%w: driver_age must be between 18 and 100", domain.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/records", jsonBody(t, validCreateBody()))
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "driver_age must be between 18 and 100", resp.Error.Message)
}

func TestCreateRecord_422_MissingDateOrTime(t *testing.T) {
	for _, field := range []string{"stop_date", "stop_time"} {
		t.Run(field, func(t *testing.T) {
			body := validCreateBody()
			delete(body, field)

			req := httptest.NewRequest(http.MethodPost, "/records", jsonBody(t, body))
			rec := httptest.NewRecorder()

			newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, field+" is required", decodeError(t, rec).Error.Message)
		})
	}
}

func TestCreateRecord_422_BadTime(t *testing.T) {
	body := validCreateBody()
	body["stop_time"] = "quarter past three"

	req := httptest.NewRequest(http.MethodPost, "/records", jsonBody(t, body))
	rec := httptest.NewRecorder()

	newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateRecord_400_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRecord_500_InsertFailed(t *testing.T) {
	svc := &mockStopServicer{
		insert: func(context.Context, domain.NewStop) (service.Confirmation, error) {
			return service.Confirmation{}, fmt.Errorf("service.StopService.Insert: %w: duplicate", domain.ErrInsert)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/records", jsonBody(t, validCreateBody()))
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "insert_failed", decodeError(t, rec).Error.Code)
}

// ---- DELETE /records -------------------------------------------------------

func TestDeleteRecords_200(t *testing.T) {
	var gotVehicle string
	var gotAt domain.TimeOfDay
	svc := &mockStopServicer{
		delete: func(_ context.Context, vehicle string, at domain.TimeOfDay) (int64, error) {
			gotVehicle, gotAt = vehicle, at
			return 2, nil
		},
		listRecent: func(context.Context, *int) ([]domain.StopRecord, error) {
			return []domain.StopRecord{recordFixture()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/records?vehicle_number=KA01AB1234&stop_time=15:05:00", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "KA01AB1234", gotVehicle)
	assert.Equal(t, domain.TimeOfDay{Hour: 15, Minute: 5}, gotAt)

	var resp handler.DeleteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 2, resp.Deleted)
	assert.Len(t, resp.Recent, 1)
}

func TestDeleteRecords_ZeroMatches(t *testing.T) {
	svc := &mockStopServicer{
		delete:     func(context.Context, string, domain.TimeOfDay) (int64, error) { return 0, nil },
		listRecent: func(context.Context, *int) ([]domain.StopRecord, error) { return nil, domain.ErrConnectionFailed },
	}

	req := httptest.NewRequest(http.MethodDelete, "/records?vehicle_number=NOPE&stop_time=01:00", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":0,"recent":[]}`, rec.Body.String())
}

func TestDeleteRecords_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing vehicle", "stop_time=01:00", http.StatusBadRequest},
		{"missing time", "vehicle_number=AB", http.StatusBadRequest},
		{"blank vehicle", "vehicle_number=%20&stop_time=01:00", http.StatusUnprocessableEntity},
		{"bad time", "vehicle_number=AB&stop_time=noon", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/records?"+tt.query, nil)
			rec := httptest.NewRecorder()

			newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDeleteRecords_500_DeleteFailed(t *testing.T) {
	svc := &mockStopServicer{
		delete: func(context.Context, string, domain.TimeOfDay) (int64, error) {
			return 0, fmt.Errorf("%w: boom", domain.ErrDelete)
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/records?vehicle_number=AB&stop_time=01:00", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "delete_failed", decodeError(t, rec).Error.Code)
}

// ---- GET /predictions ------------------------------------------------------

func TestPredictOutcome_200(t *testing.T) {
	svc := &mockStopServicer{
		predictOutcome: func(_ context.Context, violation string, drugs bool) string {
			if violation == "DUI" && drugs {
				return "Arrest"
			}
			return "Warning"
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/predictions?violation=DUI&drugs_related_stop=true", nil)
	rec := httptest.NewRecorder()

	newStopsHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.PredictionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, handler.PredictionResponse{Violation: "DUI", DrugsRelatedStop: true, Outcome: "Arrest"}, resp)
}

func TestPredictOutcome_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing violation", "", http.StatusBadRequest},
		{"unknown violation", "violation=Jaywalking", http.StatusUnprocessableEntity},
		{"bad flag", "violation=DUI&drugs_related_stop=perhaps", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/predictions?"+tt.query, nil)
			rec := httptest.NewRecorder()

			newStopsHandler(&mockStopServicer{}).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
