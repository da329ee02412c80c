package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/securecheck/internal/middleware"
)

const dashboard = "http://localhost:5173"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	w.WriteHeader(http.StatusOK)
})

func serve(method, origin string, headers map[string]string) *httptest.ResponseRecorder {
	h := middleware.NewCORSHandler([]string{dashboard})(okHandler)
	req := httptest.NewRequest(method, "/records", nil)
	req.Header.Set("Origin", origin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSHandler_AllowedOriginExposesDisposition(t *testing.T) {
	rec := serve(http.MethodGet, dashboard, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dashboard, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Disposition", rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSHandler_DisallowedOrigin(t *testing.T) {
	rec := serve(http.MethodGet, "http://evil.example.com", nil)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// Browsers lowercase Access-Control-Request-Headers; rs/cors compares verbatim.
func TestCORSHandler_PreflightJSONPost(t *testing.T) {
	rec := serve(http.MethodOptions, dashboard, map[string]string{
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "content-type",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, dashboard, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSHandler_PreflightDelete(t *testing.T) {
	rec := serve(http.MethodOptions, dashboard, map[string]string{
		"Access-Control-Request-Method": http.MethodDelete,
	})

	assert.Equal(t, dashboard, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodDelete, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSHandler_PreflightRejectsUnlistedHeader(t *testing.T) {
	rec := serve(http.MethodOptions, dashboard, map[string]string{
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "authorization",
	})

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSHandler_PreflightRejectsPut(t *testing.T) {
	rec := serve(http.MethodOptions, dashboard, map[string]string{
		"Access-Control-Request-Method": http.MethodPut,
	})

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
