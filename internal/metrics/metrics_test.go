package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordComputation(t *testing.T) {
	m := New()
	m.RecordComputation("server", "success", 25*time.Millisecond)
	m.RecordComputation("server", "error", 5*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `impact_computations_total{kind="server",outcome="success"} 1`)
	assert.Contains(t, body, `impact_computations_total{kind="server",outcome="error"} 1`)
	assert.Contains(t, body, "impact_computation_duration_seconds_bucket")
}

func TestInstrument(t *testing.T) {
	m := New()
	h := m.Instrument("/v1/server", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/server", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := scrape(t, m)
	assert.Contains(t, body, `impact_http_requests_total{method="POST",route="/v1/server",status="201"} 1`)
}

func TestInstrumentDefaultsStatus(t *testing.T) {
	m := New()
	h := m.Instrument("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	body := scrape(t, m)
	assert.Contains(t, body, `status="200"`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
