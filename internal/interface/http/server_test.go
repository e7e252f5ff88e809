package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct{ err error }

func (f *fakeChecker) Ping(ctx context.Context) error { return f.err }

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"updates_received": int64(7)}
}

func serve(t *testing.T, deps Dependencies, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	s := NewServer(DefaultConfig(), deps)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(t, Dependencies{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadinessHealthyStore(t *testing.T) {
	rec := serve(t, Dependencies{Store: &fakeChecker{}}, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessFailingStore(t *testing.T) {
	rec := serve(t, Dependencies{Store: &fakeChecker{err: assert.AnError}}, http.MethodGet, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["status"])
}

func TestStatsEndpoint(t *testing.T) {
	rec := serve(t, Dependencies{Bot: fakeStats{}}, http.MethodGet, "/stats")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body["updates_received"])
}

func TestStatsDisabledWithoutProvider(t *testing.T) {
	rec := serve(t, Dependencies{}, http.MethodGet, "/stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
