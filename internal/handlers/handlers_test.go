package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbytablesbot/bobbytables/internal/logger"
	"github.com/bobbytablesbot/bobbytables/internal/store"
)

type fakeStats struct {
	counts map[string]int
	err    error
}

func (f fakeStats) RecordReference(context.Context, string, string) error { return nil }

func (f fakeStats) ReferenceCount(_ context.Context, id string) (int, error) {
	return f.counts[id], f.err
}

func (f fakeStats) TotalReferences(context.Context) (int, error) {
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total, f.err
}

func serve(t *testing.T, stats store.Statistics, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	NewPingHandler(logger.Discard()).Register(e)
	NewStatsHandler(logger.Discard(), stats).Register(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPing(t *testing.T) {
	stats := fakeStats{}
	rec := serve(t, stats, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	var ping PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ping))
	assert.Equal(t, "ok", ping.Status)
	assert.NotEmpty(t, ping.Version)

	rec = serve(t, stats, http.MethodHead, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestStats(t *testing.T) {
	stats := fakeStats{counts: map[string]int{"327": 1, "1": 3}}

	rec := serve(t, stats, http.MethodGet, "/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":4}`, rec.Body.String())

	rec = serve(t, stats, http.MethodGet, "/stats/0327")
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.ReferenceStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, store.ReferenceStats{CatalogID: "327", Count: 1, Total: 4, Percent: 25}, got)

	rec = serve(t, stats, http.MethodGet, "/stats/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, fakeStats{err: errors.New("db down")}, http.MethodGet, "/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
