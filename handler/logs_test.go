package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/opensearch"
)

// fakeLogSearcher records which query path was taken.
type fakeLogSearcher struct {
	searched  map[string]any
	reference string
	hours     int
	fail      bool
}

func (f *fakeLogSearcher) SearchLogs(ctx context.Context, provider string, query map[string]any) ([]opensearch.FlowLog, error) {
	if f.fail {
		return nil, fmt.Errorf("opensearch down")
	}
	f.searched = query
	return []opensearch.FlowLog{{Provider: provider, Stage: "initiate"}}, nil
}

func (f *fakeLogSearcher) GetDonationLogs(ctx context.Context, provider, reference string) ([]opensearch.FlowLog, error) {
	f.reference = reference
	return []opensearch.FlowLog{{Provider: provider, Stage: "initiate"}, {Provider: provider, Stage: "confirm"}}, nil
}

func (f *fakeLogSearcher) GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]opensearch.FlowLog, error) {
	f.hours = hours
	return nil, nil
}

func logsRequest(target, key string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("provider", "stripe")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func logsFixture(searcher LogSearcher) *LogsHandler {
	return NewLogsHandler(searcher, &config.AppConfig{AdminKey: "op-s3cret"})
}

func TestListLogs_RequiresAdminKey(t *testing.T) {
	h := logsFixture(&fakeLogSearcher{})

	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListLogs_UnsetKeyDisablesEndpoint(t *testing.T) {
	h := NewLogsHandler(&fakeLogSearcher{}, &config.AppConfig{})

	// An empty configured key must never match an empty header
	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListLogs_UnavailableWithoutSink(t *testing.T) {
	h := logsFixture(nil)

	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe", "op-s3cret"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListLogs_ByReference(t *testing.T) {
	searcher := &fakeLogSearcher{}
	h := logsFixture(searcher)

	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe?reference=TREE-4X7K", "op-s3cret"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TREE-4X7K", searcher.reference)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "stripe", result["provider"])
	assert.Equal(t, float64(2), result["count"])
}

func TestListLogs_ErrorsOnlyClampsHours(t *testing.T) {
	searcher := &fakeLogSearcher{}
	h := logsFixture(searcher)

	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe?errorsOnly=true&hours=500", "op-s3cret"))

	require.Equal(t, http.StatusOK, w.Code)
	// Out-of-range hours falls back to the 24h default
	assert.Equal(t, 24, searcher.hours)
}

func TestListLogs_DefaultTimeWindow(t *testing.T) {
	searcher := &fakeLogSearcher{}
	h := logsFixture(searcher)

	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe?hours=48", "op-s3cret"))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, searcher.searched)

	rng := searcher.searched["range"].(map[string]any)
	ts := rng["timestamp"].(map[string]any)
	assert.Equal(t, "now-48h", ts["gte"])
}

func TestListLogs_SearchFailure(t *testing.T) {
	h := logsFixture(&fakeLogSearcher{fail: true})

	w := httptest.NewRecorder()
	h.ListLogs(w, logsRequest("/v1/logs/stripe", "op-s3cret"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
