package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/opensearch"
	"github.com/mstgnz/donate/infra/response"
)

// LogSearcher is the slice of the OpenSearch logger the operator log
// endpoint queries against.
type LogSearcher interface {
	SearchLogs(ctx context.Context, provider string, query map[string]any) ([]opensearch.FlowLog, error)
	GetDonationLogs(ctx context.Context, provider, reference string) ([]opensearch.FlowLog, error)
	GetRecentErrorLogs(ctx context.Context, provider string, hours int) ([]opensearch.FlowLog, error)
}

// LogsHandler serves donation flow logs to operators. Access requires the
// configured admin secret; the endpoint is unavailable without one.
type LogsHandler struct {
	logs LogSearcher
	cfg  *config.AppConfig
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logs LogSearcher, cfg *config.AppConfig) *LogsHandler {
	return &LogsHandler{logs: logs, cfg: cfg}
}

// ListLogs lists flow logs for one provider. A reference filter returns the
// stages of a single donation; errorsOnly narrows to failed stages; the
// hours window defaults to 24 and caps at 7 days.
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Admin-Key")
	if h.cfg.AdminKey == "" || key != h.cfg.AdminKey {
		_ = response.WriteJSON(w, http.StatusUnauthorized,
			map[string]any{"success": false, "error": "Invalid or missing authentication"})
		return
	}

	if h.logs == nil {
		_ = response.WriteJSON(w, http.StatusServiceUnavailable,
			map[string]any{"success": false, "error": "Logging service not available"})
		return
	}

	providerName := chi.URLParam(r, "provider")
	if providerName == "" {
		_ = response.WriteJSON(w, http.StatusBadRequest,
			map[string]any{"success": false, "error": "Provider parameter is required"})
		return
	}

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if v, err := strconv.Atoi(hoursStr); err == nil && v > 0 && v <= 168 { // Max 7 days
			hours = v
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var logs []opensearch.FlowLog
	var err error
	switch {
	case r.URL.Query().Get("reference") != "":
		logs, err = h.logs.GetDonationLogs(ctx, providerName, r.URL.Query().Get("reference"))
	case r.URL.Query().Get("errorsOnly") == "true":
		logs, err = h.logs.GetRecentErrorLogs(ctx, providerName, hours)
	default:
		logs, err = h.logs.SearchLogs(ctx, providerName, map[string]any{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": fmt.Sprintf("now-%dh", hours),
				},
			},
		})
	}
	if err != nil {
		_ = response.WriteJSON(w, http.StatusInternalServerError,
			map[string]any{"success": false, "error": "Failed to search logs"})
		return
	}

	_ = response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": providerName,
		"count":    len(logs),
		"logs":     logs,
	})
}
