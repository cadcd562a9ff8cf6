package handler

import (
	"net/http"
	"time"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/infra/response"
)

// Health reports service liveness
func Health(logEnabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusOK, map[string]any{
			"status":             "ok",
			"timestamp":          time.Now().UTC(),
			"version":            config.Version,
			"opensearch_enabled": logEnabled,
		})
	}
}
