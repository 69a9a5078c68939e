package api

import (
	"net/http"
	"time"
)

// StatsProvider reports the service counters shown by GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service counters plus the process uptime.
type StatsHandler struct {
	provider StatsProvider
	since    time.Time
}

// NewStatsHandler returns a handler reporting uptime from now.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, since: time.Now()}
}

// HandleStats handles GET /stats requests. The body is never cached since
// clients poll it to wait for standings versions.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	body := make(map[string]interface{})
	for k, v := range h.provider.GetStats() {
		body[k] = v
	}
	body["uptimeSeconds"] = int64(time.Since(h.since).Seconds())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, body)
}
