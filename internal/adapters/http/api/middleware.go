package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/scoreline/pkg/metrics"
)

// instrument records request count, latency and failures for one route.
// Failures are labelled with the error code the handler wrote, falling back
// to the status class when the handler did not go through writeError.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(time.Since(start).Microseconds())/1000)
		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.Header().Get(errorCodeHeader)
		if code == "" {
			code = statusClass(rec.status)
		}
		metrics.RecordErrorByEndpoint(route, r.Method, code)
	}
}

func statusClass(status int) string {
	if status >= http.StatusInternalServerError {
		return "server_error"
	}
	return "client_error"
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}
