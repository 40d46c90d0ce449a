package httpx

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	healthResponse      = `{"status":"ok"}`
	healthDegraded      = `{"status":"unavailable"}`
	healthCheckDeadline = 2 * time.Second
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// healthHandler returns 200 OK when every check passes, 503 otherwise.
func healthHandler(checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthResponse
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckDeadline)
		defer cancel()
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, healthDegraded
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.WriteString(w, body); err != nil {
			// Nothing more to do if the client connection is gone.
			return
		}
	}
}
