package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/library-backend/internal/metrics"
)

// UnmatchedRoute labels requests no route claimed, so scanners probing
// random paths share one series.
const UnmatchedRoute = "unmatched"

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HTTPMetrics observes metrics.HTTPLatency once the handler chain returns.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		metrics.HTTPLatency.
			WithLabelValues(r.Method, routeLabel(r), strconv.Itoa(sw.code)).
			Observe(time.Since(began).Seconds())
	})
}

func routeLabel(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return UnmatchedRoute
	}
	if p := rc.RoutePattern(); p != "" {
		return p
	}
	return UnmatchedRoute
}
