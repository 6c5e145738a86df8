package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/gotransact/internal/infrastructure/metrics"
)

// Metrics returns middleware that records request counts and latencies.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			// Wrap response writer to capture status code
			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Routes whose trailing segments are identifiers, with the placeholders that
// replace them.
var parameterizedRoutes = []struct {
	prefix       string
	placeholders []string
}{
	{"/api/transactions/balance/", []string{":client", ":account"}},
	{"/api/transactions/history/", []string{":client", ":account"}},
	{"/api/admin/reconciliation/", []string{":client", ":account"}},
}

// fixedTransactionRoutes live under /api/transactions/ but carry no id.
var fixedTransactionRoutes = map[string]bool{
	"/api/transactions/health": true,
}

// normalizePath normalizes URL paths to avoid high cardinality.
func normalizePath(path string) string {
	for _, route := range parameterizedRoutes {
		rest, ok := strings.CutPrefix(path, route.prefix)
		if !ok || rest == "" {
			continue
		}

		segments := strings.Split(rest, "/")
		for i := range segments {
			if i < len(route.placeholders) {
				segments[i] = route.placeholders[i]
			}
		}
		return route.prefix + strings.Join(segments, "/")
	}

	// /api/transactions/{transactionId}
	if rest, ok := strings.CutPrefix(path, "/api/transactions/"); ok && rest != "" &&
		!strings.Contains(rest, "/") && !fixedTransactionRoutes[path] {
		return "/api/transactions/:id"
	}

	return path
}
