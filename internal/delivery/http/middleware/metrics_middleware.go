package middleware

import (
	"net/http"
	"strconv"
	"time"

	"medibook/pkg/metrics"

	"github.com/gorilla/mux"
)

type MetricsMiddleware struct {
	collector *metrics.Collector
}

func NewMetricsMiddleware(collector *metrics.Collector) *MetricsMiddleware {
	return &MetricsMiddleware{collector: collector}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Handle records request count and latency labelled by the route template,
// so /doctors/{id} is one series regardless of the id.
func (m *MetricsMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.collector.InFlightGauge.Inc()
		defer m.collector.InFlightGauge.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		status := strconv.Itoa(rec.status)
		m.collector.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.collector.RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
