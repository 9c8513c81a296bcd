package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	storeCollectionSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_collection_size",
			Help: "Number of records per store collection.",
		},
		[]string{"collection"},
	)

	storeFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_fetch_total",
			Help: "Collection fetches by outcome.",
		},
		[]string{"collection", "outcome"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		storeCollectionSize, storeFetchTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetCollectionSize records the current size of a store collection.
func SetCollectionSize(collection string, n int) {
	storeCollectionSize.WithLabelValues(collection).Set(float64(n))
}

// CountFetch records a completed collection fetch.
func CountFetch(collection, outcome string) {
	storeFetchTotal.WithLabelValues(collection, outcome).Inc()
}

// CanonicalPath collapses resource identifiers so metric label cardinality
// stays bounded: /v1/products/01ABC -> /v1/products/:id.
func CanonicalPath(raw string) string {
	if raw == "" {
		return "/"
	}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	parts := strings.Split(raw, "/")
	// Expect ["", "v1", collection, id, ...].
	if len(parts) >= 4 && parts[1] == "v1" {
		switch parts[2] {
		case "users", "officines", "products", "orders", "notifications":
			parts[3] = ":id"
			if len(parts) > 5 {
				return raw
			}
			return strings.Join(parts, "/")
		}
	}
	return raw
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE responses streamable through the instrumented wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
