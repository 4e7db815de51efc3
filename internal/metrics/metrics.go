package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	eventsIngested     *prometheus.CounterVec
	ingestConflicts    prometheus.Counter
	notificationsSent  *prometheus.CounterVec
	pairsTracked       prometheus.Gauge
	screenerClients    prometheus.Gauge
	bulkClears         prometheus.Counter
	pairsDeleted       prometheus.Counter
	snapshotsPublished prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.eventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_events_ingested_total",
			Help: "Total number of webhook events persisted",
		},
		[]string{"kind", "changed"},
	)
	r.ingestConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_ingest_conflicts_total",
			Help: "Total number of compare-and-swap conflicts during ingestion",
		},
	)
	r.notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_notifications_total",
			Help: "Total number of notifications attempted",
		},
		[]string{"notifier", "status"},
	)
	r.pairsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "screener_pairs_tracked",
			Help: "Number of pairs in the latest screener snapshot",
		},
	)
	r.screenerClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "screener_ws_clients",
			Help: "Number of connected live screener clients",
		},
	)
	r.bulkClears = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_bulk_clears_total",
			Help: "Total number of bulk-clear operations",
		},
	)
	r.pairsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_pairs_deleted_total",
			Help: "Total number of pair documents removed by bulk-clear",
		},
	)
	r.snapshotsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_snapshots_published_total",
			Help: "Total number of grid snapshots pushed to live clients",
		},
	)

	reg.MustRegister(r.eventsIngested)
	reg.MustRegister(r.ingestConflicts)
	reg.MustRegister(r.notificationsSent)
	reg.MustRegister(r.pairsTracked)
	reg.MustRegister(r.screenerClients)
	reg.MustRegister(r.bulkClears)
	reg.MustRegister(r.pairsDeleted)
	reg.MustRegister(r.snapshotsPublished)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordEvent records a persisted webhook event.
func (r *Registry) RecordEvent(kind string, changed bool) {
	r.eventsIngested.WithLabelValues(kind, strconv.FormatBool(changed)).Inc()
}

// RecordIngestConflict records a lost compare-and-swap.
func (r *Registry) RecordIngestConflict() {
	r.ingestConflicts.Inc()
}

// RecordNotification records one notifier attempt.
func (r *Registry) RecordNotification(notifier, status string) {
	r.notificationsSent.WithLabelValues(notifier, status).Inc()
}

// SetPairsTracked sets the number of tracked pairs.
func (r *Registry) SetPairsTracked(n int) {
	r.pairsTracked.Set(float64(n))
}

// ScreenerClientConnected increments connected live clients.
func (r *Registry) ScreenerClientConnected() {
	r.screenerClients.Inc()
}

// ScreenerClientDisconnected decrements connected live clients.
func (r *Registry) ScreenerClientDisconnected() {
	r.screenerClients.Dec()
}

// RecordSnapshotPublished records a grid pushed to a live client.
func (r *Registry) RecordSnapshotPublished() {
	r.snapshotsPublished.Inc()
}

// RecordBulkClear records a bulk-clear and the number of pairs removed.
func (r *Registry) RecordBulkClear(deleted int) {
	r.bulkClears.Inc()
	r.pairsDeleted.Add(float64(deleted))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
