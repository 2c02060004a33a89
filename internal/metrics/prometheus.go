// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты обращения к Telemachus
const (
	FetchOK          = "ok"
	FetchError       = "error"
	FetchBadStatus   = "bad_status"
	FetchBadResponse = "bad_response"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemachus_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemachus_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"endpoint", "method"},
	)

	// InFlightRequests количество запросов в обработке
	InFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemachus_in_flight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// UpstreamFetches обращения к datalink по результату
	UpstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemachus_upstream_fetches_total",
			Help: "Total number of datalink fetches by result",
		},
		[]string{"result"},
	)

	// UpstreamLatency время ответа datalink
	UpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemachus_upstream_latency_seconds",
			Help:    "Datalink fetch latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
		},
	)

	// SamplesAppended количество записанных измерений
	SamplesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_samples_appended_total",
			Help: "Total number of samples appended to history",
		},
	)

	// SamplesEvicted количество вытесненных измерений
	SamplesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_samples_evicted_total",
			Help: "Total number of samples evicted from history",
		},
	)

	// UnresolvedAliases алиасы из ответа datalink без сопоставленного поля
	UnresolvedAliases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_unresolved_aliases_total",
			Help: "Total number of upstream aliases without a field mapping",
		},
	)

	// MalformedQueries тела запросов к истории, которые не удалось разобрать
	MalformedQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_malformed_queries_total",
			Help: "Total number of history queries with an unparseable body",
		},
	)

	// HistoryFields количество полей в истории
	HistoryFields = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemachus_history_fields",
			Help: "Number of fields with retained history",
		},
	)

	// HistorySamples общее количество хранимых измерений
	HistorySamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemachus_history_samples",
			Help: "Number of samples retained across all fields",
		},
	)

	// MirrorQueued измерения, переданные в зеркало Redis
	MirrorQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_mirror_queued_total",
			Help: "Total number of samples queued for the Redis mirror",
		},
	)

	// MirrorDropped измерения, не попавшие в переполненную очередь зеркала
	MirrorDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_mirror_dropped_total",
			Help: "Total number of samples dropped because the mirror queue was full",
		},
	)

	// MirrorErrors ошибки записи в Redis
	MirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemachus_mirror_errors_total",
			Help: "Total number of failed Redis mirror writes",
		},
	)

	// ActiveStreams количество открытых WebSocket-потоков
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemachus_active_streams",
			Help: "Number of open realtime WebSocket streams",
		},
	)

	// ActiveGoroutines количество активных горутин
	ActiveGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemachus_active_goroutines",
			Help: "Number of active goroutines",
		},
	)
)

// UpdateHistoryMetrics обновляет размеры хранилища истории
func UpdateHistoryMetrics(fields, samples int) {
	HistoryFields.Set(float64(fields))
	HistorySamples.Set(float64(samples))
}
