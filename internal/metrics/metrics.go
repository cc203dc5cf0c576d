package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SyncRuns counts reconciler runs by kind and terminal status
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_runs_total", Help: "Sync runs by kind and status."},
		[]string{"kind", "status"},
	)
	// SyncRecords counts per-record outcomes by kind and action
	SyncRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sync_records_total", Help: "Record outcomes by kind and action."},
		[]string{"kind", "action"},
	)
	// TokenRequests counts authorization-server calls by grant type and outcome
	TokenRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "forwarder_token_requests_total", Help: "Token endpoint calls by grant type and outcome."},
		[]string{"grant", "outcome"},
	)
	// APIRequests counts forwarder API calls by endpoint and status class
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "forwarder_api_requests_total", Help: "Forwarder API calls by endpoint and status."},
		[]string{"endpoint", "status"},
	)
	// APIDuration tracks forwarder API latencies in seconds
	APIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "forwarder_api_duration_seconds", Help: "Forwarder API call duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"endpoint"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SyncRuns)
		Registry.MustRegister(SyncRecords)
		Registry.MustRegister(TokenRequests)
		Registry.MustRegister(APIRequests)
		Registry.MustRegister(APIDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
