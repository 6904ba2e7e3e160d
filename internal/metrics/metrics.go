package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// API
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests."},
		[]string{"handler", "method", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms..~10s
		},
		[]string{"handler", "method"},
	)
	RelayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_requests_total", Help: "Relay request results."},
		[]string{"result"}, // ok | method_not_allowed | too_large | invalid_contacts | invalid_message | not_configured | provider_error
	)

	// Provider
	ProviderSendTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_send_total", Help: "Provider send outcomes."},
		[]string{"outcome"}, // sent | failed
	)
	ProviderSendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "provider_send_duration_seconds",
			Help:    "Provider send latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms..~40s
		},
	)
	PartialSendTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_partial_sends_total",
		Help: "Failed relay requests where some recipients had already been messaged.",
	})
)

var registerOnce sync.Once

// MustRegister adds our collectors to the default registry, which already
// carries the Go and process collectors. Safe to call more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequests, HTTPDuration, RelayRequests,
			ProviderSendTotal, ProviderSendDuration, PartialSendTotal,
		)
	})
}
