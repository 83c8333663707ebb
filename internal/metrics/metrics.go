// Package metrics provides Prometheus metrics for the webhook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric exposed by the webhook.
const Namespace = "ddns_webhook"

var (
	// RequestsTotal counts handled update requests by endpoint and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Update requests handled, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// RequestDuration observes end-to-end request handling time. Most of it
	// is spent waiting on the provider API.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request handling duration in seconds, by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// ProviderErrorsTotal counts failed provider API operations.
	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_errors_total",
		Help:      "Failed provider API operations, by operation.",
	}, []string{"operation"})

	// BuildInfo exposes build metadata as a constant gauge.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information. Always 1.",
	}, []string{"version", "go_version"})
)

// SetBuildInfo records the running build's version metadata.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
