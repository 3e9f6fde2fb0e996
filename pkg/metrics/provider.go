package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks outbound calls to card data providers.
type ProviderMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewProviderMetrics registers provider call metrics on the provided registerer.
func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	if reg == nil {
		return &ProviderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tradebinder",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Duration of outbound provider requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradebinder",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Outbound provider requests by outcome.",
	}, []string{"provider", "operation", "outcome"})
	reg.MustRegister(duration, calls)
	return &ProviderMetrics{
		duration: duration,
		calls:    calls,
	}
}

// ObserveCall records a single provider request with its outcome and duration.
func (p *ProviderMetrics) ObserveCall(provider, operation string, err error, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.duration.WithLabelValues(normalizeLabel(provider), normalizeLabel(operation)).Observe(duration.Seconds())
	p.calls.WithLabelValues(normalizeLabel(provider), normalizeLabel(operation), outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
