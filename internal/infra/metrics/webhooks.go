package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookHandleSeconds,
		signalsTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound webhook deliveries by disposition (processed/ignored/invalid_signature/malformed/locked/error).",
		},
		[]string{"disposition"},
	)

	webhookHandleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_handle_seconds",
			Help:    "Webhook request handling latency (signature check through store commit).",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_signals_total",
			Help: "Lifecycle signals applied to the store by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func IncWebhookEvent(disposition string) {
	webhookEventsTotal.WithLabelValues(disposition).Inc()
}

func ObserveWebhookHandle(seconds float64) {
	webhookHandleSeconds.Observe(seconds)
}

func IncSignal(kind, outcome string) {
	signalsTotal.WithLabelValues(kind, outcome).Inc()
}
