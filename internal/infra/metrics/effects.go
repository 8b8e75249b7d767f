package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		effectsTotal,
		effectRetriesTotal,
	)
}

var (
	effectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effects_total",
			Help: "Dispatched side effects by kind and outcome (ok/abandoned/failed).",
		},
		[]string{"kind", "outcome"},
	)

	effectRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_retries_total",
			Help: "Transient-failure retries per effect kind.",
		},
		[]string{"kind"},
	)
)

func IncEffect(kind, outcome string) {
	effectsTotal.WithLabelValues(kind, outcome).Inc()
}

func IncEffectRetry(kind string) {
	effectRetriesTotal.WithLabelValues(kind).Inc()
}
