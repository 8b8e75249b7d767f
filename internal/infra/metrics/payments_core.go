package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		platformFeeTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Completed checkouts by payment mode.",
		},
		[]string{"mode"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_cents_total",
			Help: "Gross value of completed checkouts in minor currency units.",
		},
		[]string{"mode"},
	)

	platformFeeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_fee_cents_total",
			Help: "Platform fee share of completed checkouts in minor currency units.",
		},
	)
)

func IncPayment(mode string, grossCents, feeCents int64) {
	paymentsTotal.WithLabelValues(mode).Inc()
	paymentsRevenueTotal.WithLabelValues(mode).Add(float64(grossCents))
	platformFeeTotal.Add(float64(feeCents))
}
