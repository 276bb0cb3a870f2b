package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		promoRedemptionsTotal,
		promoRedemptionRetriesTotal,
		promoRedemptionErrorsTotal,
	)
}

var (
	promoRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_redemptions_total",
			Help: "Redemption attempts with a known outcome, labeled by reason.",
		},
		[]string{"reason"}, // ok, codenotfound, limitexceeded, ...
	)

	promoRedemptionRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_redemption_retries_total",
			Help: "Redemption sequences re-run after a transaction conflict.",
		},
	)

	promoRedemptionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promo_redemption_errors_total",
			Help: "Redemption attempts whose outcome could not be determined.",
		},
	)
)

func IncPromoRedemption(reason string) {
	promoRedemptionsTotal.WithLabelValues(norm(reason)).Inc()
}

func IncPromoRedemptionRetry() { promoRedemptionRetriesTotal.Inc() }

func IncPromoRedemptionError() { promoRedemptionErrorsTotal.Inc() }
