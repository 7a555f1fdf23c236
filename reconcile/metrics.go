package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders created from gateway-B redirect returns.",
	}, []string{"verification"})

	duplicateCallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_duplicate_callbacks_total",
		Help: "Redirect callbacks suppressed by the single-shot guard.",
	})

	unverifiedRedirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_unverified_redirects_total",
		Help: "Orders created on redirect evidence alone, flagged for manual reconciliation.",
	})
)
