package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_submitted_total",
		Help: "Checkout submissions that produced a pending payment.",
	})

	SubmissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_rejected_total",
		Help: "Checkout submissions rejected before any state was created.",
	}, []string{"reason"})

	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_callbacks_total",
		Help: "Gateway callbacks received, by result.",
	}, []string{"result"})

	DuplicateCallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_duplicate_callbacks_total",
		Help: "Callbacks that found no matching pending record.",
	})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders materialized from confirmed payments.",
	})

	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_cancelled_total",
		Help: "Orders cancelled by owner or admin.",
	})

	PendingExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_pending_expired_total",
		Help: "Pending payments expired by the sweeper.",
	})

	MaterializationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_payment_materialization_failures_total",
		Help: "Confirmed payments whose order could not be written; these need manual reconciliation.",
	})
)
