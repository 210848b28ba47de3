package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "checkouts_total",
		Help:      "Total number of checkout attempts by outcome.",
	}, []string{"outcome"})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "payments",
		Name:      "reconciliations_total",
		Help:      "Payment status transitions applied, by trigger and result.",
	}, []string{"trigger", "result"})

	notifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "notification_failures_total",
		Help:      "Order-created notifications that could not be published.",
	})

	stockRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "inventory",
		Name:      "reservation_rollbacks_total",
		Help:      "Compensating stock restores after a failed checkout batch.",
	})
)
