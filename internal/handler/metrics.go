package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var webhookRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "storefront",
	Name:      "webhook_rejected_total",
	Help:      "Webhook requests rejected before processing.",
})
