package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeops_checkouts_total",
		Help: "Checkout attempts, labeled by outcome",
	}, []string{"outcome"})

	checkoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storeops_checkout_duration_seconds",
		Help:    "Latency of complete checkout calls",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	checkoutRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storeops_checkout_retries_total",
		Help: "Checkouts restarted after a concurrent stock change",
	})

	inconsistenciesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeops_checkout_inconsistencies_total",
		Help: "Checkouts that left stock and history out of step",
	}, []string{"kind"})
)
