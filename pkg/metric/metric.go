// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all collectors for the ad network.
type Metrics struct {
	registry *prometheus.Registry

	// Dispatch metrics
	Dispatches      prometheus.Counter
	EmptyDispatches prometheus.Counter

	// Impression metrics
	ViewsCredited prometheus.Counter
	ViewsRejected prometheus.Counter

	// Settlement metrics
	TransfersSettled prometheus.Counter
	TransfersFailed  prometheus.Counter
	Inconsistencies  prometheus.Counter
	TokensSpentE8s   prometheus.Counter
	ViewsCashedOut   prometheus.Counter

	// API metrics
	RequestsProcessed *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Dispatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "dispatches_total",
		Help:      "Total number of ads dispatched with a viewing ticket",
	})
	m.EmptyDispatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "dispatches_empty_total",
		Help:      "Total number of dispatch requests with no eligible ad",
	})
	m.ViewsCredited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "views_credited_total",
		Help:      "Total number of views credited after the dwell interval",
	})
	m.ViewsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "views_rejected_total",
		Help:      "Total number of redemption attempts rejected",
	})
	m.TransfersSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "transfers_settled_total",
		Help:      "Total number of ledger transfers settled",
	})
	m.TransfersFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "transfers_failed_total",
		Help:      "Total number of ledger transfers rejected",
	})
	m.Inconsistencies = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "settlement_inconsistencies_total",
		Help:      "Mutations that failed after a settled transfer (manual reconciliation)",
	})
	m.TokensSpentE8s = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "tokens_spent_e8s_total",
		Help:      "Total minor units transferred for paid mutations",
	})
	m.ViewsCashedOut = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "views_cashed_out_total",
		Help:      "Total views converted to token credits at cash-out",
	})
	m.RequestsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adnet",
		Name:      "api_requests_processed_total",
		Help:      "Total number of API requests processed",
	}, []string{"method", "status"})

	collectors := []prometheus.Collector{
		m.Dispatches,
		m.EmptyDispatches,
		m.ViewsCredited,
		m.ViewsRejected,
		m.TransfersSettled,
		m.TransfersFailed,
		m.Inconsistencies,
		m.TokensSpentE8s,
		m.ViewsCashedOut,
		m.RequestsProcessed,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry backing the collectors, for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
