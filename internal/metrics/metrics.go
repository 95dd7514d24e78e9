// Package metrics exposes the service's Prometheus collectors.
//
// All methods are safe to call on a nil *Metrics, so components can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitledger"

// Transaction results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultPartial  = "partial"
	ResultDeferred = "deferred"
)

// Metrics holds the collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	transactions    *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	limitRejections prometheus.Counter
	inconsistencies *prometheus.CounterVec
	redistributions *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them, along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Logical ledger transactions by operation and result.",
		}, []string{"operation", "result"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Compensating steps run after a failed transaction step.",
		}, []string{"operation", "result"}),
		limitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_limit_rejections_total",
			Help:      "Outcomes rejected because they would exceed a category limit.",
		}),
		inconsistencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inconsistencies_total",
			Help:      "Inconsistency markers left by failed compensations.",
		}, []string{"operation"}),
		redistributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debt_redistributions_total",
			Help:      "Debt redistributions by result.",
		}, []string{"result"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Profile total recomputations by result.",
		}, []string{"result"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling time by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transactions,
		m.compensations,
		m.limitRejections,
		m.inconsistencies,
		m.redistributions,
		m.reconciliations,
		m.rpcDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Transaction(operation, result string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) Compensation(operation string, err error) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(operation, resultOf(err)).Inc()
}

func (m *Metrics) LimitRejected() {
	if m == nil {
		return
	}
	m.limitRejections.Inc()
}

func (m *Metrics) Inconsistency(operation string) {
	if m == nil {
		return
	}
	m.inconsistencies.WithLabelValues(operation).Inc()
}

func (m *Metrics) Redistribution(err error) {
	if m == nil {
		return
	}
	m.redistributions.WithLabelValues(resultOf(err)).Inc()
}

func (m *Metrics) Reconciliation(err error) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(resultOf(err)).Inc()
}

// ReconciliationDeferred counts a recompute postponed because the profile
// had transactions in flight.
func (m *Metrics) ReconciliationDeferred() {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(ResultDeferred).Inc()
}

// RPC records how long a procedure took and the code it returned.
func (m *Metrics) RPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())
}

func resultOf(err error) string {
	if err != nil {
		return "error"
	}
	return ResultOK
}
