// Package metrics provides Prometheus metrics for the bank engine.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bank engine.
type Metrics struct {
	// Query metrics
	QueriesProcessed *prometheus.CounterVec
	QueryFailures    *prometheus.CounterVec

	// RollbackFailures counts transfers that lost money to a failed
	// compensation. Any non-zero value means real balance inconsistency.
	RollbackFailures prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsDeleted prometheus.Counter

	// Queue metrics
	QueueDepth *prometheus.GaugeVec

	// Simulation metrics
	SimulationRuns     prometheus.Counter
	SimulationDuration prometheus.Histogram
}

// New creates a Metrics instance registered with reg under the given
// namespace. Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry in tests.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_processed_total",
			Help:      "Total number of successfully processed queries by kind",
		}, []string{"kind"}),
		QueryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_failures_total",
			Help:      "Total number of failed queries by kind and reason",
		}, []string{"kind", "reason"}),

		RollbackFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollback_failures_total",
			Help:      "Total number of money transfers whose compensation failed",
		}),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Total number of accounts created",
		}),
		AccountsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_deleted_total",
			Help:      "Total number of accounts deleted",
		}),

		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updater_queue_depth",
			Help:      "Pending queries per updater queue",
		}, []string{"branch", "updater"}),

		SimulationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_runs_total",
			Help:      "Total number of completed simulation runs",
		}),
		SimulationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time per simulation run in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// NewNop creates metrics backed by a private registry, for callers that
// do not want to publish anything.
func NewNop() *Metrics {
	return New("shardbank", prometheus.NewRegistry())
}

// QueryProcessed records a successfully processed query.
func (m *Metrics) QueryProcessed(kind string) {
	m.QueriesProcessed.WithLabelValues(kind).Inc()
}

// QueryFailed records a failed query.
func (m *Metrics) QueryFailed(kind, reason string) {
	m.QueryFailures.WithLabelValues(kind, reason).Inc()
}

// RecordSimulation records a completed simulation run.
func (m *Metrics) RecordSimulation(duration time.Duration) {
	m.SimulationRuns.Inc()
	m.SimulationDuration.Observe(duration.Seconds())
}

// SetQueueDepth updates the pending-query gauge for one updater.
func (m *Metrics) SetQueueDepth(branch, updater string, depth int) {
	m.QueueDepth.WithLabelValues(branch, updater).Set(float64(depth))
}

// Server runs an HTTP server exposing the /metrics endpoint.
type Server struct {
	server *http.Server
}

// NewServer creates a metrics server listening on addr, serving the
// metrics gathered by g.
func NewServer(addr string, g prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
