package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueryCounters(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.QueryProcessed("deposit")
	m.QueryProcessed("deposit")
	m.QueryFailed("withdrawal", "insufficient_funds")

	if got := testutil.ToFloat64(m.QueriesProcessed.WithLabelValues("deposit")); got != 2 {
		t.Errorf("Expected 2 processed deposits, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueryFailures.WithLabelValues("withdrawal", "insufficient_funds")); got != 1 {
		t.Errorf("Expected 1 withdrawal failure, got %v", got)
	}
}

func TestRollbackFailureCounter(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RollbackFailures.Inc()
	if got := testutil.ToFloat64(m.RollbackFailures); got != 1 {
		t.Errorf("Expected 1 rollback failure, got %v", got)
	}
}

func TestRecordSimulation(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordSimulation(2 * time.Second)
	m.RecordSimulation(time.Second)

	if got := testutil.ToFloat64(m.SimulationRuns); got != 2 {
		t.Errorf("Expected 2 simulation runs, got %v", got)
	}
}

func TestQueueDepthGauge(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.SetQueueDepth("3", "1", 42)
	if got := testutil.ToFloat64(m.QueueDepth.WithLabelValues("3", "1")); got != 42 {
		t.Errorf("Expected queue depth 42, got %v", got)
	}
}
