package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report aggregates the outcome of one simulation run.
type Report struct {
	RunID        uuid.UUID     `json:"run_id"`
	Total        int           `json:"total"`
	Successful   int           `json:"successful"`
	Unsuccessful int           `json:"unsuccessful"`
	Elapsed      time.Duration `json:"elapsed"`
}

// NewReport builds a report from the transaction total and the summed
// failure counters.
func NewReport(runID uuid.UUID, total, unsuccessful int, elapsed time.Duration) *Report {
	return &Report{
		RunID:        runID,
		Total:        total,
		Successful:   total - unsuccessful,
		Unsuccessful: unsuccessful,
		Elapsed:      elapsed,
	}
}

// SuccessPercent returns the share of successful transactions.
func (r *Report) SuccessPercent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successful) / float64(r.Total) * 100
}

// FailurePercent returns the share of unsuccessful transactions.
func (r *Report) FailurePercent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Unsuccessful) / float64(r.Total) * 100
}

// Throughput returns processed transactions per second.
func (r *Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Total) / r.Elapsed.Seconds()
}

// String renders the metrics text shown after a run.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "Total number of transactions = %d\n", r.Total)
	fmt.Fprintf(&b, "Total number of successful transactions = %d\n", r.Successful)
	fmt.Fprintf(&b, "Total number of unsuccessful transactions = %d\n", r.Unsuccessful)
	fmt.Fprintf(&b, "%% of successful transactions = %.2f%%\n", r.SuccessPercent())
	fmt.Fprintf(&b, "%% of unsuccessful transactions = %.2f%%\n", r.FailurePercent())
	fmt.Fprintf(&b, "Elapsed = %d ms\n", r.Elapsed.Milliseconds())
	return b.String()
}
