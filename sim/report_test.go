package sim

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReportPercentages(t *testing.T) {
	r := NewReport(uuid.New(), 200, 50, time.Second)

	assert.Equal(t, 150, r.Successful)
	assert.Equal(t, 50, r.Unsuccessful)
	assert.InDelta(t, 75.0, r.SuccessPercent(), 1e-9)
	assert.InDelta(t, 25.0, r.FailurePercent(), 1e-9)
	assert.InDelta(t, 200.0, r.Throughput(), 1e-9)
}

func TestReportEmptyRun(t *testing.T) {
	r := NewReport(uuid.New(), 0, 0, 0)

	assert.Zero(t, r.SuccessPercent())
	assert.Zero(t, r.FailurePercent())
	assert.Zero(t, r.Throughput())
}

func TestReportString(t *testing.T) {
	r := NewReport(uuid.New(), 200, 50, 1500*time.Millisecond)
	text := r.String()

	assert.Contains(t, text, "Total number of transactions = 200")
	assert.Contains(t, text, "Total number of successful transactions = 150")
	assert.Contains(t, text, "Total number of unsuccessful transactions = 50")
	assert.Contains(t, text, "% of successful transactions = 75.00%")
	assert.Contains(t, text, "% of unsuccessful transactions = 25.00%")
	assert.Contains(t, text, "Elapsed = 1500 ms")
}
