package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardbank/shardbank/bank"
)

func newTestSetup(t *testing.T, branches, updaters int, cfg Config) (*bank.Bank, *Simulator) {
	t.Helper()
	bk, err := bank.New(bank.Config{Branches: branches, UpdatersPerBranch: updaters}, nil, nil)
	require.NoError(t, err)
	bk.StartUpdaters()
	t.Cleanup(bk.ShutdownUpdaters)
	return bk, New(bk, cfg, nil, nil)
}

func TestInitializeAccounts(t *testing.T) {
	bk, s := newTestSetup(t, 2, 1, Config{AccountsPerBranch: 5})

	s.InitializeAccounts()

	for branch := 0; branch < 2; branch++ {
		issued, err := bk.IssuedAccounts(branch)
		require.NoError(t, err)
		assert.EqualValues(t, 5, issued)
	}

	balance, err := bk.Balance("0000000000")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, balance, MinInitialBalance)
	assert.Less(t, balance, MaxInitialBalance)
}

func TestSimulateMetricsAccuracy(t *testing.T) {
	_, s := newTestSetup(t, 2, 1, Config{
		AccountsPerBranch:      5,
		TransactionsPerUpdater: 100,
	})

	s.InitializeAccounts()
	elapsed, report, err := s.Simulate()
	require.NoError(t, err)
	require.NotNil(t, report)

	// 2 branches x 1 updater x 100 transactions.
	assert.Equal(t, 200, report.Total)
	assert.Equal(t, report.Total, report.Successful+report.Unsuccessful)
	assert.GreaterOrEqual(t, report.Successful, 0)
	assert.GreaterOrEqual(t, report.Unsuccessful, 0)
	assert.InDelta(t, 100.0, report.SuccessPercent()+report.FailurePercent(), 0.01)
	assert.Greater(t, elapsed.Nanoseconds(), int64(0))
}

func TestSimulateRestartsUpdaters(t *testing.T) {
	bk, s := newTestSetup(t, 2, 2, Config{
		AccountsPerBranch:      10,
		TransactionsPerUpdater: 50,
	})
	s.InitializeAccounts()

	before, err := bk.Updater(0, 0)
	require.NoError(t, err)

	_, first, err := s.Simulate()
	require.NoError(t, err)

	after, err := bk.Updater(0, 0)
	require.NoError(t, err)
	assert.NotSame(t, before, after, "pools must be freshly constructed after a run")

	// A second run starts clean on the fresh pools.
	_, second, err := s.Simulate()
	require.NoError(t, err)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, second.Total, second.Successful+second.Unsuccessful)
}

func TestSimulateSingleBranch(t *testing.T) {
	// With one branch the account-transfer draw has no other branch to
	// target; the run must still terminate.
	_, s := newTestSetup(t, 1, 2, Config{
		AccountsPerBranch:      5,
		TransactionsPerUpdater: 200,
	})
	s.InitializeAccounts()

	_, report, err := s.Simulate()
	require.NoError(t, err)
	assert.Equal(t, 400, report.Total)
	assert.Equal(t, report.Total, report.Successful+report.Unsuccessful)
}

func TestFailureCountersResetBetweenRuns(t *testing.T) {
	bk, s := newTestSetup(t, 1, 1, Config{
		AccountsPerBranch:      1,
		TransactionsPerUpdater: 0,
	})
	s.InitializeAccounts()

	// Queue two guaranteed failures outside the generator path, then an
	// empty run: its report must not re-count drained failures from a
	// replaced pool.
	u, err := bk.Updater(0, 0)
	require.NoError(t, err)
	u.SubmitQuery(bank.BalanceCheck{Account: "0000000099"})
	u.SubmitQuery(bank.BalanceCheck{Account: "0000000099"})

	_, first, err := s.Simulate()
	require.NoError(t, err)
	// Pre-run failures drain through the same counters the report reads.
	assert.Equal(t, 0, first.Total)
	assert.Equal(t, 2, first.Unsuccessful)

	// The read was also a reset, and the pool is fresh: a second empty
	// run reports nothing.
	_, second, err := s.Simulate()
	require.NoError(t, err)
	assert.Zero(t, second.Unsuccessful)
}
