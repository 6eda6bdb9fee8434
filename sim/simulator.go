package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shardbank/shardbank/bank"
	"github.com/shardbank/shardbank/metrics"
)

// Ranges for generated load. Initial balances and transaction amounts are
// drawn uniformly from [min, max).
const (
	MinInitialBalance = 100.0
	MaxInitialBalance = 10000.0
	MinAmount         = 1.0
	MaxAmount         = 1000.0
)

// Config parameterizes one simulator.
type Config struct {
	AccountsPerBranch      int  `mapstructure:"accounts_per_branch"`
	TransactionsPerUpdater int  `mapstructure:"transactions_per_updater"`
	SaveLogs               bool `mapstructure:"save_logs"`
}

// Simulator populates a bank with random accounts and pushes weighted
// random load through every updater queue.
type Simulator struct {
	bank    *bank.Bank
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New constructs a simulator for the given bank. A nil logger or metrics
// is replaced with a no-op instance.
func New(bk *bank.Bank, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Simulator{bank: bk, cfg: cfg, logger: logger.Named("sim"), metrics: m}
}

// InitializeAccounts creates cfg.AccountsPerBranch accounts in every
// branch with balances uniform in [MinInitialBalance, MaxInitialBalance).
func (s *Simulator) InitializeAccounts() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for branch := 0; branch < s.bank.BranchCount(); branch++ {
		for i := 0; i < s.cfg.AccountsPerBranch; i++ {
			balance := MinInitialBalance + (MaxInitialBalance-MinInitialBalance)*rng.Float64()
			if _, err := s.bank.AddCustomer(branch, balance); err != nil {
				// Branch ids come from BranchCount, so this cannot happen.
				s.logger.Error("account initialization failed", zap.Error(err))
			}
		}
		if s.cfg.SaveLogs {
			s.logger.Info("branch initialized",
				zap.Int("branch", branch),
				zap.Int("accounts", s.cfg.AccountsPerBranch))
		}
	}
}

// Simulate runs one full load cycle:
//  1. broadcasts the logging toggle to every updater,
//  2. runs one generator goroutine per (branch, updater) producing
//     TransactionsPerUpdater queries each,
//  3. waits for every generator to finish producing,
//  4. broadcasts shutdown and waits for every queue to drain,
//  5. collects the aggregate report from the terminated updaters,
//  6. replaces every pool with fresh updaters and starts them.
//
// On return the bank is ready for another run.
func (s *Simulator) Simulate() (time.Duration, *Report, error) {
	runID := uuid.New()
	log := s.logger.With(zap.String("run", runID.String()))

	s.broadcast(bank.SetLogging{Enabled: s.cfg.SaveLogs})

	if s.cfg.SaveLogs {
		log.Info("simulation starting")
	}
	start := time.Now()

	var wg sync.WaitGroup
	for branchID := 0; branchID < s.bank.BranchCount(); branchID++ {
		for i := 0; i < s.bank.UpdatersPerBranch(); i++ {
			u, err := s.bank.Updater(branchID, i)
			if err != nil {
				return 0, nil, fmt.Errorf("resolving updater %d-%d: %w", branchID, i, err)
			}
			wg.Add(1)
			go func(branchID int, u *bank.Updater) {
				defer wg.Done()
				s.generate(branchID, u)
			}(branchID, u)
		}
	}

	// Generators done producing; consumption may still be in flight.
	wg.Wait()

	// Trailing shutdown per queue guarantees a full drain before the
	// run loop exits.
	s.bank.ShutdownUpdaters()

	elapsed := time.Since(start)
	if s.cfg.SaveLogs {
		log.Info("simulation completed", zap.Duration("elapsed", elapsed))
	}

	// Counters must be read from the terminated updaters before the
	// pools are replaced.
	report := s.collect(runID, elapsed)
	s.metrics.RecordSimulation(elapsed)

	s.bank.RestartUpdaters()

	return elapsed, report, nil
}

// generate produces TransactionsPerUpdater random queries for one
// updater, blocking on its queue when full.
func (s *Simulator) generate(branchID int, u *bank.Updater) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(branchID)<<32 ^ int64(u.ID())))
	for i := 0; i < s.cfg.TransactionsPerUpdater; i++ {
		u.SubmitQuery(s.randomQuery(rng, branchID))
	}
}

// randomQuery draws one query from the fixed weighted distribution:
// 30% balance check, 23% deposit, 23% withdrawal, 23% transfer, 0.3% add
// customer, 0.3% delete customer, rest account transfer.
func (s *Simulator) randomQuery(rng *rand.Rand, branchID int) bank.Query {
	r := rng.Float64()
	switch {
	case r < 0.30:
		return bank.BalanceCheck{Account: s.randomAccount(rng, branchID)}
	case r < 0.53:
		return bank.Deposit{
			Account: s.randomAccount(rng, branchID),
			Amount:  s.randomAmount(rng),
		}
	case r < 0.76:
		return bank.Withdrawal{
			Account: s.randomAccount(rng, branchID),
			Amount:  s.randomAmount(rng),
		}
	case r < 0.99:
		dest := rng.Intn(s.bank.BranchCount())
		return bank.TransferMoney{
			From:   s.randomAccount(rng, branchID),
			To:     s.randomAccount(rng, dest),
			Amount: s.randomAmount(rng),
		}
	case r < 0.993:
		return bank.AddCustomer{InitialDeposit: s.randomAmount(rng)}
	case r < 0.996:
		return bank.DeleteCustomer{Account: s.randomAccount(rng, branchID)}
	default:
		dest := branchID
		for s.bank.BranchCount() > 1 && dest == branchID {
			dest = rng.Intn(s.bank.BranchCount())
		}
		return bank.TransferCustomerAccount{
			Account:    s.randomAccount(rng, branchID),
			DestBranch: dest,
		}
	}
}

// randomAccount picks a number uniformly from the branch's issued range.
// Deleted accounts stay in the range, so the draw may name a missing
// account; those queries fail and are counted, not retried.
func (s *Simulator) randomAccount(rng *rand.Rand, branchID int) string {
	issued, err := s.bank.IssuedAccounts(branchID)
	if err != nil || issued == 0 {
		return fmt.Sprintf("%d%09d", branchID, 0)
	}
	return fmt.Sprintf("%d%09d", branchID, rng.Int63n(issued))
}

func (s *Simulator) randomAmount(rng *rand.Rand) float64 {
	return MinAmount + (MaxAmount-MinAmount)*rng.Float64()
}

// broadcast submits a query to every updater.
func (s *Simulator) broadcast(q bank.Query) {
	for branchID := 0; branchID < s.bank.BranchCount(); branchID++ {
		for i := 0; i < s.bank.UpdatersPerBranch(); i++ {
			if u, err := s.bank.Updater(branchID, i); err == nil {
				u.SubmitQuery(q)
			}
		}
	}
}

// collect aggregates per-updater failure counters into a report. Every
// counter is read-and-reset.
func (s *Simulator) collect(runID uuid.UUID, elapsed time.Duration) *Report {
	total := s.bank.BranchCount() * s.bank.UpdatersPerBranch() * s.cfg.TransactionsPerUpdater
	var failed int64
	for branchID := 0; branchID < s.bank.BranchCount(); branchID++ {
		for i := 0; i < s.bank.UpdatersPerBranch(); i++ {
			if u, err := s.bank.Updater(branchID, i); err == nil {
				failed += u.Failures()
			}
		}
	}
	return NewReport(runID, total, int(failed), elapsed)
}
