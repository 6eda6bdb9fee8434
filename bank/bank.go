package bank

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shardbank/shardbank/metrics"
)

// MaxBranches bounds the branch count: account numbers reserve exactly
// one leading digit for the owning branch.
const MaxBranches = 10

// Config fixes bank-wide sizing at construction time.
type Config struct {
	Branches          int `mapstructure:"branches"`
	UpdatersPerBranch int `mapstructure:"updaters_per_branch"`
}

// DefaultConfig returns the reference sizing: 10 branches with 10
// updaters each.
func DefaultConfig() Config {
	return Config{Branches: 10, UpdatersPerBranch: 10}
}

// Bank routes queries to branches by the leading digit of the account
// number and implements the two cross-branch operations. Each Bank owns
// its branch array; there is no ambient global instance.
type Bank struct {
	branches []*Branch
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New constructs a bank. The updaters are created but not running; call
// StartUpdaters before submitting queries. A nil logger or metrics is
// replaced with a no-op instance.
func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Bank, error) {
	if cfg.Branches < 1 || cfg.Branches > MaxBranches {
		return nil, fmt.Errorf("%w: branches must be in [1, %d], got %d",
			ErrInvalidArgument, MaxBranches, cfg.Branches)
	}
	if cfg.UpdatersPerBranch < 1 {
		return nil, fmt.Errorf("%w: updaters per branch must be positive, got %d",
			ErrInvalidArgument, cfg.UpdatersPerBranch)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}

	bk := &Bank{logger: logger, metrics: m}
	bk.branches = make([]*Branch, cfg.Branches)
	for i := range bk.branches {
		bk.branches[i] = newBranch(i, bk, cfg.UpdatersPerBranch)
	}
	return bk, nil
}

// BranchCount returns the number of branches.
func (bk *Bank) BranchCount() int { return len(bk.branches) }

// UpdatersPerBranch returns the fixed pool size of every branch.
func (bk *Bank) UpdatersPerBranch() int {
	bk.branches[0].mu.RLock()
	defer bk.branches[0].mu.RUnlock()
	return len(bk.branches[0].updaters)
}

// Branch returns the branch with the given id.
func (bk *Bank) Branch(id int) (*Branch, error) {
	if id < 0 || id >= len(bk.branches) {
		return nil, fmt.Errorf("%w: branch id %d out of range [0, %d)",
			ErrInvalidArgument, id, len(bk.branches))
	}
	return bk.branches[id], nil
}

// Updater returns one member of a branch's updater pool.
func (bk *Bank) Updater(branchID, index int) (*Updater, error) {
	branch, err := bk.Branch(branchID)
	if err != nil {
		return nil, err
	}
	return branch.Updater(index)
}

// IssuedAccounts returns how many account numbers the branch has issued.
func (bk *Bank) IssuedAccounts(branchID int) (int64, error) {
	branch, err := bk.Branch(branchID)
	if err != nil {
		return 0, err
	}
	return branch.IssuedAccounts(), nil
}

// branchFor resolves the owning branch from the leading digit of an
// account number. Callers must never construct a number whose prefix
// disagrees with where the account is stored.
func (bk *Bank) branchFor(number string) (*Branch, error) {
	if number == "" {
		return nil, fmt.Errorf("%w: empty account number", ErrInvalidArgument)
	}
	id := int(number[0] - '0')
	if id < 0 || id > 9 || id >= len(bk.branches) {
		return nil, fmt.Errorf("%w: account number %q resolves to no branch",
			ErrInvalidArgument, number)
	}
	return bk.branches[id], nil
}

// Balance returns the balance of the account with the given number.
func (bk *Bank) Balance(number string) (float64, error) {
	branch, err := bk.branchFor(number)
	if err != nil {
		return 0, err
	}
	return branch.Balance(number)
}

// Deposit adds amount to the account and returns the new balance.
func (bk *Bank) Deposit(number string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative amount %.2f", ErrInvalidArgument, amount)
	}
	branch, err := bk.branchFor(number)
	if err != nil {
		return 0, err
	}
	return branch.Deposit(number, amount)
}

// Withdraw subtracts amount from the account and returns the new balance.
func (bk *Bank) Withdraw(number string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative amount %.2f", ErrInvalidArgument, amount)
	}
	branch, err := bk.branchFor(number)
	if err != nil {
		return 0, err
	}
	return branch.Withdraw(number, amount)
}

// DeleteAccount removes the account and returns it.
func (bk *Bank) DeleteAccount(number string) (*Account, error) {
	branch, err := bk.branchFor(number)
	if err != nil {
		return nil, err
	}
	acct, err := branch.DeleteAccount(number)
	if err != nil {
		return nil, err
	}
	bk.metrics.AccountsDeleted.Inc()
	return acct, nil
}

// AddCustomer opens a new account at the given branch with an initial
// deposit and returns it.
func (bk *Bank) AddCustomer(branchID int, initialDeposit float64) (*Account, error) {
	if initialDeposit < 0 {
		return nil, fmt.Errorf("%w: negative initial deposit %.2f",
			ErrInvalidArgument, initialDeposit)
	}
	branch, err := bk.Branch(branchID)
	if err != nil {
		return nil, err
	}
	acct := branch.CreateAccount(initialDeposit)
	bk.metrics.AccountsCreated.Inc()
	return acct, nil
}

// TransferMoney withdraws amount from one account and deposits it into
// another, possibly on a different branch. The two legs are not atomic:
// no lock spans both branches. When the deposit leg fails, the withdrawn
// amount is re-deposited into the source account and the transfer fails
// with ErrTransferRolledBack. When that compensation also fails the bank
// has lost track of amount; the distinct ErrRollbackFailed is returned so
// callers surface it loudly instead of counting it as an ordinary miss.
func (bk *Bank) TransferMoney(from, to string, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative amount %.2f", ErrInvalidArgument, amount)
	}
	src, err := bk.branchFor(from)
	if err != nil {
		return err
	}
	if _, err := src.Withdraw(from, amount); err != nil {
		return err
	}

	dst, err := bk.branchFor(to)
	if err == nil {
		if _, err = dst.Deposit(to, amount); err == nil {
			return nil
		}
	}
	return bk.compensate(src, from, amount, err)
}

// compensate re-deposits a withdrawn amount after a failed deposit leg.
func (bk *Bank) compensate(src *Branch, from string, amount float64, cause error) error {
	if _, err := src.Deposit(from, amount); err != nil {
		bk.metrics.RollbackFailures.Inc()
		return fmt.Errorf("%w: deposit leg: %v; compensation: %v",
			ErrRollbackFailed, cause, err)
	}
	return fmt.Errorf("%w: deposit leg: %v", ErrTransferRolledBack, cause)
}

// TransferCustomerAccount moves an account to another branch. The balance
// read and the deletion on the source branch run as one critical section,
// serialized with every other account transfer out of that branch, so the
// balance cannot go stale between read and delete. The account then
// reappears at the destination under a fresh number.
func (bk *Bank) TransferCustomerAccount(number string, destBranchID int) (*Account, error) {
	src, err := bk.branchFor(number)
	if err != nil {
		return nil, err
	}
	dst, err := bk.Branch(destBranchID)
	if err != nil {
		return nil, err
	}

	src.transferMu.Lock()
	balance, err := src.Balance(number)
	if err == nil {
		_, err = src.DeleteAccount(number)
	}
	src.transferMu.Unlock()
	if err != nil {
		return nil, err
	}

	return dst.CreateAccount(balance), nil
}

// StartUpdaters launches every updater's run loop.
func (bk *Bank) StartUpdaters() {
	bk.forEachUpdater(func(u *Updater) { u.Start() })
}

// ShutdownUpdaters submits a trailing shutdown query to every updater and
// waits until every queue has drained and every run loop has terminated.
func (bk *Bank) ShutdownUpdaters() {
	bk.forEachUpdater(func(u *Updater) { u.SubmitQuery(Shutdown{}) })
	bk.forEachUpdater(func(u *Updater) { u.Join() })
}

// RestartUpdaters replaces every branch's pool with freshly constructed
// updaters bound to the same branches and starts them. The previous pools
// must already be shut down; pool sizes never change.
func (bk *Bank) RestartUpdaters() {
	for _, branch := range bk.branches {
		for _, u := range branch.replaceUpdaters(bk) {
			u.Start()
		}
	}
}

func (bk *Bank) forEachUpdater(fn func(*Updater)) {
	for _, branch := range bk.branches {
		branch.mu.RLock()
		pool := append([]*Updater(nil), branch.updaters...)
		branch.mu.RUnlock()
		for _, u := range pool {
			fn(u)
		}
	}
}
