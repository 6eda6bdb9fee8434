package bank

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Branch owns the accounts whose numbers carry its leading digit, the
// allocator handing out new account numbers, and a fixed-size pool of
// updaters. The account table is shared by every updater and the router;
// per-account exclusivity lives in Account itself.
type Branch struct {
	id       int
	accounts sync.Map // account number -> *Account
	nextSeq  atomic.Int64

	// transferMu serializes read-balance-then-delete sequences for
	// account transfers out of this branch. Transfers out of other
	// branches are unaffected.
	transferMu sync.Mutex

	mu       sync.RWMutex // guards updaters across restarts
	updaters []*Updater
}

func newBranch(id int, bk *Bank, updatersPerBranch int) *Branch {
	b := &Branch{id: id}
	b.updaters = make([]*Updater, updatersPerBranch)
	for i := range b.updaters {
		b.updaters[i] = NewUpdater(i, id, bk)
	}
	return b
}

// ID returns the branch id, the leading digit of its account numbers.
func (b *Branch) ID() int { return b.id }

// CreateAccount allocates the next account number, inserts an account
// with the given balance and returns it. The allocator is monotonic:
// numbers are unique within the branch and never reused, even after
// deletion.
func (b *Branch) CreateAccount(balance float64) *Account {
	seq := b.nextSeq.Add(1) - 1
	acct := newAccount(fmt.Sprintf("%d%09d", b.id, seq), balance)
	b.accounts.Store(acct.Number(), acct)
	return acct
}

func (b *Branch) lookup(number string) (*Account, error) {
	v, ok := b.accounts.Load(number)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, number)
	}
	return v.(*Account), nil
}

// Balance returns the balance of the account with the given number.
func (b *Branch) Balance(number string) (float64, error) {
	acct, err := b.lookup(number)
	if err != nil {
		return 0, err
	}
	return acct.Balance(), nil
}

// Deposit adds amount to the account and returns the new balance.
func (b *Branch) Deposit(number string, amount float64) (float64, error) {
	acct, err := b.lookup(number)
	if err != nil {
		return 0, err
	}
	return acct.Deposit(amount), nil
}

// Withdraw subtracts amount from the account and returns the new balance.
func (b *Branch) Withdraw(number string, amount float64) (float64, error) {
	acct, err := b.lookup(number)
	if err != nil {
		return 0, err
	}
	return acct.Withdraw(amount)
}

// DeleteAccount removes the account from the branch and returns it. The
// freed number is never reissued.
func (b *Branch) DeleteAccount(number string) (*Account, error) {
	v, ok := b.accounts.LoadAndDelete(number)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, number)
	}
	return v.(*Account), nil
}

// IssuedAccounts returns how many account numbers this branch has ever
// handed out. The workload generator draws random numbers from this
// range; some may already be deleted.
func (b *Branch) IssuedAccounts() int64 {
	return b.nextSeq.Load()
}

// Updater returns the pool member at the given index.
func (b *Branch) Updater(index int) (*Updater, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.updaters) {
		return nil, fmt.Errorf("%w: updater index %d out of range [0, %d)",
			ErrInvalidArgument, index, len(b.updaters))
	}
	return b.updaters[index], nil
}

// replaceUpdaters swaps in a freshly constructed pool of the same size
// and returns it. The previous pool must already be terminated.
func (b *Branch) replaceUpdaters(bk *Bank) []*Updater {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.updaters {
		b.updaters[i] = NewUpdater(i, b.id, bk)
	}
	return append([]*Updater(nil), b.updaters...)
}
