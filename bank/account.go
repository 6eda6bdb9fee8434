package bank

import (
	"fmt"
	"sync"
)

// Account is a single bank account. Balance mutations are serialized on
// the account's own mutex, so concurrent read-modify-write calls against
// the same account never interleave.
type Account struct {
	number string

	mu      sync.Mutex
	balance float64
}

func newAccount(number string, balance float64) *Account {
	return &Account{number: number, balance: balance}
}

// Number returns the account number. It is immutable after creation.
func (a *Account) Number() string { return a.number }

// Deposit adds amount to the balance and returns the new balance.
func (a *Account) Deposit(amount float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance += amount
	return a.balance
}

// Withdraw subtracts amount from the balance and returns the new balance.
// When amount exceeds the balance nothing is mutated and
// ErrInsufficientFunds is returned.
func (a *Account) Withdraw(amount float64) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount > a.balance {
		return a.balance, fmt.Errorf("%w: account %s has %.2f, requested %.2f",
			ErrInsufficientFunds, a.number, a.balance, amount)
	}
	a.balance -= amount
	return a.balance, nil
}

// Balance returns the current balance.
func (a *Account) Balance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}
