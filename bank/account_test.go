package bank

import (
	"errors"
	"sync"
	"testing"
)

func TestAccountDepositWithdraw(t *testing.T) {
	acct := newAccount("0000000000", 100)

	if got := acct.Deposit(50); got != 150 {
		t.Errorf("Expected balance 150 after deposit, got %.2f", got)
	}

	got, err := acct.Withdraw(30)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if got != 120 {
		t.Errorf("Expected balance 120 after withdrawal, got %.2f", got)
	}
	if acct.Balance() != 120 {
		t.Errorf("Expected balance 120, got %.2f", acct.Balance())
	}
}

func TestAccountWithdrawInsufficientFunds(t *testing.T) {
	acct := newAccount("0000000000", 40)

	_, err := acct.Withdraw(41)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// A failed withdrawal must not mutate the balance.
	if acct.Balance() != 40 {
		t.Errorf("Expected balance unchanged at 40, got %.2f", acct.Balance())
	}
}

func TestAccountNumberImmutable(t *testing.T) {
	acct := newAccount("7000000042", 0)
	acct.Deposit(10)
	if acct.Number() != "7000000042" {
		t.Errorf("Expected number 7000000042, got %s", acct.Number())
	}
}

func TestAccountConcurrentMutations(t *testing.T) {
	acct := newAccount("0000000000", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				acct.Deposit(1)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := acct.Withdraw(1); err != nil {
					t.Errorf("Unexpected withdraw failure: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Deposits and withdrawals cancel out exactly when read-modify-write
	// is atomic per account.
	if acct.Balance() != 1000 {
		t.Errorf("Expected balance 1000 after balanced load, got %.2f", acct.Balance())
	}
}
