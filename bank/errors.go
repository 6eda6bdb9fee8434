package bank

import "errors"

// Common errors for bank operations
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidArgument   = errors.New("invalid argument")

	// ErrTransferRolledBack reports a money transfer whose deposit leg
	// failed and whose compensating re-deposit into the source account
	// succeeded. Net effect: no money moved.
	ErrTransferRolledBack = errors.New("transfer failed, rollback succeeded")

	// ErrRollbackFailed reports a money transfer whose deposit leg and
	// compensating re-deposit both failed. The withdrawn amount is no
	// longer credited anywhere and automatic recovery is impossible, so
	// this must be surfaced loudly, never treated as an ordinary failure.
	ErrRollbackFailed = errors.New("transfer and rollback failed, balance inconsistency")
)

// FailureReason maps an operation error to a stable label for metrics
// and logs.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrRollbackFailed):
		return "rollback_failed"
	case errors.Is(err, ErrTransferRolledBack):
		return "transfer_rolled_back"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "unexpected"
	}
}
