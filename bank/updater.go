package bank

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// QueueCapacity bounds each updater's query queue. Submissions block once
// the queue is full; queries are never dropped.
const QueueCapacity = 1000

// resultTimeFormat stamps result lines, e.g. 14:03:59.123.
const resultTimeFormat = "15:04:05.000"

// Updater is a sequential query consumer bound to one branch. It
// processes exactly one request at a time in FIFO order. No ordering is
// guaranteed across updaters, even within the same branch; correctness
// under racing updaters rests on per-account mutual exclusion.
type Updater struct {
	id       int
	branchID int
	bank     *Bank

	queue chan Request
	done  chan struct{}

	// logging is owned by the run loop goroutine and toggled only via
	// SetLogging queries, so it needs no synchronization.
	logging  bool
	failures atomic.Int64

	logger *zap.Logger
}

// NewUpdater constructs an updater bound to one branch. The run loop is
// not started; call Start.
func NewUpdater(id, branchID int, bk *Bank) *Updater {
	return &Updater{
		id:       id,
		branchID: branchID,
		bank:     bk,
		queue:    make(chan Request, QueueCapacity),
		done:     make(chan struct{}),
		logger: bk.logger.Named("updater").With(
			zap.Int("branch", branchID),
			zap.Int("updater", id),
		),
	}
}

// ID returns the updater's index within its branch pool.
func (u *Updater) ID() int { return u.id }

// BranchID returns the id of the branch this updater serves.
func (u *Updater) BranchID() int { return u.branchID }

// Submit enqueues a request. It blocks while the queue is at capacity and
// never drops the request.
func (u *Updater) Submit(req Request) {
	u.queue <- req
}

// SubmitQuery enqueues a fire-and-forget query.
func (u *Updater) SubmitQuery(q Query) {
	u.Submit(Request{Query: q})
}

// SubmitWait enqueues a query with a reply slot and returns the slot. The
// processing updater sends exactly one timestamped result line. The core
// imposes no timeout; callers wanting one must wrap the receive in their
// own select.
func (u *Updater) SubmitWait(q Query) <-chan string {
	reply := make(chan string, 1)
	u.Submit(Request{Query: q, Reply: reply})
	return reply
}

// QueueDepth returns the number of pending requests.
func (u *Updater) QueueDepth() int { return len(u.queue) }

// Failures returns the failure counter and resets it to zero.
func (u *Updater) Failures() int64 { return u.failures.Swap(0) }

// Start launches the run loop goroutine.
func (u *Updater) Start() { go u.run() }

// Join blocks until the run loop has terminated.
func (u *Updater) Join() { <-u.done }

// run consumes the queue until a shutdown query arrives. Every request
// ahead of the shutdown is fully processed first.
func (u *Updater) run() {
	defer close(u.done)
	for req := range u.queue {
		switch q := req.Query.(type) {
		case Shutdown:
			if u.logging {
				u.logger.Info("updater completed its tasks")
			}
			return
		case SetLogging:
			u.logging = q.Enabled
			u.fulfill(req, fmt.Sprintf("set logging to %v", q.Enabled))
			continue
		}
		u.process(req)
	}
}

// process dispatches one query, converting every failure into a result
// line and a counter increment. No failure propagates out of the run
// loop: only an explicit shutdown query terminates the updater.
func (u *Updater) process(req Request) {
	kind := req.Query.Kind()
	result, err := u.dispatch(req.Query)
	if err != nil {
		u.failures.Add(1)
		u.bank.metrics.QueryFailed(kind, FailureReason(err))
		if errors.Is(err, ErrRollbackFailed) {
			// Real balance inconsistency. Surfaced regardless of the
			// per-updater logging toggle.
			u.logger.Error("transfer compensation failed", zap.Error(err))
		}
		result = "error processing query: " + err.Error()
	} else {
		u.bank.metrics.QueryProcessed(kind)
	}
	u.bank.metrics.SetQueueDepth(
		strconv.Itoa(u.branchID), strconv.Itoa(u.id), len(u.queue))

	u.fulfill(req, result)
}

// fulfill delivers the result line: once on the reply slot for
// interactive requests, or to the run log when logging is on.
func (u *Updater) fulfill(req Request, result string) {
	if req.Reply != nil {
		req.Reply <- time.Now().Format(resultTimeFormat) + " " + result
		return
	}
	if u.logging {
		u.logger.Info(result)
	}
}

func (u *Updater) dispatch(query Query) (result string, err error) {
	// A malformed query must never kill the run loop.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s query: %v", query.Kind(), r)
		}
	}()

	switch q := query.(type) {
	case BalanceCheck:
		balance, err := u.bank.Balance(q.Account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("balance for account %s: %.2f", q.Account, balance), nil

	case Deposit:
		balance, err := u.bank.Deposit(q.Account, q.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("deposited %.2f into account %s, new balance: %.2f",
			q.Amount, q.Account, balance), nil

	case Withdrawal:
		balance, err := u.bank.Withdraw(q.Account, q.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("withdrew %.2f from account %s, new balance: %.2f",
			q.Amount, q.Account, balance), nil

	case TransferMoney:
		if err := u.bank.TransferMoney(q.From, q.To, q.Amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("transferred %.2f from account %s to account %s",
			q.Amount, q.From, q.To), nil

	case AddCustomer:
		acct, err := u.bank.AddCustomer(u.branchID, q.InitialDeposit)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("added customer at branch %d with account %s and initial deposit %.2f",
			u.branchID, acct.Number(), q.InitialDeposit), nil

	case DeleteCustomer:
		acct, err := u.bank.DeleteAccount(q.Account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted account %s", acct.Number()), nil

	case TransferCustomerAccount:
		acct, err := u.bank.TransferCustomerAccount(q.Account, q.DestBranch)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("transferred account %s to branch %d, new account number: %s",
			q.Account, q.DestBranch, acct.Number()), nil

	default:
		return "", fmt.Errorf("%w: unknown query type %T", ErrInvalidArgument, query)
	}
}
