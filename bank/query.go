package bank

// Query describes one requested bank operation. It is a sealed sum type
// with one variant per operation, so a query can only carry the fields
// its operation defines.
type Query interface {
	// Kind names the operation for logs and metric labels.
	Kind() string
}

// BalanceCheck reads an account's balance.
type BalanceCheck struct {
	Account string
}

// Deposit adds Amount to an account.
type Deposit struct {
	Account string
	Amount  float64
}

// Withdrawal subtracts Amount from an account.
type Withdrawal struct {
	Account string
	Amount  float64
}

// TransferMoney moves Amount between two accounts, possibly across
// branches.
type TransferMoney struct {
	From   string
	To     string
	Amount float64
}

// AddCustomer opens an account at the processing updater's branch with an
// initial deposit.
type AddCustomer struct {
	InitialDeposit float64
}

// DeleteCustomer closes an account.
type DeleteCustomer struct {
	Account string
}

// TransferCustomerAccount moves an account to another branch, where it
// receives a fresh number.
type TransferCustomerAccount struct {
	Account    string
	DestBranch int
}

// Shutdown terminates the receiving updater once every earlier queue
// entry has been processed.
type Shutdown struct{}

// SetLogging toggles the receiving updater's result logging. It does not
// count as a transaction.
type SetLogging struct {
	Enabled bool
}

func (BalanceCheck) Kind() string            { return "balance_check" }
func (Deposit) Kind() string                 { return "deposit" }
func (Withdrawal) Kind() string              { return "withdrawal" }
func (TransferMoney) Kind() string           { return "transfer_money" }
func (AddCustomer) Kind() string             { return "add_customer" }
func (DeleteCustomer) Kind() string          { return "delete_customer" }
func (TransferCustomerAccount) Kind() string { return "transfer_customer_account" }
func (Shutdown) Kind() string                { return "shutdown" }
func (SetLogging) Kind() string              { return "logging" }

// Request pairs a query with an optional one-shot reply slot. Simulation
// requests carry no reply. Interactive submissions receive exactly one
// timestamped result line on Reply, sent by the processing updater.
type Request struct {
	Query Query
	Reply chan string
}
