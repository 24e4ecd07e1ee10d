package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "SEK"

type AccountType string

const (
	AccountTypeSavings AccountType = "Savings"
	AccountTypeDeposit AccountType = "Deposit"
)

// Account is a named balance-holding entity with a currency and an
// append-only transaction history. Balance must only change through
// Deposit, Withdraw or AddTransaction; callers that hold an Account
// obtained from the ledger get a clone and cannot reach the stored state.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	LastUpdated  time.Time       `json:"lastUpdated"`
	AccountType  AccountType     `json:"accountType"`
	Transactions []*Transaction  `json:"transactions"`
}

func NewAccount(name, currency string, initialBalance decimal.Decimal, accountType AccountType) *Account {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Account{
		ID:           uuid.NewString(),
		Name:         name,
		Currency:     currency,
		Balance:      initialBalance,
		LastUpdated:  time.Now(),
		AccountType:  accountType,
		Transactions: []*Transaction{},
	}
}

// Deposit credits the balance directly without creating a history entry.
// Used for convenience mutations such as interest accrual.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit %s", ErrAmountNotPositive, amount)
	}
	a.apply(amount)
	return nil
}

// Withdraw debits the balance directly without creating a history entry.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: withdrawal %s", ErrAmountNotPositive, amount)
	}
	if amount.GreaterThan(a.Balance) {
		return fmt.Errorf("%w: withdrawal %s exceeds balance %s", ErrInsufficientFunds, amount, a.Balance)
	}
	a.apply(amount.Neg())
	return nil
}

// AddTransaction is the audited mutation path. Appending a transaction whose
// ID is already in the history is a no-op, which makes re-application safe.
// A Transfer leg has no effect on this account's balance; the counterpart
// leg is applied to the receiving account separately by the caller.
//
// Sufficiency is deliberately not re-checked here: a Withdrawal transaction
// larger than the balance is accepted and drives the balance negative. Only
// the direct Withdraw path guards against overdrafts.
func (a *Account) AddTransaction(tx *Transaction) error {
	if tx == nil {
		return ErrNilTransaction
	}
	if a.hasTransaction(tx.ID) {
		return nil
	}

	switch tx.Type {
	case TypeDeposit:
		a.apply(tx.Amount)
	case TypeWithdrawal:
		a.apply(tx.Amount.Neg())
	case TypeTransfer:
		a.apply(decimal.Zero)
	default:
		return fmt.Errorf("unknown transaction type: %s", tx.Type)
	}

	tx.BalanceAfterTransaction = a.Balance
	a.Transactions = append(a.Transactions, tx)
	return nil
}

// apply is the single place where the balance changes.
func (a *Account) apply(delta decimal.Decimal) {
	a.Balance = a.Balance.Add(delta)
	a.LastUpdated = time.Now()
}

func (a *Account) hasTransaction(id string) bool {
	for _, tx := range a.Transactions {
		if tx.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate ledger state through
// a returned account.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = make([]*Transaction, len(a.Transactions))
	for i, tx := range a.Transactions {
		txCopy := *tx
		cp.Transactions[i] = &txCopy
	}
	return &cp
}
