package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The persisted blob stores amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type TransactionType string

const (
	TypeDeposit    TransactionType = "Deposit"
	TypeWithdrawal TransactionType = "Withdrawal"
	TypeTransfer   TransactionType = "Transfer"
)

// Transaction is a record of a balance-affecting event. Amount is always a
// positive magnitude; the direction comes from Type. Once appended to an
// account a transaction is immutable except for BalanceAfterTransaction,
// which the account stamps at append time.
type Transaction struct {
	ID                      string          `json:"id"`
	Date                    time.Time       `json:"date"`
	Amount                  decimal.Decimal `json:"amount"`
	Description             string          `json:"description"`
	Currency                string          `json:"currency"`
	Type                    TransactionType `json:"type"`
	BalanceAfterTransaction decimal.Decimal `json:"balanceAfterTransaction"`
}

func NewTransaction(t TransactionType, amount decimal.Decimal, description, currency string) *Transaction {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Transaction{
		ID:          uuid.NewString(),
		Date:        time.Now(),
		Amount:      amount,
		Description: description,
		Currency:    currency,
		Type:        t,
	}
}
