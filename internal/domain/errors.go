package domain

import "errors"

var (
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNilTransaction    = errors.New("transaction is required")
)
