package validator

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/themyzteziz/bankapp/internal/domain"
)

var (
	ErrInvalidAmount   = errors.New("invalid transaction amount")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidType     = errors.New("invalid transaction type")
)

type TransactionValidator struct {
	currencyRegex *regexp.Regexp
}

func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{
		currencyRegex: regexp.MustCompile(`^[A-Z]{3}$`),
	}
}

// ValidateTransaction checks a transaction at the request boundary before it
// reaches the ledger. The account entity itself accepts whatever it is
// handed, so all request hygiene lives here.
func (v *TransactionValidator) ValidateTransaction(tx *domain.Transaction) error {
	var errs []error

	if tx.Amount.Sign() <= 0 {
		errs = append(errs, ErrInvalidAmount)
	}

	if !v.currencyRegex.MatchString(tx.Currency) {
		errs = append(errs, ErrInvalidCurrency)
	}

	switch tx.Type {
	case domain.TypeDeposit, domain.TypeWithdrawal, domain.TypeTransfer:
	default:
		errs = append(errs, ErrInvalidType)
	}

	if tx.Date.After(time.Now().Add(5 * time.Minute)) {
		errs = append(errs, errors.New("transaction date cannot be in the future"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}

	return nil
}

func (v *TransactionValidator) ValidateAmount(amount decimal.Decimal, currency string) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	limits := map[string]int64{
		"SEK": 10000000,
		"USD": 1000000,
		"EUR": 900000,
	}

	if max, exists := limits[currency]; exists && amount.GreaterThan(decimal.NewFromInt(max)) {
		return fmt.Errorf("amount exceeds maximum limit for %s: %d", currency, max)
	}

	return nil
}
