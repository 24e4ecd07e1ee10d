package ledger

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateName   = errors.New("account name already exists")
	ErrInvalidName     = errors.New("account name is required")
)
