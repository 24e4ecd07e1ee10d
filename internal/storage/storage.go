package storage

import (
	"context"
	"errors"
)

// Store is the external key-value collaborator the ledger persists through.
// The ledger only ever uses a single fixed key holding the serialized
// account collection, so implementations stay trivial.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

var ErrKeyNotFound = errors.New("key not found")
