// Package storage provides the key-value persistence layer backing the token
// ledger. Collections are stored as whole JSON blobs under fixed keys and
// replaced in full on every write. The Store interface is implemented by an
// embedded Badger database for normal operation, a Postgres table for
// deployments that already run one, and an in-memory map for tests.
package storage

import (
	"context"
	"errors"
)

// Well-known keys used by the ledger. Each holds a full collection (or, for
// KeyCurrentUser, a raw username string) that is replaced wholesale on write.
// KeyCurrentUser is part of the store layout for inspection and compatibility:
// it is written at login and cleared at logout, but requests resolve their
// session from the bearer token, so nothing reads it back.
const (
	KeyCurrentUser = "user"
	KeyUsers       = "users"
	KeyTransfers   = "tokens"
)

// ErrNotFound is returned by Get when no value exists under the requested key.
var ErrNotFound = errors.New("storage: key not found")

// Store defines the methods required for key-value persistence.
// PutAll writes every entry atomically: either all keys are updated or none
// are, which is what keeps a transfer approval from being half-persisted.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	PutAll(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close()
}
