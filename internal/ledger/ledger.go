// Package ledger contains the balance-and-transfer reconciliation logic.
// It is split into two collaborating pieces: Balances, the source of truth for
// per-user token balances, and Transfers, the ordered log of transfer
// proposals. Both hydrate their collection from the key-value store once at
// construction, own it in memory from then on, and write it back in full after
// every mutation.
//
// The store may be shared by independently running processes; writes between
// them are last-writer-wins with no coordination. Within one process all
// mutations are serialized by a single lock shared between the two components,
// so an approval can never interleave with a login or a balance overwrite.
package ledger

import (
	"context"
	"encoding/json"
	"errors"

	"token_hub/internal/storage"
)

// Errors signaled by ledger operations. All of them are recoverable by the
// caller; a failed mutation leaves both in-memory and persisted state
// untouched.
var (
	// ErrInvalidTransfer indicates a non-positive amount, a missing
	// sender or recipient, or a self-transfer.
	ErrInvalidTransfer = errors.New("ledger: invalid transfer")
	// ErrNotFound indicates a transfer id outside the stored sequence.
	ErrNotFound = errors.New("ledger: transfer not found")
	// ErrAlreadyResolved indicates the transfer has already been approved or rejected.
	ErrAlreadyResolved = errors.New("ledger: transfer already resolved")
	// ErrInsufficientBalance indicates the sender cannot cover the amount at approval time.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)

// loadCollection reads and unmarshals the blob stored under key.
// An absent key is a valid empty collection, not an error.
func loadCollection(ctx context.Context, store storage.Store, key string, out interface{}) error {
	blob, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, out)
}
