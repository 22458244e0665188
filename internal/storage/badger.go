package storage

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"

	"token_hub/internal/pkg/logger"
)

// Badger implements Store on top of an embedded Badger database. This is the
// default adapter: a local file-backed store with no external service, the
// server-side equivalent of the browser's local storage.
type Badger struct {
	db  *badger.DB
	log *logger.Logger
}

// NewBadger opens (or creates) a Badger database at the given path.
func NewBadger(path string, l *logger.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil) // disable spam log
	db, err := badger.Open(opts)
	if err != nil {
		l.Sugar().Errorf("Failed to open badger store at %s: %s", path, err)
		return nil, err
	}
	return &Badger{db: db, log: l}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		b.log.Sugar().Errorf("Failed to read key %q: %s", key, err)
		return nil, err
	}
	return value, nil
}

func (b *Badger) Put(ctx context.Context, key string, value []byte) error {
	return b.PutAll(ctx, map[string][]byte{key: value})
}

// PutAll writes all entries inside a single Badger transaction, so a transfer
// approval updates the user and transfer blobs together or not at all.
func (b *Badger) PutAll(_ context.Context, entries map[string][]byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for key, value := range entries {
			if err := txn.Set([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.log.Sugar().Errorf("Failed to write %d keys: %s", len(entries), err)
	}
	return err
}

func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		b.log.Sugar().Errorf("Failed to delete key %q: %s", key, err)
	}
	return err
}

// Close closes the underlying database if it is open.
func (b *Badger) Close() {
	if b.db != nil {
		b.db.Close()
	}
}
