package ledger

import (
	"context"
	"encoding/json"
	"sync"

	"token_hub/internal/models"
	"token_hub/internal/pkg/logger"
	"token_hub/internal/storage"
)

// Balances maintains the mapping from username to token balance.
// Records are kept in insertion order so the persisted blob is stable across
// rewrites. Unknown users have a balance of zero; that is a valid state, not
// an error.
//
// The mutex is shared with the Transfers log built on top of this book, so an
// approval's read-check-mutate-commit cannot interleave with a login or a
// balance overwrite.
type Balances struct {
	mu           *sync.RWMutex
	store        storage.Store
	log          *logger.Logger
	users        []models.User
	index        map[string]int
	defaultGrant int
}

// NewBalances hydrates the balance book from the store.
func NewBalances(ctx context.Context, store storage.Store, l *logger.Logger, defaultGrant int) (*Balances, error) {
	b := &Balances{mu: &sync.RWMutex{}, store: store, log: l, defaultGrant: defaultGrant}
	if err := loadCollection(ctx, store, storage.KeyUsers, &b.users); err != nil {
		l.Sugar().Errorf("Failed to hydrate users collection: %s", err)
		return nil, err
	}
	b.index = buildIndex(b.users)
	return b, nil
}

// EnsureUser returns the existing balance when the user is already known.
// Otherwise it computes the initial balance as the default grant plus every
// approved transfer already addressed to the user, creates the record, and
// persists the collection. Crediting pre-registration transfers means a user
// who received tokens before first login starts with them already counted.
func (b *Balances) EnsureUser(ctx context.Context, username string, history []models.Transfer) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.index[username]; ok {
		return b.users[i].TokenBalance, nil
	}

	balance := b.defaultGrant
	for _, transfer := range history {
		if transfer.Recipient == username && transfer.Status == models.StatusApproved {
			balance += transfer.TokenAmount
		}
	}

	users := append(copyUsers(b.users), models.User{Username: username, TokenBalance: balance})
	if err := b.persist(ctx, users); err != nil {
		return 0, err
	}

	b.commitLocked(users)
	return balance, nil
}

// SetBalance unconditionally overwrites the user's balance, creating the
// record when the user is unknown, and persists the collection.
func (b *Balances) SetBalance(ctx context.Context, username string, balance int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	users := copyUsers(b.users)
	if i, ok := b.index[username]; ok {
		users[i].TokenBalance = balance
	} else {
		users = append(users, models.User{Username: username, TokenBalance: balance})
	}

	if err := b.persist(ctx, users); err != nil {
		return err
	}

	b.commitLocked(users)
	return nil
}

// Balance returns the user's current balance, or 0 for unknown users.
func (b *Balances) Balance(username string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.balanceLocked(username)
}

func (b *Balances) balanceLocked(username string) int {
	if i, ok := b.index[username]; ok {
		return b.users[i].TokenBalance
	}
	return 0
}

// Users returns a copy of every balance record in insertion order.
func (b *Balances) Users() []models.User {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return copyUsers(b.users)
}

// appliedLocked returns a copy of the collection with the given balances in
// place. Usernames without a record are appended as new users, which is how a
// transfer approval materializes a recipient that never logged in.
// The caller must hold the write lock.
func (b *Balances) appliedLocked(updates map[string]int) []models.User {
	users := copyUsers(b.users)
	for username, balance := range updates {
		if i, ok := b.index[username]; ok {
			users[i].TokenBalance = balance
		} else {
			users = append(users, models.User{Username: username, TokenBalance: balance})
		}
	}
	return users
}

// commitLocked replaces the in-memory collection with one that has already
// been persisted. The caller must hold the write lock.
func (b *Balances) commitLocked(users []models.User) {
	b.users = users
	b.index = buildIndex(users)
}

func (b *Balances) persist(ctx context.Context, users []models.User) error {
	blob, err := json.Marshal(users)
	if err != nil {
		b.log.Sugar().Errorf("Failed to marshal users collection: %s", err)
		return err
	}
	if err := b.store.Put(ctx, storage.KeyUsers, blob); err != nil {
		b.log.Sugar().Errorf("Failed to persist users collection: %s", err)
		return err
	}
	return nil
}

func buildIndex(users []models.User) map[string]int {
	index := make(map[string]int, len(users))
	for i, user := range users {
		index[user.Username] = i
	}
	return index
}

func copyUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	copy(out, users)
	return out
}
