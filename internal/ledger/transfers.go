package ledger

import (
	"context"
	"encoding/json"
	"sync"

	"token_hub/internal/models"
	"token_hub/internal/pkg/logger"
	"token_hub/internal/storage"
)

// Transfers maintains the ordered log of transfer proposals. Entries are
// identified by their index in the log and are never deleted or reordered;
// the only mutation after creation is the one-way move out of pending.
// Approvals delegate the balance side to Balances and persist both
// collections in a single atomic batch.
//
// The log shares its lock with the balance book it resolves against, so every
// ledger operation is serialized against every other: a login or balance
// overwrite can never land inside an approval's critical section and get
// overwritten by its commit.
type Transfers struct {
	mu       *sync.RWMutex
	store    storage.Store
	log      *logger.Logger
	balances *Balances
	entries  []models.Transfer
}

// NewTransfers hydrates the transfer log from the store.
func NewTransfers(ctx context.Context, store storage.Store, l *logger.Logger, balances *Balances) (*Transfers, error) {
	t := &Transfers{mu: balances.mu, store: store, log: l, balances: balances}
	if err := loadCollection(ctx, store, storage.KeyTransfers, &t.entries); err != nil {
		l.Sugar().Errorf("Failed to hydrate transfers collection: %s", err)
		return nil, err
	}
	return t, nil
}

// Suggest appends a new pending transfer and persists the log.
// It returns the id of the new entry, or ErrInvalidTransfer when the amount is
// not positive, a party is missing, or sender and recipient are the same user.
func (t *Transfers) Suggest(ctx context.Context, sender, recipient string, amount int) (int, error) {
	if sender == "" || recipient == "" || amount <= 0 || sender == recipient {
		return 0, ErrInvalidTransfer
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entries := append(copyTransfers(t.entries), models.Transfer{
		Sender:      sender,
		Recipient:   recipient,
		TokenAmount: amount,
		Status:      models.StatusPending,
		Approver:    "",
	})

	if err := t.persist(ctx, entries); err != nil {
		return 0, err
	}

	t.entries = entries
	return len(entries) - 1, nil
}

// Approve resolves a pending transfer and moves the amount from the sender to
// the recipient, creating the recipient's balance record when absent. The
// transfer log and the balance collection are written through in one batch, so
// the approval either lands in full or not at all. The sender's balance is
// checked at approval time, not at suggestion time.
func (t *Transfers) Approve(ctx context.Context, id int, approver string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || id >= len(t.entries) {
		return ErrNotFound
	}
	entry := t.entries[id]
	if entry.Resolved() {
		return ErrAlreadyResolved
	}
	if t.balances.balanceLocked(entry.Sender) < entry.TokenAmount {
		return ErrInsufficientBalance
	}

	entries := copyTransfers(t.entries)
	entries[id].Status = models.StatusApproved
	entries[id].Approver = approver

	users := t.balances.appliedLocked(map[string]int{
		entry.Sender:    t.balances.balanceLocked(entry.Sender) - entry.TokenAmount,
		entry.Recipient: t.balances.balanceLocked(entry.Recipient) + entry.TokenAmount,
	})

	transfersBlob, err := json.Marshal(entries)
	if err != nil {
		t.log.Sugar().Errorf("Failed to marshal transfers collection: %s", err)
		return err
	}
	usersBlob, err := json.Marshal(users)
	if err != nil {
		t.log.Sugar().Errorf("Failed to marshal users collection: %s", err)
		return err
	}

	err = t.store.PutAll(ctx, map[string][]byte{
		storage.KeyTransfers: transfersBlob,
		storage.KeyUsers:     usersBlob,
	})
	if err != nil {
		t.log.Sugar().Errorf("Failed to persist transfer approval: %s", err)
		return err
	}

	t.entries = entries
	t.balances.commitLocked(users)
	return nil
}

// Reject resolves a pending transfer without touching any balance.
func (t *Transfers) Reject(ctx context.Context, id int, approver string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || id >= len(t.entries) {
		return ErrNotFound
	}
	if t.entries[id].Resolved() {
		return ErrAlreadyResolved
	}

	entries := copyTransfers(t.entries)
	entries[id].Status = models.StatusRejected
	entries[id].Approver = approver

	if err := t.persist(ctx, entries); err != nil {
		return err
	}

	t.entries = entries
	return nil
}

// List returns a copy of the full transfer history in insertion order.
func (t *Transfers) List() []models.Transfer {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return copyTransfers(t.entries)
}

// History splits the user's transfers into received and sent lists, newest
// last, for the account info view.
func (t *Transfers) History(username string) *models.TransferHistory {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := &models.TransferHistory{
		Received: []models.TransferDetail{},
		Sent:     []models.TransferDetail{},
	}
	for _, entry := range t.entries {
		if entry.Recipient == username {
			history.Received = append(history.Received, models.TransferDetail{
				FromUser: entry.Sender,
				Amount:   entry.TokenAmount,
				Status:   entry.Status,
			})
		}
		if entry.Sender == username {
			history.Sent = append(history.Sent, models.TransferDetail{
				ToUser: entry.Recipient,
				Amount: entry.TokenAmount,
				Status: entry.Status,
			})
		}
	}
	return history
}

func (t *Transfers) persist(ctx context.Context, entries []models.Transfer) error {
	blob, err := json.Marshal(entries)
	if err != nil {
		t.log.Sugar().Errorf("Failed to marshal transfers collection: %s", err)
		return err
	}
	if err := t.store.Put(ctx, storage.KeyTransfers, blob); err != nil {
		t.log.Sugar().Errorf("Failed to persist transfers collection: %s", err)
		return err
	}
	return nil
}

func copyTransfers(entries []models.Transfer) []models.Transfer {
	out := make([]models.Transfer, len(entries))
	copy(out, entries)
	return out
}
