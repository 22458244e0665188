// Package app provides the core business logic for the token hub application.
// It handles session login and logout, transfer suggestion and resolution, and
// account information retrieval. The package integrates with the ledger for
// balance reconciliation and uses the auth package for session token
// generation. Logging functionality is provided via the logger package.
package app

import (
	"context"
	"errors"

	"token_hub/internal/ledger"
	"token_hub/internal/models"
	"token_hub/internal/pkg/auth"
	"token_hub/internal/pkg/logger"
	"token_hub/internal/storage"
)

// Predefined errors for missing required parameters in requests.
var (
	// ErrMissingUsername indicates that no username was provided at login.
	ErrMissingUsername = errors.New("app: missing username")
	// ErrMissingRecipientOrAmount indicates that either the recipient username or amount is not provided.
	ErrMissingRecipientOrAmount = errors.New("app: missing recipient or amount")
)

// App encapsulates the application logic and dependencies required to process requests.
// It coordinates the balance book and the transfer log and persists the
// current session username through the key-value store.
type App struct {
	balances  *ledger.Balances
	transfers *ledger.Transfers
	store     storage.Store
	log       *logger.Logger
}

// NewApp creates and returns a new instance of App with the provided dependencies.
func NewApp(balances *ledger.Balances, transfers *ledger.Transfers, store storage.Store, log *logger.Logger) *App {
	return &App{balances: balances, transfers: transfers, store: store, log: log}
}

// ProcessLogin starts a session for the given username and issues a session token.
// First-time users are created with their initial grant plus any approved
// transfers already addressed to them; returning users keep their balance.
func (app *App) ProcessLogin(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username == "" {
		return nil, ErrMissingUsername
	}

	balance, err := app.balances.EnsureUser(ctx, req.Username, app.transfers.List())
	if err != nil {
		return nil, err
	}

	// Mirrors the session into the store layout; requests themselves carry
	// their identity in the bearer token.
	if err := app.store.Put(ctx, storage.KeyCurrentUser, []byte(req.Username)); err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(req.Username)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{Token: token, Balance: balance}, nil
}

// ProcessLogout clears the persisted session username.
func (app *App) ProcessLogout(ctx context.Context) error {
	return app.store.Delete(ctx, storage.KeyCurrentUser)
}

// ProcessSuggest records a new pending transfer from the session user.
func (app *App) ProcessSuggest(ctx context.Context, sender string, req models.SuggestRequest) (int, error) {
	if req.Recipient == "" || req.Amount == 0 {
		return 0, ErrMissingRecipientOrAmount
	}

	return app.transfers.Suggest(ctx, sender, req.Recipient, req.Amount)
}

// ProcessApprove commits a pending transfer's balance effects on behalf of the approver.
func (app *App) ProcessApprove(ctx context.Context, id int, approver string) error {
	return app.transfers.Approve(ctx, id, approver)
}

// ProcessReject marks a pending transfer as rejected on behalf of the approver.
func (app *App) ProcessReject(ctx context.Context, id int, approver string) error {
	return app.transfers.Reject(ctx, id, approver)
}

// ProcessTransfers returns the full transfer history in insertion order.
func (app *App) ProcessTransfers(ctx context.Context) []models.Transfer {
	return app.transfers.List()
}

// ProcessInfo retrieves the user's current balance together with their sent
// and received transfer history.
func (app *App) ProcessInfo(ctx context.Context, username string) (*models.InfoResponse, error) {
	return &models.InfoResponse{
		Username: username,
		Balance:  app.balances.Balance(username),
		History:  app.transfers.History(username),
	}, nil
}
