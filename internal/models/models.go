// Package models defines the data structures used throughout the application.
// It includes the persisted user and transfer records together with the
// request and response payloads exchanged with the HTTP layer.
package models

// Transfer lifecycle states. A transfer starts out pending and moves exactly
// once to approved or rejected; both are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// User represents a registered user and their current token balance.
// Users are identified by their case-sensitive username and are never deleted.
type User struct {
	Username     string `json:"username"`
	TokenBalance int    `json:"tokenBalance"`
}

// Transfer represents a proposed movement of tokens between two users.
// Transfers carry no id of their own; their position in the stored sequence is
// their identity. Approver stays empty while the transfer is pending.
type Transfer struct {
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	TokenAmount int    `json:"tokenAmount"`
	Status      string `json:"status"`
	Approver    string `json:"approver"`
}

// Resolved reports whether the transfer has left the pending state.
func (t Transfer) Resolved() bool {
	return t.Status != StatusPending
}

// LoginRequest represents the login payload. Only a username is required;
// there is no password in this system.
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse represents a successful login. It contains the session token
// and the user's balance after the initial grant has been applied.
type LoginResponse struct {
	Token   string `json:"token"`
	Balance int    `json:"balance"`
}

// SuggestRequest represents the payload for proposing a transfer.
// The sender is taken from the authenticated session, not from the body.
type SuggestRequest struct {
	Recipient string `json:"recipient"`
	Amount    int    `json:"amount"`
}

// SuggestResponse carries the id assigned to a newly proposed transfer.
type SuggestResponse struct {
	ID int `json:"id"`
}

// TransferDetail describes one entry of a user's transfer history.
type TransferDetail struct {
	FromUser string `json:"fromUser,omitempty"`
	ToUser   string `json:"toUser,omitempty"`
	Amount   int    `json:"amount"`
	Status   string `json:"status"`
}

// TransferHistory groups a user's transfers into received and sent lists.
type TransferHistory struct {
	Received []TransferDetail `json:"received"`
	Sent     []TransferDetail `json:"sent"`
}

// InfoResponse represents the response payload for the /api/info endpoint.
type InfoResponse struct {
	Username string           `json:"username"`
	Balance  int              `json:"balance"`
	History  *TransferHistory `json:"history"`
}

// ErrorResponse represents a generic error response payload.
type ErrorResponse struct {
	Errors string `json:"errors"`
}
