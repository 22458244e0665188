// Package service contains HTTP handler implementations for the token hub API endpoints.
// It orchestrates request parsing, calls the underlying business logic in the app package,
// maps ledger errors to HTTP status codes, and writes appropriate HTTP responses.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"token_hub/internal/app"
	"token_hub/internal/ledger"
	"token_hub/internal/models"
	"token_hub/internal/pkg/auth"
	"token_hub/internal/pkg/logger"

	"github.com/go-chi/chi/v5"
)

const requestTimeout = 10 * time.Second

// handlers aggregates dependencies needed by HTTP handlers,
// including the application business logic and logger.
type handlers struct {
	app *app.App
	log *logger.Logger
}

// newHandlers initializes a new handlers instance with the provided app and logger dependencies.
func newHandlers(app *app.App, l *logger.Logger) *handlers {
	return &handlers{app: app, log: l}
}

// loginHandler handles session login requests.
// It reads the request body, unmarshals it into a LoginRequest, starts the
// session, and returns a JSON response with a token and the user's balance.
func (handlers *handlers) loginHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var loginRequest models.LoginRequest

	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}

	if err = json.Unmarshal(requestBody, &loginRequest); err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}

	loginResponse, err := handlers.app.ProcessLogin(ctx, loginRequest)
	if err != nil {
		if errors.Is(err, app.ErrMissingUsername) {
			writeErrorResponse(res, "missing username", http.StatusBadRequest)
			return
		}
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSONResponse(res, loginResponse, http.StatusOK)
}

// logoutHandler ends the current session by clearing the persisted username.
func (handlers *handlers) logoutHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if _, ok := sessionUsername(req); !ok {
		writeErrorResponse(res, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := handlers.app.ProcessLogout(ctx); err != nil {
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// suggestHandler processes transfer proposals from the session user.
// It validates the request body and calls the application logic to record a
// pending transfer, returning its assigned id.
func (handlers *handlers) suggestHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	username, ok := sessionUsername(req)
	if !ok {
		writeErrorResponse(res, "unauthorized", http.StatusUnauthorized)
		return
	}

	var suggestRequest models.SuggestRequest

	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}

	if err = json.Unmarshal(requestBody, &suggestRequest); err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := handlers.app.ProcessSuggest(ctx, username, suggestRequest)
	if err != nil {
		if errors.Is(err, app.ErrMissingRecipientOrAmount) {
			writeErrorResponse(res, "missing recipient or amount", http.StatusBadRequest)
			return
		}

		if errors.Is(err, ledger.ErrInvalidTransfer) {
			writeErrorResponse(res, "invalid transfer: amount must be positive and recipient must be a different user", http.StatusBadRequest)
			return
		}

		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSONResponse(res, models.SuggestResponse{ID: id}, http.StatusCreated)
}

// approveHandler resolves a pending transfer as approved on behalf of the session user.
func (handlers *handlers) approveHandler(res http.ResponseWriter, req *http.Request) {
	handlers.resolveTransfer(res, req, handlers.app.ProcessApprove)
}

// rejectHandler resolves a pending transfer as rejected on behalf of the session user.
func (handlers *handlers) rejectHandler(res http.ResponseWriter, req *http.Request) {
	handlers.resolveTransfer(res, req, handlers.app.ProcessReject)
}

// resolveTransfer is the shared approve/reject path: it extracts the session
// user and the transfer id from the URL and maps ledger errors to HTTP codes.
func (handlers *handlers) resolveTransfer(res http.ResponseWriter, req *http.Request, resolve func(context.Context, int, string) error) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	username, ok := sessionUsername(req)
	if !ok {
		writeErrorResponse(res, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(req, "id"))
	if err != nil {
		writeErrorResponse(res, "invalid transfer id", http.StatusNotFound)
		return
	}

	if err := resolve(ctx, id, username); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeErrorResponse(res, "transfer not found", http.StatusNotFound)
			return
		}

		if errors.Is(err, ledger.ErrAlreadyResolved) {
			writeErrorResponse(res, "transfer already resolved", http.StatusConflict)
			return
		}

		if errors.Is(err, ledger.ErrInsufficientBalance) {
			writeErrorResponse(res, "insufficient balance to approve the transfer", http.StatusBadRequest)
			return
		}

		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// listTransfersHandler returns the full transfer history in insertion order.
func (handlers *handlers) listTransfersHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if _, ok := sessionUsername(req); !ok {
		writeErrorResponse(res, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSONResponse(res, handlers.app.ProcessTransfers(ctx), http.StatusOK)
}

// infoHandler retrieves the session user's balance and transfer history.
func (handlers *handlers) infoHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	username, ok := sessionUsername(req)
	if !ok {
		writeErrorResponse(res, "unauthorized", http.StatusUnauthorized)
		return
	}

	info, err := handlers.app.ProcessInfo(ctx, username)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSONResponse(res, info, http.StatusOK)
}

func sessionUsername(req *http.Request) (string, bool) {
	username, ok := req.Context().Value(auth.ContextUsername).(string)
	return username, ok && username != ""
}

func writeJSONResponse(res http.ResponseWriter, payload interface{}, statusCode int) {
	result, err := json.Marshal(payload)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	res.Write(result)
}

func writeErrorResponse(res http.ResponseWriter, errorInfo string, statusCode int) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	json.NewEncoder(res).Encode(models.ErrorResponse{Errors: errorInfo})
}
