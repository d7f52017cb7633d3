/**
 * @description
 * This file defines the HTTP handlers for the balance service's API endpoints.
 * The wire contract is fixed: the balance read returns the raw amount as the
 * response body, and the payment endpoint takes the user id from the `userid`
 * query parameter with a `{"totalAmount": n}` JSON body.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - The service's internal packages for app logic, models, and store errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/balance/app"
	"github.com/nextcell/mobile-topup/internal/balance/domain"
	"github.com/nextcell/mobile-topup/internal/balance/store"
)

// BalanceHandlers holds the dependencies for balance-related handlers.
type BalanceHandlers struct {
	service *app.Service
}

// NewBalanceHandlers creates a new BalanceHandlers.
func NewBalanceHandlers(service *app.Service) *BalanceHandlers {
	return &BalanceHandlers{service: service}
}

// GetUserBalanceHandler returns the user's balance as a raw number in the
// response body.
func (h *BalanceHandlers) GetUserBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "Invalid or missing userId", http.StatusBadRequest)
		return
	}

	amount, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrBalanceNotFound) {
			http.Error(w, "Balance not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=get_user_balance msg=\"balance read failed\" user_id=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%d", amount)
}

// AddBalanceHandler provisions a new balance row for a user.
func (h *BalanceHandlers) AddBalanceHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.CreateBalance(r.Context(), req.UserID, req.Amount); err != nil {
		switch {
		case errors.Is(err, store.ErrBalanceExists):
			http.Error(w, "Balance already exists", http.StatusConflict)
			return
		case errors.Is(err, app.ErrInvalidInitialAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		default:
			log.Printf("level=error component=api endpoint=add_balance msg=\"balance creation failed\" user_id=%s err=%v", req.UserID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// MakePaymentHandler debits the user's balance. The X-Idempotency-Key header,
// when present, deduplicates replayed requests.
func (h *BalanceHandlers) MakePaymentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userid"))
	if err != nil {
		http.Error(w, "Invalid or missing userid", http.StatusBadRequest)
		return
	}

	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	idempotencyKey := r.Header.Get("X-Idempotency-Key")
	debit, err := h.service.MakePayment(r.Context(), userID, req.TotalAmount, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrBalanceNotFound):
			http.Error(w, "Balance not found", http.StatusNotFound)
			return
		case errors.Is(err, store.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		default:
			log.Printf("level=error component=api endpoint=make_payment msg=\"payment failed\" user_id=%s err=%v", userID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, debit)
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
	}
}
