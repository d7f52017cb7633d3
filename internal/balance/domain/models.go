/**
 * @description
 * This file defines the core domain models for the balance service: the balance
 * row itself and the debit records used for idempotent payment processing.
 *
 * @notes
 * - Amounts are `int64` in the smallest currency unit (fils).
 * - A balance can never go below zero; every debit is conditional on sufficient funds.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Balance is a user's single ledger row on the balance service.
type Balance struct {
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"` // in fils
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Debit records one applied payment, keyed by the caller's idempotency key so a
// replayed request is acknowledged without moving money twice.
type Debit struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	Amount         int64     `json:"amount"` // in fils
	CreatedAt      time.Time `json:"created_at"`
}

// PaymentRequest is the DTO for incoming make-payment requests. The field name
// matches the wire contract expected by the recharge service.
type PaymentRequest struct {
	TotalAmount int64 `json:"totalAmount"` // in fils
}

// CreateBalanceRequest is the DTO for provisioning a new balance row.
type CreateBalanceRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Amount int64     `json:"amount"` // in fils
}
