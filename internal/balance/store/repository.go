/**
 * @description
 * This file defines the data access interface for the balance service. The
 * interface lets the application layer be tested with in-memory stubs while the
 * PostgreSQL implementation handles production storage.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/balance/domain"
)

// Repository defines the interface for balance data storage.
type Repository interface {
	// CreateBalance provisions the single balance row for a user. Returns
	// ErrBalanceExists when the user already has one.
	CreateBalance(ctx context.Context, userID uuid.UUID, amount int64) error

	// GetBalance returns the user's current balance amount. Returns
	// ErrBalanceNotFound when no row exists.
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)

	// ApplyDebit atomically decrements the user's balance by amount, conditional
	// on sufficient funds, and records the debit under the idempotency key. A
	// replay of an already-applied key succeeds without moving money again.
	// Returns ErrBalanceNotFound or ErrInsufficientFunds on rejection.
	ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64, idempotencyKey string) (*domain.Debit, error)
}
