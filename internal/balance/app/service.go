/**
 * @description
 * This file contains the business logic for the balance service. The service is
 * deliberately thin: the interesting guarantees (atomic conditional debit,
 * idempotent replay, non-negative balance) live in the store layer, and this
 * layer validates inputs and logs outcomes.
 *
 * @dependencies
 * - context, errors, log: Standard Go libraries.
 * - github.com/google/uuid: User identifiers.
 * - internal/balance/domain, internal/balance/store: Models and data access.
 */

package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/balance/domain"
	"github.com/nextcell/mobile-topup/internal/balance/store"
)

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidInitialAmount = errors.New("initial amount cannot be negative")
)

// Service provides the balance service's business logic.
type Service struct {
	repo store.Repository
}

// NewService creates a new balance service instance.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// GetBalance returns the user's current balance in fils.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// CreateBalance provisions a balance row for a new user. Zero is a valid
// starting amount; negative is not.
func (s *Service) CreateBalance(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrInvalidInitialAmount
	}
	if err := s.repo.CreateBalance(ctx, userID, amount); err != nil {
		return err
	}
	log.Printf("level=info component=app msg=\"balance created\" user_id=%s amount=%d", userID, amount)
	return nil
}

// MakePayment debits totalAmount from the user's balance. The idempotency key
// deduplicates replays: a key that already produced a debit is acknowledged
// without a second decrement. An empty key disables deduplication for callers
// that do not send one.
func (s *Service) MakePayment(ctx context.Context, userID uuid.UUID, totalAmount int64, idempotencyKey string) (*domain.Debit, error) {
	if totalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	debit, err := s.repo.ApplyDebit(ctx, userID, totalAmount, idempotencyKey)
	if err != nil {
		log.Printf("level=warn component=app outcome=reject reason=debit_rejected user_id=%s amount=%d err=%v", userID, totalAmount, err)
		return nil, err
	}

	log.Printf("level=info component=app outcome=success msg=\"payment applied\" user_id=%s amount=%d debit_id=%s", userID, totalAmount, debit.ID)
	return debit, nil
}
