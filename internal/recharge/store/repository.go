/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the recharge service. Defining an interface
 * decouples the business logic from the PostgreSQL implementation and lets the app
 * layer be tested against in-memory stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/recharge/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
)

// Repository defines the set of methods for interacting with the recharge database.
type Repository interface {
	// User methods
	ListUsers(ctx context.Context) ([]domain.User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	// FindUserWithTopUps loads a user together with their beneficiaries and each
	// beneficiary's top-up records. Snapshot read, no lock held.
	FindUserWithTopUps(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUserVerification(ctx context.Context, userID uuid.UUID, isVerified bool) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Beneficiary methods
	FindBeneficiariesByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
	CreateBeneficiary(ctx context.Context, beneficiary *domain.Beneficiary) error
	DeleteBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) error

	// Top-up catalog and aggregates
	ListTopUpOptions(ctx context.Context) ([]domain.TopUpOption, error)
	// SumUserTopUpsForMonth returns the summed top-up amounts recorded for the user
	// across all beneficiaries in the given calendar month.
	SumUserTopUpsForMonth(ctx context.Context, userID uuid.UUID, month, year int) (int64, error)

	// Top-up attempt (outbox) methods
	CreateTopUpAttempt(ctx context.Context, attempt *domain.TopUpAttempt) error
	UpdateTopUpAttemptStatus(ctx context.Context, attemptID uuid.UUID, status string) error
	// CompleteTopUp appends the top-up record and marks the attempt completed in a
	// single transaction. This is the unit-of-work commit of the top-up protocol.
	CompleteTopUp(ctx context.Context, record *domain.TopUpRecord, attemptID uuid.UUID) error
	// ListOrphanedAttempts returns attempts still pending or debited that were last
	// touched before the cutoff, for the reconciler to report.
	ListOrphanedAttempts(ctx context.Context, cutoff time.Time, limit int) ([]domain.TopUpAttempt, error)
	MarkAttemptAlerted(ctx context.Context, attemptID uuid.UUID) error

	// Auth methods
	FindLoginByUsername(ctx context.Context, username string) (*domain.Login, error)
}
