/**
 * @description
 * This file provides the PostgreSQL implementation of the balance service's
 * `Repository` interface. The debit path is the heart of the service: one
 * conditional UPDATE inside a transaction, so the balance can never go negative
 * and a crash can never leave a half-applied debit.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/balance/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextcell/mobile-topup/internal/balance/domain"
)

var (
	ErrBalanceNotFound   = errors.New("balance not found")
	ErrBalanceExists     = errors.New("balance already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateBalance inserts the user's single balance row.
func (r *PostgresRepository) CreateBalance(ctx context.Context, userID uuid.UUID, amount int64) error {
	query := `INSERT INTO balances (user_id, balance_amount) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, userID, amount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrBalanceExists
		}
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// GetBalance returns the current balance amount for the user.
func (r *PostgresRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var amount int64
	query := `SELECT balance_amount FROM balances WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBalanceNotFound
		}
		return 0, err
	}
	return amount, nil
}

// ApplyDebit performs the conditional debit inside one transaction. The order is:
// replay check on the idempotency key, conditional decrement, debit record insert.
// The decrement's WHERE clause enforces the non-negative balance invariant; zero
// affected rows is disambiguated into not-found vs insufficient funds.
func (r *PostgresRepository) ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64, idempotencyKey string) (*domain.Debit, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replay: a debit already recorded under this key is acknowledged as applied
	// without touching the balance again.
	var existing domain.Debit
	err = tx.QueryRow(ctx,
		`SELECT id, user_id, idempotency_key, amount, created_at FROM balance_debits WHERE idempotency_key = $1`,
		idempotencyKey,
	).Scan(&existing.ID, &existing.UserID, &existing.IdempotencyKey, &existing.Amount, &existing.CreatedAt)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE balances SET balance_amount = balance_amount - $1, updated_at = NOW() WHERE user_id = $2 AND balance_amount >= $1`,
		amount, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply debit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM balances WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrBalanceNotFound
		}
		return nil, ErrInsufficientFunds
	}

	debit := &domain.Debit{
		ID:             uuid.New(),
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Amount:         amount,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO balance_debits (id, user_id, idempotency_key, amount) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		debit.ID, debit.UserID, debit.IdempotencyKey, debit.Amount,
	).Scan(&debit.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record debit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit debit: %w", err)
	}
	return debit, nil
}
