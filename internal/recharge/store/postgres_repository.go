/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed to interact with the users, beneficiaries,
 * topup_records, topup_options, topup_attempts and logins tables.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/recharge/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrAttemptNotFound     = errors.New("top-up attempt not found")
	ErrLoginNotFound       = errors.New("login not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListUsers returns all registered users without their beneficiary collections.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, is_verified, total_topup_limit, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsVerified, &u.TotalTopUpLimit, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindUserByID retrieves a user from the database by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, username, is_verified, total_topup_limit, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.IsVerified, &user.TotalTopUpLimit, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserWithTopUps loads the user, their beneficiaries, and each beneficiary's
// top-up records in one snapshot. The top-up protocol computes the beneficiary's
// monthly sum from this snapshot rather than issuing another query.
func (r *PostgresRepository) FindUserWithTopUps(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := r.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	beneficiaries, err := r.FindBeneficiariesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, beneficiary_id, amount, charge_fee, month, year, created_at
		FROM topup_records
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byBeneficiary := make(map[uuid.UUID][]domain.TopUpRecord)
	for rows.Next() {
		var rec domain.TopUpRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.BeneficiaryID, &rec.Amount, &rec.ChargeFee, &rec.Month, &rec.Year, &rec.CreatedAt); err != nil {
			return nil, err
		}
		byBeneficiary[rec.BeneficiaryID] = append(byBeneficiary[rec.BeneficiaryID], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range beneficiaries {
		beneficiaries[i].TopUps = byBeneficiary[beneficiaries[i].ID]
	}
	user.Beneficiaries = beneficiaries
	return user, nil
}

// CreateUser inserts a new user row.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, is_verified, total_topup_limit, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, user.ID, user.Username, user.IsVerified, user.TotalTopUpLimit).Scan(&user.CreatedAt)
}

// UpdateUserVerification flips the verification flag for a user.
func (r *PostgresRepository) UpdateUserVerification(ctx context.Context, userID uuid.UUID, isVerified bool) error {
	result, err := r.db.Exec(ctx, `UPDATE users SET is_verified = $1 WHERE id = $2`, isVerified, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user. Owned beneficiaries are removed by the ON DELETE
// CASCADE constraint on beneficiaries.user_id.
func (r *PostgresRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindBeneficiariesByUserID retrieves all beneficiaries registered under a user.
func (r *PostgresRepository) FindBeneficiariesByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, nickname, monthly_topup_limit, created_at
		FROM beneficiaries
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beneficiaries []domain.Beneficiary
	for rows.Next() {
		var b domain.Beneficiary
		if err := rows.Scan(&b.ID, &b.UserID, &b.Nickname, &b.MonthlyTopUpLimit, &b.CreatedAt); err != nil {
			return nil, err
		}
		beneficiaries = append(beneficiaries, b)
	}
	return beneficiaries, rows.Err()
}

// CreateBeneficiary inserts a new beneficiary row under its owning user.
func (r *PostgresRepository) CreateBeneficiary(ctx context.Context, beneficiary *domain.Beneficiary) error {
	query := `
		INSERT INTO beneficiaries (id, user_id, nickname, monthly_topup_limit, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, beneficiary.ID, beneficiary.UserID, beneficiary.Nickname, beneficiary.MonthlyTopUpLimit).Scan(&beneficiary.CreatedAt)
}

// DeleteBeneficiary removes a beneficiary by id.
func (r *PostgresRepository) DeleteBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM beneficiaries WHERE id = $1`, beneficiaryID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrBeneficiaryNotFound
	}
	return nil
}

// ListTopUpOptions returns the catalog of permitted top-up denominations.
func (r *PostgresRepository) ListTopUpOptions(ctx context.Context) ([]domain.TopUpOption, error) {
	rows, err := r.db.Query(ctx, `SELECT id, amount FROM topup_options ORDER BY amount`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []domain.TopUpOption
	for rows.Next() {
		var o domain.TopUpOption
		if err := rows.Scan(&o.ID, &o.Amount); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// SumUserTopUpsForMonth recomputes the user's current-month total across all
// beneficiaries by scanning the append-only record table.
func (r *PostgresRepository) SumUserTopUpsForMonth(ctx context.Context, userID uuid.UUID, month, year int) (int64, error) {
	var sum int64
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM topup_records
		WHERE user_id = $1 AND month = $2 AND year = $3
	`
	if err := r.db.QueryRow(ctx, query, userID, month, year).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// CreateTopUpAttempt writes the outbox entry for a top-up protocol run. This row
// exists before the remote debit is issued.
func (r *PostgresRepository) CreateTopUpAttempt(ctx context.Context, attempt *domain.TopUpAttempt) error {
	query := `
		INSERT INTO topup_attempts (id, user_id, beneficiary_id, amount, charge_fee, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		attempt.ID, attempt.UserID, attempt.BeneficiaryID, attempt.Amount, attempt.ChargeFee, attempt.Status,
	).Scan(&attempt.CreatedAt, &attempt.UpdatedAt)
}

// UpdateTopUpAttemptStatus advances an attempt through the protocol states.
func (r *PostgresRepository) UpdateTopUpAttemptStatus(ctx context.Context, attemptID uuid.UUID, status string) error {
	result, err := r.db.Exec(ctx, `UPDATE topup_attempts SET status = $1, updated_at = NOW() WHERE id = $2`, status, attemptID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// CompleteTopUp appends the immutable top-up record and marks the attempt completed
// in one transaction. If this commit fails the remote debit has already taken
// effect; the caller surfaces that as a distinct commit failure.
func (r *PostgresRepository) CompleteTopUp(ctx context.Context, record *domain.TopUpRecord, attemptID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO topup_records (id, user_id, beneficiary_id, amount, charge_fee, month, year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, insert,
		record.ID, record.UserID, record.BeneficiaryID, record.Amount, record.ChargeFee, record.Month, record.Year,
	).Scan(&record.CreatedAt); err != nil {
		return fmt.Errorf("insert topup record: %w", err)
	}

	result, err := tx.Exec(ctx, `UPDATE topup_attempts SET status = $1, updated_at = NOW() WHERE id = $2`, domain.AttemptStatusCompleted, attemptID)
	if err != nil {
		return fmt.Errorf("mark attempt completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}

	return tx.Commit(ctx)
}

// ListOrphanedAttempts returns attempts stuck before completion for longer than the
// reconciler's orphan age. Alerted and terminal attempts are excluded.
func (r *PostgresRepository) ListOrphanedAttempts(ctx context.Context, cutoff time.Time, limit int) ([]domain.TopUpAttempt, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, beneficiary_id, amount, charge_fee, status, created_at, updated_at
		FROM topup_attempts
		WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY updated_at
		LIMIT $4
	`, domain.AttemptStatusPending, domain.AttemptStatusDebited, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.TopUpAttempt
	for rows.Next() {
		var a domain.TopUpAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.BeneficiaryID, &a.Amount, &a.ChargeFee, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// MarkAttemptAlerted records that an orphaned attempt has been reported, so the
// reconciler raises each orphan exactly once.
func (r *PostgresRepository) MarkAttemptAlerted(ctx context.Context, attemptID uuid.UUID) error {
	return r.UpdateTopUpAttemptStatus(ctx, attemptID, domain.AttemptStatusAlerted)
}

// FindLoginByUsername retrieves stored credentials for token issuance.
func (r *PostgresRepository) FindLoginByUsername(ctx context.Context, username string) (*domain.Login, error) {
	var login domain.Login
	query := `SELECT id, username, password_hash FROM logins WHERE lower(username) = lower($1)`
	err := r.db.QueryRow(ctx, query, username).Scan(&login.ID, &login.Username, &login.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoginNotFound
		}
		return nil, err
	}
	return &login, nil
}
