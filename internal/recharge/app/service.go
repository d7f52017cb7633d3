/**
 * @description
 * This file contains the core business logic for the recharge service. The
 * `Service` struct orchestrates the top-up protocol, coordinating the database
 * repository, the remote balance service client, and the event producer.
 *
 * Key features:
 * - Implements the multi-step top-up protocol: snapshot read, pure validation,
 *   remote balance check, outbox entry, remote debit, local commit.
 * - The remote debit always happens before the local record write, so a local
 *   record can never exist for a debit that was never applied.
 * - No step is retried: every external failure is surfaced to the caller, who
 *   resubmits. The only unresolved window is a commit failure after a successful
 *   debit, which is logged and published for manual reconciliation.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For entity ids and the per-attempt idempotency key.
 * - internal/recharge/domain, internal/recharge/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
	"github.com/nextcell/mobile-topup/internal/recharge/store"
	"github.com/nextcell/mobile-topup/pkg/rabbitmq"
)

// BalanceGateway is the recharge service's view of the balance service. The
// concrete implementation lives in pkg/balanceclient.
type BalanceGateway interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, totalAmount int64, idempotencyKey string) error
	CreateBalance(ctx context.Context, userID string, initialAmount int64) error
}

// RateLimiter consumes one token from a named window and reports the running
// count. Implemented by the Redis limiter; a nil limiter disables limiting.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Config is the immutable configuration snapshot injected into the service at
// construction time. Monetary values are in fils.
type Config struct {
	ChargeFee                      int64
	DefaultUserMonthlyLimit        int64
	DefaultBeneficiaryMonthlyLimit int64
	TopUpRateLimitPerMinute        int
	EventExchange                  string
}

// Service provides the core business logic for the recharge service.
type Service struct {
	repo    store.Repository
	balance BalanceGateway
	events  rabbitmq.Publisher
	limiter RateLimiter
	cfg     Config
}

// NewService creates a new recharge service instance.
func NewService(repo store.Repository, balance BalanceGateway, events rabbitmq.Publisher, cfg Config) *Service {
	if events == nil {
		events = &rabbitmq.EventProducerFallback{}
	}
	return &Service{
		repo:    repo,
		balance: balance,
		events:  events,
		cfg:     cfg,
	}
}

// SetRateLimiter installs the distributed top-up rate limiter. Optional; without
// it top-up requests are not throttled.
func (s *Service) SetRateLimiter(limiter RateLimiter) {
	s.limiter = limiter
}

// GetTopUpOptions returns the catalog of permitted top-up denominations.
func (s *Service) GetTopUpOptions(ctx context.Context) ([]domain.TopUpOption, error) {
	return s.repo.ListTopUpOptions(ctx)
}

// TopUp runs the cross-service top-up protocol for one request.
func (s *Service) TopUp(ctx context.Context, userID, beneficiaryID uuid.UUID, amount int64) (*domain.TopUpRecord, error) {
	// Reject non-positive amounts before any storage, network or limiter work.
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if s.limiter != nil && s.cfg.TopUpRateLimitPerMinute > 0 {
		count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, "topup", userID.String(), s.cfg.TopUpRateLimitPerMinute, time.Minute)
		if err != nil {
			// Fail open: a limiter outage must not block money movement.
			log.Printf("level=warn component=app msg=\"rate limiter unavailable; allowing request\" user_id=%s err=%v", userID, err)
		} else if count > s.cfg.TopUpRateLimitPerMinute {
			log.Printf("level=warn component=app outcome=reject reason=rate_limited user_id=%s count=%d retry_after_s=%d", userID, count, retryAfter)
			return nil, ErrRateLimited
		}
	}

	// 1. Snapshot read of the user with beneficiaries and their top-up records.
	user, err := s.repo.FindUserWithTopUps(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 2. Locate the beneficiary among the user's own beneficiaries.
	var beneficiary *domain.Beneficiary
	for i := range user.Beneficiaries {
		if user.Beneficiaries[i].ID == beneficiaryID {
			beneficiary = &user.Beneficiaries[i]
			break
		}
	}
	if beneficiary == nil {
		return nil, store.ErrBeneficiaryNotFound
	}

	// 3. Current-month sums: the beneficiary's from the snapshot, the user's via
	// an independent aggregate query.
	now := time.Now()
	month, year := int(now.Month()), now.Year()

	var beneficiarySum int64
	for _, rec := range beneficiary.TopUps {
		if rec.Month == month && rec.Year == year {
			beneficiarySum += rec.Amount
		}
	}

	userSum, err := s.repo.SumUserTopUpsForMonth(ctx, userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user monthly total: %w", err)
	}

	// 4. Pure validation against the plan catalog and both monthly limits. Any
	// failure here is terminal and nothing has been mutated yet.
	options, err := s.repo.ListTopUpOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load top-up options: %w", err)
	}
	if err := ValidateTopUp(amount, options, beneficiary, user, beneficiarySum, userSum); err != nil {
		return nil, err
	}

	// 5. Remote balance read. An unreachable balance service and a short balance
	// are both terminal; no mutation has happened on either side.
	balance, err := s.balance.GetBalance(ctx, userID.String())
	if err != nil {
		log.Printf("level=warn component=app outcome=reject reason=balance_unavailable user_id=%s err=%v", userID, err)
		return nil, fmt.Errorf("%w: %v", ErrBalanceUnavailable, err)
	}
	if balance < amount {
		return nil, ErrInsufficientBalance
	}

	// 6. Persist the outbox entry, then issue the remote debit carrying the
	// attempt id as idempotency key. The entry exists before the debit so a
	// debit without a local record can always be found later.
	attempt := &domain.TopUpAttempt{
		ID:            uuid.New(),
		UserID:        userID,
		BeneficiaryID: beneficiaryID,
		Amount:        amount,
		ChargeFee:     s.cfg.ChargeFee,
		Status:        domain.AttemptStatusPending,
	}
	if err := s.repo.CreateTopUpAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create top-up attempt: %w", err)
	}

	totalAmount := amount + s.cfg.ChargeFee
	if err := s.balance.Debit(ctx, userID.String(), totalAmount, attempt.ID.String()); err != nil {
		// No local record is written for a failed debit, so the ledger and our
		// records cannot diverge in this direction. Safe for the caller to retry.
		if markErr := s.repo.UpdateTopUpAttemptStatus(ctx, attempt.ID, domain.AttemptStatusFailed); markErr != nil {
			log.Printf("level=warn component=app msg=\"failed to mark attempt failed\" attempt_id=%s err=%v", attempt.ID, markErr)
		}
		log.Printf("level=warn component=app outcome=reject reason=debit_failed user_id=%s attempt_id=%s total_amount=%d err=%v", userID, attempt.ID, totalAmount, err)
		return nil, fmt.Errorf("%w: %v", ErrDebitFailed, err)
	}

	if err := s.repo.UpdateTopUpAttemptStatus(ctx, attempt.ID, domain.AttemptStatusDebited); err != nil {
		// The debit is applied; keep going so the record write can still succeed.
		log.Printf("level=warn component=app msg=\"failed to mark attempt debited\" attempt_id=%s err=%v", attempt.ID, err)
	}

	// 7. Append the immutable record and close the attempt in one commit. A
	// failure here is the acknowledged inconsistency window: the remote debit
	// has taken effect with no local record.
	record := &domain.TopUpRecord{
		ID:            uuid.New(),
		UserID:        userID,
		BeneficiaryID: beneficiaryID,
		Amount:        amount,
		ChargeFee:     s.cfg.ChargeFee,
		Month:         month,
		Year:          year,
	}
	if err := s.repo.CompleteTopUp(ctx, record, attempt.ID); err != nil {
		log.Printf("level=error component=app msg=\"CRITICAL: debit applied but local commit failed; manual reconciliation required\" user_id=%s beneficiary_id=%s amount=%d charge_fee=%d attempt_id=%s timestamp=%s err=%v",
			userID, beneficiaryID, amount, s.cfg.ChargeFee, attempt.ID, time.Now().UTC().Format(time.RFC3339), err)
		if pubErr := s.events.PublishReconciliationRequired(ctx, s.cfg.EventExchange, rabbitmq.ReconciliationEvent{
			AttemptID:     attempt.ID,
			UserID:        userID,
			BeneficiaryID: beneficiaryID,
			Amount:        amount,
			ChargeFee:     s.cfg.ChargeFee,
			AttemptStatus: domain.AttemptStatusDebited,
			Reason:        "local commit failed after successful debit",
			Timestamp:     time.Now().UTC(),
		}); pubErr != nil {
			log.Printf("level=warn component=app msg=\"reconciliation event publish failed\" attempt_id=%s err=%v", attempt.ID, pubErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	// 8. Success. Event publishing is best effort and never fails the top-up.
	if pubErr := s.events.PublishTopUpCompleted(ctx, s.cfg.EventExchange, rabbitmq.TopUpCompletedEvent{
		AttemptID:     attempt.ID,
		UserID:        userID,
		BeneficiaryID: beneficiaryID,
		Amount:        amount,
		ChargeFee:     s.cfg.ChargeFee,
		Timestamp:     time.Now().UTC(),
	}); pubErr != nil {
		log.Printf("level=warn component=app msg=\"topup completed event publish failed\" attempt_id=%s err=%v", attempt.ID, pubErr)
	}

	log.Printf("level=info component=app outcome=success user_id=%s beneficiary_id=%s amount=%d charge_fee=%d attempt_id=%s", userID, beneficiaryID, amount, s.cfg.ChargeFee, attempt.ID)
	return record, nil
}

// ListUsers returns all registered users.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a user with their beneficiaries and top-up history.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.FindUserWithTopUps(ctx, userID)
}

// CreateUser registers a new user. The monthly total limit comes from the
// configured default, and a balance row is provisioned on the balance service.
func (s *Service) CreateUser(ctx context.Context, username string, isVerified bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}

	user := &domain.User{
		ID:              uuid.New(),
		Username:        username,
		IsVerified:      isVerified,
		TotalTopUpLimit: s.cfg.DefaultUserMonthlyLimit,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Onboarding provisions the remote balance row. A failure here leaves the
	// user without a ledger entry; top-ups will reject until it is created.
	if err := s.balance.CreateBalance(ctx, user.ID.String(), 0); err != nil {
		log.Printf("level=warn component=app msg=\"balance provisioning failed at onboarding\" user_id=%s err=%v", user.ID, err)
	}

	return user, nil
}

// UpdateUserVerification updates the user's verification status. This is the
// only user mutation the service supports after registration.
func (s *Service) UpdateUserVerification(ctx context.Context, userID uuid.UUID, isVerified bool) error {
	return s.repo.UpdateUserVerification(ctx, userID, isVerified)
}

// DeleteUser removes a user and, by cascade, their beneficiaries.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteUser(ctx, userID)
}

// ListBeneficiaries retrieves all beneficiaries registered under a user.
func (s *Service) ListBeneficiaries(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.FindBeneficiariesByUserID(ctx, userID)
}

// AddBeneficiary registers a beneficiary under the user with the configured
// default monthly limit.
func (s *Service) AddBeneficiary(ctx context.Context, userID uuid.UUID, nickname string) (*domain.Beneficiary, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, ErrEmptyNickname
	}
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	beneficiary := &domain.Beneficiary{
		ID:                uuid.New(),
		UserID:            userID,
		Nickname:          nickname,
		MonthlyTopUpLimit: s.cfg.DefaultBeneficiaryMonthlyLimit,
	}
	if err := s.repo.CreateBeneficiary(ctx, beneficiary); err != nil {
		return nil, fmt.Errorf("failed to create beneficiary: %w", err)
	}
	return beneficiary, nil
}

// DeleteBeneficiary removes a beneficiary by id.
func (s *Service) DeleteBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) error {
	return s.repo.DeleteBeneficiary(ctx, beneficiaryID)
}
