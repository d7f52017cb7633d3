package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
	"github.com/nextcell/mobile-topup/internal/recharge/store"
	"github.com/nextcell/mobile-topup/pkg/rabbitmq"
)

type reconcileRepoStub struct {
	store.Repository

	orphans    []domain.TopUpAttempt
	listCalls  int
	alertedIDs []uuid.UUID
	markErr    error
}

func (s *reconcileRepoStub) ListOrphanedAttempts(ctx context.Context, cutoff time.Time, limit int) ([]domain.TopUpAttempt, error) {
	s.listCalls++
	return s.orphans, nil
}

func (s *reconcileRepoStub) MarkAttemptAlerted(ctx context.Context, attemptID uuid.UUID) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.alertedIDs = append(s.alertedIDs, attemptID)
	return nil
}

// failingPublisher rejects reconciliation events until unblocked.
type failingPublisher struct {
	capturePublisher
	publishErr error
}

func (p *failingPublisher) PublishReconciliationRequired(ctx context.Context, exchange string, event rabbitmq.ReconciliationEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	return p.capturePublisher.PublishReconciliationRequired(ctx, exchange, event)
}

func orphanAttempt(status string) domain.TopUpAttempt {
	return domain.TopUpAttempt{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		BeneficiaryID: uuid.New(),
		Amount:        5000,
		ChargeFee:     100,
		Status:        status,
	}
}

func TestReconcileOrphanedAttempts_AlertsEachOrphanOnce(t *testing.T) {
	pending := orphanAttempt(domain.AttemptStatusPending)
	debited := orphanAttempt(domain.AttemptStatusDebited)
	repo := &reconcileRepoStub{orphans: []domain.TopUpAttempt{pending, debited}}
	events := &capturePublisher{}
	svc := NewService(repo, &balanceGatewayStub{}, events, Config{EventExchange: "topup.events"})

	alerted, err := svc.ReconcileOrphanedAttempts(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerted != 2 {
		t.Fatalf("expected 2 alerted, got %d", alerted)
	}
	if len(events.reconciliation) != 2 {
		t.Fatalf("expected 2 reconciliation events, got %d", len(events.reconciliation))
	}
	if len(repo.alertedIDs) != 2 {
		t.Fatalf("expected 2 attempts marked alerted, got %d", len(repo.alertedIDs))
	}
	// Pending and debited orphans carry distinct reasons: a pending orphan's
	// debit outcome is unknown, a debited orphan's debit is confirmed applied.
	if events.reconciliation[0].Reason == events.reconciliation[1].Reason {
		t.Fatal("expected distinct reasons for pending vs debited orphans")
	}
}

func TestReconcileOrphanedAttempts_PublishFailureLeavesAttemptUnalerted(t *testing.T) {
	orphan := orphanAttempt(domain.AttemptStatusDebited)
	repo := &reconcileRepoStub{orphans: []domain.TopUpAttempt{orphan}}
	events := &failingPublisher{publishErr: errors.New("broker unavailable")}
	svc := NewService(repo, &balanceGatewayStub{}, events, Config{EventExchange: "topup.events"})

	alerted, err := svc.ReconcileOrphanedAttempts(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerted != 0 {
		t.Fatalf("expected 0 alerted, got %d", alerted)
	}
	if len(repo.alertedIDs) != 0 {
		t.Fatal("attempt must stay unalerted so the next pass retries")
	}

	// Broker recovers; the same orphan is reported on the next pass.
	events.publishErr = nil
	alerted, err = svc.ReconcileOrphanedAttempts(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerted != 1 {
		t.Fatalf("expected 1 alerted on retry, got %d", alerted)
	}
	if len(repo.alertedIDs) != 1 || repo.alertedIDs[0] != orphan.ID {
		t.Fatalf("expected orphan %s marked alerted, got %v", orphan.ID, repo.alertedIDs)
	}
}

func TestReconcileOrphanedAttempts_NoOrphans(t *testing.T) {
	repo := &reconcileRepoStub{}
	events := &capturePublisher{}
	svc := NewService(repo, &balanceGatewayStub{}, events, Config{EventExchange: "topup.events"})

	alerted, err := svc.ReconcileOrphanedAttempts(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerted != 0 || len(events.reconciliation) != 0 {
		t.Fatal("expected nothing alerted")
	}
}
