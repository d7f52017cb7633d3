/**
 * @description
 * Background reconciler for orphaned top-up attempts. An attempt left in the
 * pending or debited state past the orphan age means a debit may have been
 * applied on the balance service without a committed local record (or its
 * outcome is unknown, e.g. the request was cancelled mid-flight). The reconciler
 * reports each orphan once — a log line plus a reconciliation event — and marks
 * it alerted. It never re-issues or compensates a debit: resolving the money
 * movement is a manual operation.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/nextcell/mobile-topup/internal/recharge/domain"
	"github.com/nextcell/mobile-topup/pkg/rabbitmq"
)

const reconcileBatchLimit = 100

// ReconcileOrphanedAttempts scans for attempts stuck before completion for longer
// than orphanAge and raises an alert for each. Returns the number of attempts
// alerted in this pass.
func (s *Service) ReconcileOrphanedAttempts(ctx context.Context, orphanAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-orphanAge)
	attempts, err := s.repo.ListOrphanedAttempts(ctx, cutoff, reconcileBatchLimit)
	if err != nil {
		return 0, err
	}

	alerted := 0
	for _, attempt := range attempts {
		reason := "debit applied without committed local record"
		if attempt.Status == domain.AttemptStatusPending {
			// A pending orphan never confirmed its debit; the remote outcome is
			// ambiguous and must be checked against the balance ledger by hand.
			reason = "debit outcome unknown; attempt never completed"
		}

		log.Printf("level=error component=reconciler msg=\"orphaned top-up attempt requires manual reconciliation\" attempt_id=%s user_id=%s beneficiary_id=%s amount=%d charge_fee=%d status=%s age_cutoff=%s",
			attempt.ID, attempt.UserID, attempt.BeneficiaryID, attempt.Amount, attempt.ChargeFee, attempt.Status, cutoff.UTC().Format(time.RFC3339))

		if err := s.events.PublishReconciliationRequired(ctx, s.cfg.EventExchange, rabbitmq.ReconciliationEvent{
			AttemptID:     attempt.ID,
			UserID:        attempt.UserID,
			BeneficiaryID: attempt.BeneficiaryID,
			Amount:        attempt.Amount,
			ChargeFee:     attempt.ChargeFee,
			AttemptStatus: attempt.Status,
			Reason:        reason,
			Timestamp:     time.Now().UTC(),
		}); err != nil {
			log.Printf("level=warn component=reconciler msg=\"reconciliation event publish failed\" attempt_id=%s err=%v", attempt.ID, err)
			// Leave the attempt un-alerted so the next pass retries the report.
			continue
		}

		if err := s.repo.MarkAttemptAlerted(ctx, attempt.ID); err != nil {
			log.Printf("level=warn component=reconciler msg=\"failed to mark attempt alerted\" attempt_id=%s err=%v", attempt.ID, err)
			continue
		}
		alerted++
	}

	return alerted, nil
}

// RunReconciler loops ReconcileOrphanedAttempts on the given interval until the
// context is cancelled. Started as a goroutine from main.
func (s *Service) RunReconciler(ctx context.Context, interval, orphanAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("level=info component=reconciler msg=\"reconciler started\" interval=%s orphan_age=%s", interval, orphanAge)
	for {
		select {
		case <-ctx.Done():
			log.Println("level=info component=reconciler msg=\"reconciler stopped\"")
			return
		case <-ticker.C:
			if _, err := s.ReconcileOrphanedAttempts(ctx, orphanAge); err != nil {
				log.Printf("level=warn component=reconciler msg=\"reconcile pass failed\" err=%v", err)
			}
		}
	}
}
