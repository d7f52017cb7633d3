/**
 * @description
 * This file contains the pure validation logic for a top-up request. The validator
 * has no I/O dependencies: it evaluates the requested amount against the plan
 * catalog and both monthly limits given precomputed current-month sums, so it can
 * be unit-tested without any network or storage.
 */

package app

import "github.com/nextcell/mobile-topup/internal/recharge/domain"

// ValidateTopUp checks a top-up request in a fixed order; the first failing rule
// wins and the remaining checks are skipped. No side effects.
//
// The two limit checks deliberately use different boundaries: a request that
// lands exactly on the beneficiary's monthly limit is rejected, while one that
// lands exactly on the user's total limit is accepted.
func ValidateTopUp(
	amount int64,
	options []domain.TopUpOption,
	beneficiary *domain.Beneficiary,
	user *domain.User,
	beneficiaryMonthSum int64,
	userMonthSum int64,
) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	planExists := false
	for _, option := range options {
		if option.Amount == amount {
			planExists = true
			break
		}
	}
	if !planExists {
		return ErrInvalidPlan
	}

	if beneficiaryMonthSum+amount >= beneficiary.MonthlyTopUpLimit {
		return ErrBeneficiaryLimitExceeded
	}

	if userMonthSum+amount > user.TotalTopUpLimit {
		return ErrUserLimitExceeded
	}

	return nil
}
