package app

import "errors"

// Business rejection errors surfaced by the top-up protocol. None of these are
// retried by the service itself; the caller decides whether to resubmit.
var (
	ErrInvalidAmount            = errors.New("invalid top-up amount")
	ErrInvalidPlan              = errors.New("top-up plan is invalid")
	ErrBeneficiaryLimitExceeded = errors.New("beneficiary monthly top-up limit exceeded")
	ErrUserLimitExceeded        = errors.New("user monthly top-up limit exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrBalanceUnavailable       = errors.New("balance service unavailable")
	ErrDebitFailed              = errors.New("failed to deduct balance from balance service")
	ErrRateLimited              = errors.New("too many top-up attempts")
	ErrEmptyNickname            = errors.New("nickname cannot be empty")
	ErrInvalidCredentials       = errors.New("invalid username or password")

	// ErrCommitFailed marks the one acknowledged inconsistency window: the remote
	// debit has been applied but the local record could not be committed. Not
	// safely retryable by resubmission; requires manual reconciliation.
	ErrCommitFailed = errors.New("top-up commit failed after debit")
)
