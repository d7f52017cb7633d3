/**
 * @description
 * This file defines the core domain models for the recharge service. These structs
 * represent the main entities and data transfer objects (DTOs) used throughout the
 * service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` representing the value in the smallest currency
 *   unit (fils), which avoids floating-point inaccuracies with monetary data.
 * - TopUpRecord is an append-only fact: it is never updated or deleted once written.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account holder who can register beneficiaries and send top-ups.
// TotalTopUpLimit is the monthly ceiling across all of the user's beneficiaries,
// assigned from configuration at creation time.
type User struct {
	ID              uuid.UUID     `json:"id"`
	Username        string        `json:"username"`
	IsVerified      bool          `json:"is_verified"`
	TotalTopUpLimit int64         `json:"total_topup_limit"` // in fils
	Beneficiaries   []Beneficiary `json:"beneficiaries,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Beneficiary is a recipient registered under exactly one user. MonthlyTopUpLimit
// caps the summed top-up amounts sent to this beneficiary in a calendar month.
type Beneficiary struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	Nickname          string        `json:"nickname"`
	MonthlyTopUpLimit int64         `json:"monthly_topup_limit"` // in fils
	TopUps            []TopUpRecord `json:"topups,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// TopUpRecord is the immutable ledger entry for a completed top-up. Month and Year
// index the record into its calendar month so that monthly aggregates can be
// recomputed by comparison rather than by an explicit reset job.
type TopUpRecord struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	Amount        int64     `json:"amount"`     // in fils
	ChargeFee     int64     `json:"charge_fee"` // in fils
	Month         int       `json:"month"`
	Year          int       `json:"year"`
	CreatedAt     time.Time `json:"created_at"`
}

// TopUpOption is a catalog entry of a permitted top-up denomination. Read-only
// reference data; a top-up request must match one of these amounts exactly.
type TopUpOption struct {
	ID     uuid.UUID `json:"id"`
	Amount int64     `json:"amount"` // in fils
}

// Attempt statuses for the top-up outbox. An attempt is written before the remote
// debit is issued and advanced as the protocol progresses, so that a debit with no
// matching local record can always be found and reconciled.
const (
	AttemptStatusPending   = "pending"
	AttemptStatusDebited   = "debited"
	AttemptStatusCompleted = "completed"
	AttemptStatusFailed    = "failed"
	AttemptStatusAlerted   = "alerted"
)

// TopUpAttempt is the outbox entry for one top-up protocol run. Its ID doubles as
// the idempotency key carried on the remote debit request.
type TopUpAttempt struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	Amount        int64     `json:"amount"`
	ChargeFee     int64     `json:"charge_fee"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Login holds the credentials used to obtain an API token.
type Login struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
}

// TopUpRequest is the DTO for incoming top-up API requests.
type TopUpRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	BeneficiaryID uuid.UUID `json:"beneficiary_id"`
	Amount        int64     `json:"amount"` // in fils
}

// CreateUserRequest is the DTO for registering a new user.
type CreateUserRequest struct {
	Username   string `json:"username"`
	IsVerified bool   `json:"is_verified"`
}

// CreateBeneficiaryRequest is the DTO for registering a beneficiary under a user.
type CreateBeneficiaryRequest struct {
	Nickname string `json:"nickname"`
}
