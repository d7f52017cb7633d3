package app

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
)

func TestValidateTopUp(t *testing.T) {
	options := []domain.TopUpOption{
		{ID: uuid.New(), Amount: 500},
		{ID: uuid.New(), Amount: 1000},
		{ID: uuid.New(), Amount: 5000},
	}

	tests := []struct {
		name               string
		amount             int64
		beneficiaryLimit   int64
		userLimit          int64
		beneficiarySum     int64
		userSum            int64
		wantErr            error
	}{
		{
			name:             "valid amount within all limits",
			amount:           5000,
			beneficiaryLimit: 30000,
			userLimit:        50000,
		},
		{
			name:             "zero amount",
			amount:           0,
			beneficiaryLimit: 30000,
			userLimit:        50000,
			wantErr:          ErrInvalidAmount,
		},
		{
			name:             "negative amount",
			amount:           -500,
			beneficiaryLimit: 30000,
			userLimit:        50000,
			wantErr:          ErrInvalidAmount,
		},
		{
			name:             "amount not in catalog",
			amount:           750,
			beneficiaryLimit: 30000,
			userLimit:        50000,
			wantErr:          ErrInvalidPlan,
		},
		{
			name:             "beneficiary limit exceeded",
			amount:           5000,
			beneficiaryLimit: 30000,
			userLimit:        50000,
			beneficiarySum:   27500,
			wantErr:          ErrBeneficiaryLimitExceeded,
		},
		{
			// 25000+5000 lands exactly on the 30000 limit and rejects.
			name:             "beneficiary limit boundary rejects equality",
			amount:           5000,
			beneficiaryLimit: 30000,
			userLimit:        100000,
			beneficiarySum:   25000,
			wantErr:          ErrBeneficiaryLimitExceeded,
		},
		{
			name:             "user limit exceeded",
			amount:           5000,
			beneficiaryLimit: 30000,
			userLimit:        50000,
			userSum:          48000,
			wantErr:          ErrUserLimitExceeded,
		},
		{
			// 45000+5000 lands exactly on the 50000 limit and is accepted.
			name:             "user limit boundary accepts equality",
			amount:           5000,
			beneficiaryLimit: 30000,
			userLimit:        50000,
			userSum:          45000,
		},
		{
			name:             "amount check wins over plan check",
			amount:           -1,
			beneficiaryLimit: 0,
			userLimit:        0,
			wantErr:          ErrInvalidAmount,
		},
		{
			name:             "plan check wins over limit checks",
			amount:           123,
			beneficiaryLimit: 0,
			userLimit:        0,
			wantErr:          ErrInvalidPlan,
		},
		{
			name:             "beneficiary check wins over user check",
			amount:           5000,
			beneficiaryLimit: 1000,
			userLimit:        1000,
			beneficiarySum:   0,
			userSum:          0,
			wantErr:          ErrBeneficiaryLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beneficiary := &domain.Beneficiary{ID: uuid.New(), MonthlyTopUpLimit: tt.beneficiaryLimit}
			user := &domain.User{ID: uuid.New(), TotalTopUpLimit: tt.userLimit}

			err := ValidateTopUp(tt.amount, options, beneficiary, user, tt.beneficiarySum, tt.userSum)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
