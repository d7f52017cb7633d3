package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != "8081" {
		t.Errorf("expected default port 8081, got %q", cfg.ServerPort)
	}
	if cfg.ChargeFeeFils != 100 {
		t.Errorf("expected default charge fee 100, got %d", cfg.ChargeFeeFils)
	}
	if cfg.UserMonthlyTopUpLimitFils != 50000 {
		t.Errorf("expected default user limit 50000, got %d", cfg.UserMonthlyTopUpLimitFils)
	}
	if cfg.BeneficiaryMonthlyTopUpLimit != 30000 {
		t.Errorf("expected default beneficiary limit 30000, got %d", cfg.BeneficiaryMonthlyTopUpLimit)
	}
	if cfg.TopUpEventExchange != "topup.events" {
		t.Errorf("expected default exchange topup.events, got %q", cfg.TopUpEventExchange)
	}
	if cfg.ReconcileIntervalSeconds != 60 || cfg.ReconcileOrphanAgeSeconds != 120 {
		t.Errorf("unexpected reconciler defaults: interval=%d orphan_age=%d", cfg.ReconcileIntervalSeconds, cfg.ReconcileOrphanAgeSeconds)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CHARGE_FEE_FILS", "250")
	t.Setenv("USER_MONTHLY_TOPUP_LIMIT_FILS", "100000")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ChargeFeeFils != 250 {
		t.Errorf("expected overridden fee 250, got %d", cfg.ChargeFeeFils)
	}
	if cfg.UserMonthlyTopUpLimitFils != 100000 {
		t.Errorf("expected overridden limit 100000, got %d", cfg.UserMonthlyTopUpLimitFils)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("expected overridden port 9090, got %q", cfg.ServerPort)
	}
}

func TestLoadConfigCoercesNegativeFee(t *testing.T) {
	t.Setenv("CHARGE_FEE_FILS", "-50")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChargeFeeFils != 0 {
		t.Errorf("expected negative fee coerced to zero, got %d", cfg.ChargeFeeFils)
	}
}
