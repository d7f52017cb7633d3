package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/recharge/app"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
	"github.com/nextcell/mobile-topup/internal/recharge/store"
	"golang.org/x/crypto/bcrypt"
)

var testJWTSecret = []byte("test-secret")

// apiRepoStub backs the handler tests with a single user, one beneficiary, a
// login row, and the plan catalog.
type apiRepoStub struct {
	store.Repository

	user  *domain.User
	login *domain.Login
}

func (s *apiRepoStub) FindUserWithTopUps(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *apiRepoStub) SumUserTopUpsForMonth(ctx context.Context, userID uuid.UUID, month, year int) (int64, error) {
	return 0, nil
}

func (s *apiRepoStub) ListTopUpOptions(ctx context.Context) ([]domain.TopUpOption, error) {
	return []domain.TopUpOption{{ID: uuid.New(), Amount: 5000}}, nil
}

func (s *apiRepoStub) CreateTopUpAttempt(ctx context.Context, attempt *domain.TopUpAttempt) error {
	return nil
}

func (s *apiRepoStub) UpdateTopUpAttemptStatus(ctx context.Context, attemptID uuid.UUID, status string) error {
	return nil
}

func (s *apiRepoStub) CompleteTopUp(ctx context.Context, record *domain.TopUpRecord, attemptID uuid.UUID) error {
	return nil
}

func (s *apiRepoStub) FindLoginByUsername(ctx context.Context, username string) (*domain.Login, error) {
	if s.login == nil || s.login.Username != username {
		return nil, store.ErrLoginNotFound
	}
	return s.login, nil
}

// apiGatewayStub simulates the remote balance service for handler tests.
type apiGatewayStub struct {
	balance int64
}

func (g *apiGatewayStub) GetBalance(ctx context.Context, userID string) (int64, error) {
	return g.balance, nil
}

func (g *apiGatewayStub) Debit(ctx context.Context, userID string, totalAmount int64, idempotencyKey string) error {
	g.balance -= totalAmount
	return nil
}

func (g *apiGatewayStub) CreateBalance(ctx context.Context, userID string, initialAmount int64) error {
	return nil
}

func newFixtureRepo(t *testing.T) *apiRepoStub {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	userID := uuid.New()
	return &apiRepoStub{
		user: &domain.User{
			ID:              userID,
			Username:        "alice",
			TotalTopUpLimit: 50000,
			Beneficiaries: []domain.Beneficiary{{
				ID:                uuid.New(),
				UserID:            userID,
				Nickname:          "mom",
				MonthlyTopUpLimit: 30000,
			}},
		},
		login: &domain.Login{ID: uuid.New(), Username: "alice", PasswordHash: string(hash)},
	}
}

func newAPITestServer(repo *apiRepoStub, gateway *apiGatewayStub) *httptest.Server {
	svc := app.NewService(repo, gateway, nil, app.Config{ChargeFee: 100, EventExchange: "topup.events"})
	auth := app.NewAuthenticator(repo, app.AuthConfig{JWTSecret: testJWTSecret, TokenTTL: time.Hour})
	return httptest.NewServer(RechargeRoutes(NewRechargeHandlers(svc, auth), testJWTSecret))
}

func obtainToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"username":"alice","password":"s3cret"}`))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if body.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	return body.Token
}

func TestLogin_WrongPasswordReturns401(t *testing.T) {
	srv := newAPITestServer(newFixtureRepo(t), &apiGatewayStub{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"username":"alice","password":"wrong"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newAPITestServer(newFixtureRepo(t), &apiGatewayStub{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/topup/options")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func doAuthedTopUp(t *testing.T, srv *httptest.Server, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/topup", strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestTopUpHandler_StatusMapping(t *testing.T) {
	repo := newFixtureRepo(t)
	gateway := &apiGatewayStub{balance: 3000}
	srv := newAPITestServer(repo, gateway)
	defer srv.Close()

	token := obtainToken(t, srv)
	userID := repo.user.ID
	beneficiaryID := repo.user.Beneficiaries[0].ID

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			"invalid amount",
			fmt.Sprintf(`{"user_id": %q, "beneficiary_id": %q, "amount": 0}`, userID, beneficiaryID),
			http.StatusBadRequest,
		},
		{
			"unknown plan",
			fmt.Sprintf(`{"user_id": %q, "beneficiary_id": %q, "amount": 4242}`, userID, beneficiaryID),
			http.StatusBadRequest,
		},
		{
			"unknown beneficiary",
			fmt.Sprintf(`{"user_id": %q, "beneficiary_id": %q, "amount": 5000}`, userID, uuid.New()),
			http.StatusNotFound,
		},
		{
			"insufficient balance",
			fmt.Sprintf(`{"user_id": %q, "beneficiary_id": %q, "amount": 5000}`, userID, beneficiaryID),
			http.StatusPaymentRequired,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doAuthedTopUp(t, srv, token, tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestTopUpHandler_Success(t *testing.T) {
	repo := newFixtureRepo(t)
	gateway := &apiGatewayStub{balance: 10000}
	srv := newAPITestServer(repo, gateway)
	defer srv.Close()

	token := obtainToken(t, srv)
	body := fmt.Sprintf(`{"user_id": %q, "beneficiary_id": %q, "amount": 5000}`, repo.user.ID, repo.user.Beneficiaries[0].ID)

	resp := doAuthedTopUp(t, srv, token, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var out struct {
		Amount       int64  `json:"amount"`
		ChargeFee    int64  `json:"charge_fee"`
		TotalDebited int64  `json:"total_debited"`
		Status       string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Amount != 5000 || out.ChargeFee != 100 || out.TotalDebited != 5100 || out.Status != "completed" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if gateway.balance != 4900 {
		t.Fatalf("expected remote balance 4900, got %d", gateway.balance)
	}
}
