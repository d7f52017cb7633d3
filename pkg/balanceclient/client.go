/**
 * @description
 * This package provides a client for communicating with the balance service.
 * It encapsulates the HTTP calls the recharge service makes against the balance
 * ledger: reading a user's balance, issuing a debit, and provisioning a balance
 * row at onboarding time.
 *
 * @notes
 * - The debit call carries an X-Idempotency-Key header so the balance service can
 *   deduplicate a resubmitted debit instead of charging twice.
 */
package balanceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError reports a non-success HTTP status returned by the balance service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("balance service returned error status %d", e.StatusCode)
}

// Client is a client for the balance service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new balance service client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}
}

// GetBalance fetches the current balance amount for a user. The balance service
// responds with the raw amount as the response body.
func (c *Client) GetBalance(ctx context.Context, userID string) (int64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("balance service base url is empty")
	}

	url := fmt.Sprintf("%s/get-user-balance?userId=%s", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request to balance service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance response: %w", err)
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse balance response %q: %w", string(body), err)
	}
	return amount, nil
}

// debitRequest is the JSON body of the make-payment call.
type debitRequest struct {
	TotalAmount int64 `json:"totalAmount"`
}

// Debit asks the balance service to deduct totalAmount from the user's balance.
// Any success status code is treated as an applied debit; anything else is a
// StatusError so the caller can refuse to write a local record.
func (c *Client) Debit(ctx context.Context, userID string, totalAmount int64, idempotencyKey string) error {
	if c.baseURL == "" {
		return fmt.Errorf("balance service base url is empty")
	}

	url := fmt.Sprintf("%s/make-payment?userid=%s", c.baseURL, userID)

	body, err := json.Marshal(debitRequest{TotalAmount: totalAmount})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if strings.TrimSpace(idempotencyKey) != "" {
		req.Header.Set("X-Idempotency-Key", strings.TrimSpace(idempotencyKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to balance service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// createBalanceRequest is the JSON body of the add-balance call.
type createBalanceRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// CreateBalance provisions a balance row for a new user. Called at onboarding.
func (c *Client) CreateBalance(ctx context.Context, userID string, initialAmount int64) error {
	if c.baseURL == "" {
		return fmt.Errorf("balance service base url is empty")
	}

	url := fmt.Sprintf("%s/add-balance", c.baseURL)

	body, err := json.Marshal(createBalanceRequest{UserID: userID, Amount: initialAmount})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to balance service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
