package balanceclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetBalance_ParsesRawAmountBody(t *testing.T) {
	var gotPath, gotUserID, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserID = r.URL.Query().Get("userId")
		gotAPIKey = r.Header.Get("X-Internal-API-Key")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("12345"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	amount, err := client.GetBalance(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 12345 {
		t.Fatalf("expected 12345, got %d", amount)
	}
	if gotPath != "/get-user-balance" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotUserID != "user-1" {
		t.Fatalf("unexpected userId %q", gotUserID)
	}
	if gotAPIKey != "secret" {
		t.Fatalf("expected internal API key header, got %q", gotAPIKey)
	}
}

func TestGetBalance_NonSuccessIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Balance not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.GetBalance(context.Background(), "user-1")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", statusErr.StatusCode)
	}
}

func TestDebit_SendsWireContract(t *testing.T) {
	var gotMethod, gotUserID, gotIdempotencyKey string
	var gotBody map[string]int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotUserID = r.URL.Query().Get("userid")
		gotIdempotencyKey = r.Header.Get("X-Idempotency-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	if err := client.Debit(context.Background(), "user-1", 5100, "attempt-42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if gotUserID != "user-1" {
		t.Fatalf("unexpected userid %q", gotUserID)
	}
	if gotIdempotencyKey != "attempt-42" {
		t.Fatalf("unexpected idempotency key %q", gotIdempotencyKey)
	}
	if gotBody["totalAmount"] != 5100 {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestDebit_NonSuccessIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	err := client.Debit(context.Background(), "user-1", 5100, "attempt-42")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", statusErr.StatusCode)
	}
}

func TestCreateBalance_PostsUserAndAmount(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	if err := client.CreateBalance(context.Background(), "user-1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/add-balance" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["user_id"] != "user-1" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}
