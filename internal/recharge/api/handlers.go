/**
 * @description
 * This file contains the HTTP handlers for the recharge service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/recharge/app, internal/recharge/domain, internal/recharge/store: For
 *   service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nextcell/mobile-topup/internal/recharge/app"
	"github.com/nextcell/mobile-topup/internal/recharge/domain"
	"github.com/nextcell/mobile-topup/internal/recharge/store"
)

// RechargeHandlers holds the application services that handlers will use.
type RechargeHandlers struct {
	service *app.Service
	auth    *app.Authenticator
}

// NewRechargeHandlers creates a new instance of RechargeHandlers.
func NewRechargeHandlers(service *app.Service, auth *app.Authenticator) *RechargeHandlers {
	return &RechargeHandlers{service: service, auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// topUpResponse is sent back to the client after a completed top-up.
type topUpResponse struct {
	TopUpID       string `json:"topup_id"`
	UserID        string `json:"user_id"`
	BeneficiaryID string `json:"beneficiary_id"`
	Amount        int64  `json:"amount"`
	ChargeFee     int64  `json:"charge_fee"`
	TotalDebited  int64  `json:"total_debited"`
	Status        string `json:"status"`
}

// LoginHandler exchanges credentials for a bearer token.
func (h *RechargeHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		log.Printf("level=error component=api endpoint=login msg=\"login failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to process login")
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// TopUpHandler handles requests to send a top-up to a beneficiary.
func (h *RechargeHandlers) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=topup outcome=reject reason=invalid_json err=%v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	log.Printf("level=info component=api endpoint=topup outcome=accepted user_id=%s beneficiary_id=%s amount=%d", req.UserID, req.BeneficiaryID, req.Amount)

	record, err := h.service.TopUp(r.Context(), req.UserID, req.BeneficiaryID, req.Amount)
	if err != nil {
		log.Printf("level=warn component=api endpoint=topup outcome=failed user_id=%s err=%v", req.UserID, err)
		switch {
		case errors.Is(err, app.ErrInvalidAmount),
			errors.Is(err, app.ErrInvalidPlan),
			errors.Is(err, app.ErrBeneficiaryLimitExceeded),
			errors.Is(err, app.ErrUserLimitExceeded):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrUserNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
			return
		case errors.Is(err, store.ErrBeneficiaryNotFound):
			http.Error(w, "Beneficiary not found", http.StatusNotFound)
			return
		case errors.Is(err, app.ErrInsufficientBalance):
			http.Error(w, err.Error(), http.StatusPaymentRequired)
			return
		case errors.Is(err, app.ErrRateLimited):
			w.Header().Set("Retry-After", "60")
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		case errors.Is(err, app.ErrBalanceUnavailable), errors.Is(err, app.ErrDebitFailed):
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		case errors.Is(err, app.ErrCommitFailed):
			// The debit went through but the local record did not commit. Surface
			// the distinct outcome; the client must not blindly resubmit.
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.writeJSON(w, http.StatusCreated, topUpResponse{
		TopUpID:       record.ID.String(),
		UserID:        record.UserID.String(),
		BeneficiaryID: record.BeneficiaryID.String(),
		Amount:        record.Amount,
		ChargeFee:     record.ChargeFee,
		TotalDebited:  record.Amount + record.ChargeFee,
		Status:        "completed",
	})
}

// TopUpOptionsHandler returns the catalog of permitted top-up denominations.
func (h *RechargeHandlers) TopUpOptionsHandler(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.GetTopUpOptions(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=topup_options msg=\"failed to list options\" err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, options)
}

// ListUsersHandler returns all registered users.
func (h *RechargeHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_users msg=\"failed to list users\" err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// CreateUserHandler registers a new user.
func (h *RechargeHandlers) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Username, req.IsVerified)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_user outcome=failed username=%s err=%v", req.Username, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// GetUserHandler returns a user with their beneficiaries and top-up history.
func (h *RechargeHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=get_user msg=\"failed to load user\" user_id=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

type updateVerificationRequest struct {
	IsVerified bool `json:"is_verified"`
}

// UpdateUserVerificationHandler updates a user's verification status.
func (h *RechargeHandlers) UpdateUserVerificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	var req updateVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateUserVerification(r.Context(), userID, req.IsVerified); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=update_verification msg=\"update failed\" user_id=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteUserHandler removes a user and their beneficiaries.
func (h *RechargeHandlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=delete_user msg=\"delete failed\" user_id=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBeneficiariesHandler returns the beneficiaries registered under a user.
func (h *RechargeHandlers) ListBeneficiariesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	beneficiaries, err := h.service.ListBeneficiaries(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=list_beneficiaries msg=\"failed to list\" user_id=%s err=%v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, beneficiaries)
}

// CreateBeneficiaryHandler registers a beneficiary under a user.
func (h *RechargeHandlers) CreateBeneficiaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	var req domain.CreateBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	beneficiary, err := h.service.AddBeneficiary(r.Context(), userID, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrEmptyNickname):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, store.ErrUserNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
			return
		default:
			log.Printf("level=error component=api endpoint=create_beneficiary msg=\"create failed\" user_id=%s err=%v", userID, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
	h.writeJSON(w, http.StatusCreated, beneficiary)
}

// DeleteBeneficiaryHandler removes a beneficiary by id.
func (h *RechargeHandlers) DeleteBeneficiaryHandler(w http.ResponseWriter, r *http.Request) {
	beneficiaryID, ok := h.parseIDParam(w, r, "beneficiaryID")
	if !ok {
		return
	}

	if err := h.service.DeleteBeneficiary(r.Context(), beneficiaryID); err != nil {
		if errors.Is(err, store.ErrBeneficiaryNotFound) {
			http.Error(w, "Beneficiary not found", http.StatusNotFound)
			return
		}
		log.Printf("level=error component=api endpoint=delete_beneficiary msg=\"delete failed\" beneficiary_id=%s err=%v", beneficiaryID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RechargeHandlers) parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s format", name), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON is a helper for writing JSON responses.
func (h *RechargeHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *RechargeHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
