/**
 * @description
 * This file sets up the HTTP router for the recharge service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RechargeRoutes creates and returns a new router for the recharge service.
func RechargeRoutes(h *RechargeHandlers, jwtSecret []byte) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.LoginHandler)

		// Group routes that require authentication.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret))

			r.Get("/users", h.ListUsersHandler)
			r.Post("/users", h.CreateUserHandler)
			r.Get("/users/{userID}", h.GetUserHandler)
			r.Put("/users/{userID}/verification", h.UpdateUserVerificationHandler)
			r.Delete("/users/{userID}", h.DeleteUserHandler)

			r.Get("/users/{userID}/beneficiaries", h.ListBeneficiariesHandler)
			r.Post("/users/{userID}/beneficiaries", h.CreateBeneficiaryHandler)
			r.Delete("/beneficiaries/{beneficiaryID}", h.DeleteBeneficiaryHandler)

			r.Get("/topup/options", h.TopUpOptionsHandler)
			r.Post("/topup", h.TopUpHandler)
		})
	})

	return r
}
