/**
 * @description
 * This file sets up the HTTP router for the balance service. The route paths are
 * part of the wire contract with the recharge service and must not change.
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

// BalanceRoutes creates and returns a new router for the balance service.
func BalanceRoutes(h *BalanceHandlers, internalAPIKey string) http.Handler {
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

	r.Group(func(r chi.Router) {
		r.Use(InternalAPIKeyMiddleware(internalAPIKey))

		r.Get("/get-user-balance", h.GetUserBalanceHandler)
		r.Post("/add-balance", h.AddBalanceHandler)
		r.Put("/make-payment", h.MakePaymentHandler)
	})

	return r
}
