/**
 * @description
 * Service-to-service authentication for the balance API. Every caller must
 * present the shared internal API key; the recharge-side client always sends it.
 */

package api

import (
	"crypto/subtle"
	"log"
	"net/http"
)

// InternalAPIKeyMiddleware rejects requests that do not carry the shared
// internal key. An empty configured key disables the check, which is only
// acceptable in local development.
func InternalAPIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	if apiKey == "" {
		log.Println("level=warn component=api msg=\"internal API key not configured; balance endpoints are unauthenticated\"")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey != "" {
				presented := r.Header.Get("X-Internal-API-Key")
				if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
