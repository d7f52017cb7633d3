/**
 * @description
 * Token issuance for the recharge API. Credentials are checked against the logins
 * table with bcrypt and exchanged for a short-lived HS256 JWT; the API middleware
 * validates the token on every protected route.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nextcell/mobile-topup/internal/recharge/store"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the token signing material and lifetime.
type AuthConfig struct {
	JWTSecret []byte
	TokenTTL  time.Duration
}

// Authenticator verifies credentials and issues API tokens.
type Authenticator struct {
	repo store.Repository
	cfg  AuthConfig
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(repo store.Repository, cfg AuthConfig) *Authenticator {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &Authenticator{repo: repo, cfg: cfg}
}

// Login checks the username/password pair and returns a signed bearer token.
// Unknown users and wrong passwords produce the same error.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	login, err := a.repo.FindLoginByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrLoginNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(login.PasswordHash), []byte(password)); err != nil {
		log.Printf("level=warn component=auth outcome=reject reason=bad_password username=%s", login.Username)
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": login.Username,
		"iat": now.Unix(),
		"exp": now.Add(a.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.JWTSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}
