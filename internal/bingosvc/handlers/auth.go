package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
)

// TokenAuth mints and verifies the opaque game-access tokens handed out on
// a successful purchase. It implements service.TokenIssuer.
type TokenAuth struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenAuth(secret string) *TokenAuth {
	return &TokenAuth{
		auth: jwtauth.New("HS256", []byte(secret), nil),
		ttl:  7 * 24 * time.Hour,
	}
}

func (t *TokenAuth) Issue(walletAddress string, cardIDs []string) (string, error) {
	_, tokenString, err := t.auth.Encode(map[string]interface{}{
		"wallet_address": walletAddress,
		"card_ids":       cardIDs,
		"exp":            time.Now().Add(t.ttl).Unix(),
	})
	return tokenString, err
}

// Verifier and Authenticator gate the owner-scoped routes.
func (t *TokenAuth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(t.auth)
}

func (t *TokenAuth) Authenticator(next http.Handler) http.Handler {
	return jwtauth.Authenticator(next)
}

// walletFromToken pulls the wallet address claim out of a verified request.
func walletFromToken(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	wallet, _ := claims["wallet_address"].(string)
	return wallet
}
