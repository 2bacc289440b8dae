package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/api"
	"github.com/MichaelWalker-git/auto-rfp-sub009/internal/domain"
)

type contextKey string

const APIKeyIDKey contextKey = "api_key_id"

// KeyValidator checks a presented API key.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, token string) error
}

// StaticKeyValidator validates against a fixed key list from configuration.
type StaticKeyValidator struct {
	keys []string
}

func NewStaticKeyValidator(keys []string) *StaticKeyValidator {
	return &StaticKeyValidator{keys: keys}
}

func (v *StaticKeyValidator) ValidateAPIKey(_ context.Context, token string) error {
	for _, key := range v.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			return nil
		}
	}
	return domain.NewDomainError(domain.ErrCodeUnauthorized, "invalid api key")
}

// APIKeyAuth rejects requests that do not carry a valid bearer API key.
func APIKeyAuth(validator KeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			if err := validator.ValidateAPIKey(r.Context(), token); err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
