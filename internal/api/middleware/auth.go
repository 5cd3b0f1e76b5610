package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/auth"
	"github.com/bookhub/notification-service/internal/domain"
)

const identityKey contextKey = "identity"

// Auth verifies the bearer token on every request and stores the resolved
// identity on the request context. Verification failures short-circuit with
// the service's standard error envelope.
func Auth(verifier auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			switch {
			case errors.Is(err, domain.ErrUnauthorized):
				writeAuthError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
				return
			case errors.Is(err, domain.ErrForbidden):
				writeAuthError(w, http.StatusForbidden, domain.ErrForbidden.Error())
				return
			case err != nil:
				logger.Error("token verification failed",
					zap.String("correlation_id", GetCorrelationID(r.Context())),
					zap.Error(err))
				writeAuthError(w, http.StatusServiceUnavailable, "authentication service unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the identity set by the Auth middleware.
// Returns nil if the request was not authenticated.
func GetIdentity(ctx context.Context) *auth.Identity {
	v, _ := ctx.Value(identityKey).(*auth.Identity)
	return v
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"status": status, "message": msg},
	})
}
