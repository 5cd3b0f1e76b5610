package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookhub/notification-service/internal/domain"
)

// LocalVerifier validates HS256 tokens in-process with a shared secret.
// Used when the auth service is not reachable from this deployment, or in
// development. The token subject is the user id; a "roles" claim is optional.
type LocalVerifier struct {
	secret []byte
	now    func() time.Time
}

type localClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{secret: []byte(secret), now: time.Now}
}

func (v *LocalVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(5*time.Second), jwt.WithTimeFunc(func() time.Time { return v.now() }))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	return &Identity{UserID: claims.Subject, Roles: claims.Roles}, nil
}

var _ Verifier = (*LocalVerifier)(nil)
