package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated principal attached to requests and sockets.
type Identity struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles,omitempty"`
}

// Verifier checks a bearer token and resolves the identity behind it.
// Two implementations exist: RemoteVerifier delegates to the auth service,
// LocalVerifier validates HS256 tokens in-process.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ExtractToken pulls the bearer token from the Authorization header, falling
// back to the "token" query parameter. The query fallback exists for websocket
// handshakes, where browsers cannot set custom headers.
func ExtractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	if header != "" {
		return header
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
