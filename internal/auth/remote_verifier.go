package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bookhub/notification-service/internal/domain"
)

// RemoteVerifier delegates token verification to the auth service:
// POST {baseURL}/auth/verify-token with the bearer header. A 2xx response
// carries the token payload; 401 and 403 map to the matching domain errors.
// The base URL is injected from config so tests can point to a local mock.
type RemoteVerifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	return &RemoteVerifier{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// verifyResponse maps the auth service's response body.
type verifyResponse struct {
	Payload struct {
		UserID string   `json:"userId"`
		Roles  []string `json:"roles"`
	} `json:"payload"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/auth/verify-token", nil)
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if body.Payload.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	return &Identity{UserID: body.Payload.UserID, Roles: body.Payload.Roles}, nil
}

var _ Verifier = (*RemoteVerifier)(nil)
