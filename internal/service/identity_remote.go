package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"zoolip/portal/internal/config"
	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/model"
)

const (
	maxIdentityBody = 64 << 10
	backendTimeout  = 5 * time.Second
)

// remoteUser is the subset of the backend's current-user payload we read.
// The backend serializes numeric ids, so id is kept raw.
type remoteUser struct {
	ID    json.RawMessage `json:"id"`
	Email string          `json:"email"`
	Role  string          `json:"role"`
}

type remoteResolver struct {
	client     *http.Client
	meURL      string
	cookieName string
	breaker    *gobreaker.CircuitBreaker[*model.Identity]
}

// NewRemoteResolver asks the backend who owns a session cookie. Calls go
// through a circuit breaker; "not logged in" answers count as successes.
func NewRemoteResolver(cfg config.RemoteIdentityConfig, cookieName string, client *http.Client) guard.Resolver {
	if client == nil {
		client = NewBackendHTTPClient(cfg)
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker[*model.Identity](gobreaker.Settings{
		Name:    "identity-backend",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, guard.ErrUnauthenticated)
		},
	})

	return &remoteResolver{
		client:     client,
		meURL:      strings.TrimRight(cfg.BaseURL, "/") + cfg.MePath,
		cookieName: cookieName,
		breaker:    breaker,
	}
}

func (r *remoteResolver) Resolve(ctx context.Context, credential string) (*model.Identity, error) {
	identity, err := r.breaker.Execute(func() (*model.Identity, error) {
		return r.fetch(ctx, credential)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return identity, err
}

func (r *remoteResolver) fetch(ctx context.Context, credential string) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.meURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: r.cookieName, Value: credential})
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity backend: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, guard.ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity backend returned %d", resp.StatusCode)
	}

	var user remoteUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxIdentityBody)).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}

	id := string(bytes.Trim(user.ID, `"`))
	role := model.Role(user.Role)
	if id == "" || id == "null" || !role.IsValid() {
		return nil, guard.ErrUnauthenticated
	}
	return &model.Identity{ID: id, Email: user.Email, Role: role}, nil
}

// NewBackendHTTPClient builds the client used for identity lookups.
func NewBackendHTTPClient(cfg config.RemoteIdentityConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = backendTimeout
	}
	return &http.Client{Timeout: timeout}
}
