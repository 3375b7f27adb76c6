package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/metrics"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/repository"
	"zoolip/portal/pkg/crypto"
)

// CachedResolver memoizes successful resolutions in a StateStore, keyed by
// the credential fingerprint. Failures are never cached, and an entry never
// outlives the credential it was resolved from.
type CachedResolver struct {
	next    guard.Resolver
	state   repository.StateStore
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

type cachedIdentity struct {
	Identity  model.Identity `json:"identity"`
	ExpiresAt time.Time      `json:"expires_at,omitzero"`
}

func NewCachedResolver(next guard.Resolver, state repository.StateStore, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{next: next, state: state, ttl: ttl, metrics: m, logger: logger, now: time.Now}
}

func identityKey(credential string) string {
	return repository.StateKey("identity", crypto.Fingerprint(credential))
}

func (r *CachedResolver) Resolve(ctx context.Context, credential string) (*model.Identity, error) {
	key := identityKey(credential)

	if identity, ok := r.lookup(ctx, key); ok {
		r.metrics.RecordIdentityCache(true)
		return identity, nil
	}
	r.metrics.RecordIdentityCache(false)

	identity, err := r.next.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	ttl := r.ttl
	if !identity.ExpiresAt.IsZero() {
		ttl = min(ttl, identity.ExpiresAt.Sub(r.now()))
	}
	if ttl <= 0 {
		return identity, nil
	}

	raw, err := json.Marshal(cachedIdentity{Identity: *identity, ExpiresAt: identity.ExpiresAt})
	if err == nil {
		if err := r.state.Set(ctx, key, raw, ttl); err != nil {
			r.logger.Warn("identity cache write failed", zap.Error(err))
		}
	}
	return identity, nil
}

// lookup returns a cached identity whose credential is still valid.
func (r *CachedResolver) lookup(ctx context.Context, key string) (*model.Identity, bool) {
	raw, err := r.state.Get(ctx, key)
	if err != nil {
		r.logger.Warn("identity cache read failed", zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var entry cachedIdentity
	if err := json.Unmarshal(raw, &entry); err != nil ||
		(!entry.ExpiresAt.IsZero() && !r.now().Before(entry.ExpiresAt)) {
		_ = r.state.Delete(ctx, key)
		return nil, false
	}
	identity := entry.Identity
	identity.ExpiresAt = entry.ExpiresAt
	return &identity, true
}

// Forget drops the cached identity for credential.
func (r *CachedResolver) Forget(ctx context.Context, credential string) error {
	return r.state.Delete(ctx, identityKey(credential))
}
