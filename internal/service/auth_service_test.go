package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoolip/portal/internal/config"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/repository"
	"zoolip/portal/pkg/crypto"
	jwtpkg "zoolip/portal/pkg/jwt"
)

func newBootstrap(t *testing.T) config.BootstrapConfig {
	t.Helper()
	hash, err := crypto.HashPassword("s3cret-pass")
	require.NoError(t, err)
	return config.BootstrapConfig{Email: "Root@Zoolip.example", PasswordHash: hash}
}

func TestAuthService_Login(t *testing.T) {
	mgr := jwtpkg.NewManager("test-signing-key-0123456789abcdef", "zoolip-portal", time.Hour)
	svc := NewAuthService(newBootstrap(t), mgr, nil, nil)

	session, err := svc.Login(context.Background(), " root@zoolip.example", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSystem, session.Identity.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	id, err := NewJWTResolver(mgr).Resolve(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSystem, id.Role)
	assert.Equal(t, "root@zoolip.example", id.Email)
}

func TestAuthService_LoginRejected(t *testing.T) {
	mgr := jwtpkg.NewManager("test-signing-key-0123456789abcdef", "zoolip-portal", time.Hour)
	svc := NewAuthService(newBootstrap(t), mgr, nil, nil)

	_, err := svc.Login(context.Background(), "root@zoolip.example", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "other@zoolip.example", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	disabled := NewAuthService(config.BootstrapConfig{}, mgr, nil, nil)
	_, err = disabled.Login(context.Background(), "root@zoolip.example", "s3cret-pass")
	require.ErrorIs(t, err, ErrBootstrapDisabled)
}

func TestAuthService_LogoutForgetsCachedIdentity(t *testing.T) {
	mgr := jwtpkg.NewManager("test-signing-key-0123456789abcdef", "zoolip-portal", time.Hour)
	state := repository.NewMemoryStateStore()
	next := &countingResolver{}
	cache := NewCachedResolver(next, state, time.Minute, testMetrics(), nil)
	svc := NewAuthService(newBootstrap(t), mgr, cache, nil)
	ctx := context.Background()

	_, err := cache.Resolve(ctx, "cookie")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, "cookie"))

	raw, err := state.Get(ctx, identityKey("cookie"))
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, svc.Logout(ctx, ""))
}
