package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.State.Backend)
	assert.Equal(t, "jwt", cfg.Identity.Backend)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Invite.TTL)
	assert.Equal(t, 5, cfg.Invite.MaxAttempts)
	assert.Equal(t, "/login", cfg.Guard.LoginPath)
	assert.Equal(t, "returnTo", cfg.Guard.ReturnParam)
	assert.False(t, cfg.Bootstrap.Enabled())
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
invite:
  ttl: 12h
  link_base_url: https://zoolip.example
bootstrap:
  email: root@zoolip.example
  password_hash: $2a$12$abcdefghijklmnopqrstuv
cors:
  allowed_origins: ["https://zoolip.example"]
`))
	require.NoError(t, err)

	assert.Equal(t, 12*time.Hour, cfg.Invite.TTL)
	assert.Equal(t, "https://zoolip.example", cfg.Invite.LinkBaseURL)
	assert.True(t, cfg.Bootstrap.Enabled())
	assert.Equal(t, []string{"https://zoolip.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("INVITE_TTL", "48h")
	t.Setenv("STATE_BACKEND", "redis")

	cfg, err := Load(writeConfig(t, "invite:\n  ttl: 12h\n"))
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Invite.TTL)
	assert.Equal(t, "redis", cfg.State.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
