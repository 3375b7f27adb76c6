package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	State     StateConfig     `mapstructure:"state"`
	Session   SessionConfig   `mapstructure:"session"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Invite    InviteConfig    `mapstructure:"invite"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Audit     AuditConfig     `mapstructure:"audit"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port"`
	Mode                    string        `mapstructure:"mode"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend"` // "redis" | "memory"
}

// SessionConfig describes the session credential: where it travels and
// how locally issued session tokens are signed.
type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	SigningKey   string        `mapstructure:"signing_key"`
	Issuer       string        `mapstructure:"issuer"`
	TTL          time.Duration `mapstructure:"ttl"`
}

type IdentityConfig struct {
	Backend  string               `mapstructure:"backend"` // "jwt" | "remote"
	CacheTTL time.Duration        `mapstructure:"cache_ttl"`
	Remote   RemoteIdentityConfig `mapstructure:"remote"`
}

type RemoteIdentityConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	MePath           string        `mapstructure:"me_path"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

type GuardConfig struct {
	LoginPath   string `mapstructure:"login_path"`
	ReturnParam string `mapstructure:"return_param"`
}

type InviteConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	MaxTTL        time.Duration `mapstructure:"max_ttl"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	LinkBaseURL   string        `mapstructure:"link_base_url"`
	LinkPath      string        `mapstructure:"link_path"`
}

type BootstrapConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

func (b BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(b.Email) != "" && strings.TrimSpace(b.PasswordHash) != ""
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SMTPConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	FromEmail     string `mapstructure:"from_email"`
	FromName      string `mapstructure:"from_name"`
	UseSTARTTLS   bool   `mapstructure:"use_starttls"`
	SkipTLSVerify bool   `mapstructure:"skip_tls_verify"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.graceful_shutdown_timeout", 10*time.Second)

	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.redis.port", 6379)

	v.SetDefault("state.backend", "memory")

	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.issuer", "zoolip-portal")
	v.SetDefault("session.ttl", 12*time.Hour)

	v.SetDefault("identity.backend", "jwt")
	v.SetDefault("identity.cache_ttl", 30*time.Second)
	v.SetDefault("identity.remote.me_path", "/api/users/me")
	v.SetDefault("identity.remote.timeout", 5*time.Second)
	v.SetDefault("identity.remote.failure_threshold", 5)
	v.SetDefault("identity.remote.open_timeout", 30*time.Second)

	v.SetDefault("guard.login_path", "/login")
	v.SetDefault("guard.return_param", "returnTo")

	// 7 days; the shorter 12h window some callers used is available per request.
	v.SetDefault("invite.ttl", 7*24*time.Hour)
	v.SetDefault("invite.max_ttl", 30*24*time.Hour)
	v.SetDefault("invite.max_attempts", 5)
	v.SetDefault("invite.sweep_interval", time.Hour)
	v.SetDefault("invite.link_path", "/register/admin")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads config.yaml, overlays environment variables, and returns Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	// Environment variable override: INVITE_TTL -> invite.ttl
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
