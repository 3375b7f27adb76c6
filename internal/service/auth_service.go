package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"

	"zoolip/portal/internal/config"
	"zoolip/portal/internal/model"
	"zoolip/portal/pkg/crypto"
	jwtpkg "zoolip/portal/pkg/jwt"
)

// bootstrapSubject is the identity id of the configured system account.
const bootstrapSubject = "bootstrap"

// Session is a freshly issued session credential.
type Session struct {
	Token     string          `json:"-"`
	ExpiresAt time.Time       `json:"expires_at"`
	Identity  *model.Identity `json:"identity"`
}

// IdentityForgetter is implemented by resolvers that cache identities.
type IdentityForgetter interface {
	Forget(ctx context.Context, credential string) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, credential string) error
}

type authService struct {
	bootstrap  config.BootstrapConfig
	jwtManager *jwtpkg.Manager
	forgetter  IdentityForgetter
	logger     *zap.Logger
}

// NewAuthService handles the bootstrap system login. forgetter may be nil.
func NewAuthService(
	bootstrap config.BootstrapConfig,
	jwtManager *jwtpkg.Manager,
	forgetter IdentityForgetter,
	logger *zap.Logger,
) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		bootstrap:  bootstrap,
		jwtManager: jwtManager,
		forgetter:  forgetter,
		logger:     logger,
	}
}

func (s *authService) Login(_ context.Context, email, password string) (*Session, error) {
	if !s.bootstrap.Enabled() {
		return nil, ErrBootstrapDisabled
	}

	want := strings.ToLower(strings.TrimSpace(s.bootstrap.Email))
	got := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
	// Always run bcrypt so a wrong email costs as much as a wrong password.
	passwordOK := crypto.CheckPassword(password, s.bootstrap.PasswordHash)
	if !emailOK || !passwordOK {
		s.logger.Warn("bootstrap login rejected", zap.String("email", got))
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.jwtManager.GenerateSessionToken(bootstrapSubject, want, string(model.RoleSystem))
	if err != nil {
		return nil, err
	}

	s.logger.Info("bootstrap login", zap.String("jti", claims.ID))
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Identity: &model.Identity{
			ID:    bootstrapSubject,
			Email: want,
			Role:  model.RoleSystem,
		},
	}, nil
}

func (s *authService) Logout(ctx context.Context, credential string) error {
	if s.forgetter == nil || credential == "" {
		return nil
	}
	return s.forgetter.Forget(ctx, credential)
}

// ensure authService implements AuthService
var _ AuthService = (*authService)(nil)
