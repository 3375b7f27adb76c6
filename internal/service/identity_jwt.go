package service

import (
	"context"
	"fmt"

	"zoolip/portal/internal/guard"
	"zoolip/portal/internal/model"
	jwtpkg "zoolip/portal/pkg/jwt"
)

type jwtResolver struct {
	jwtManager *jwtpkg.Manager
}

// NewJWTResolver resolves identities from session tokens signed by this
// portal.
func NewJWTResolver(jwtManager *jwtpkg.Manager) guard.Resolver {
	return &jwtResolver{jwtManager: jwtManager}
}

func (r *jwtResolver) Resolve(_ context.Context, credential string) (*model.Identity, error) {
	claims, err := r.jwtManager.Validate(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", guard.ErrUnauthenticated, err)
	}

	role := model.Role(claims.Role)
	if claims.Subject == "" || !role.IsValid() {
		return nil, fmt.Errorf("%w: malformed session claims", guard.ErrUnauthenticated)
	}
	identity := &model.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  role,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
