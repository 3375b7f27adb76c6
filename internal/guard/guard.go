// Package guard authorizes resolved identities against role sets.
package guard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"zoolip/portal/internal/model"
)

// Resolver turns a session credential into an identity. It returns
// ErrUnauthenticated (possibly wrapped) when the credential does not map to
// a live session.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*model.Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, credential string) (*model.Identity, error)

func (f ResolverFunc) Resolve(ctx context.Context, credential string) (*model.Identity, error) {
	return f(ctx, credential)
}

// RequireRole resolves the caller and checks its role against allowed.
// An empty allowed set accepts any authenticated identity.
func RequireRole(ctx context.Context, resolver Resolver, credential string, allowed ...model.Role) (*model.Identity, error) {
	if credential == "" || resolver == nil {
		return nil, ErrUnauthenticated
	}

	identity, err := resolver.Resolve(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	if len(allowed) > 0 && !CanAccessRoute(identity.Role, allowed) {
		return nil, &ForbiddenError{
			Required: slices.Clone(allowed),
			Actual:   identity.Role,
		}
	}
	return identity, nil
}

// CanAccessRoute reports whether role is one of allowed. It is only a hint
// for UI gating; RequireRole is the enforcement point.
func CanAccessRoute(role model.Role, allowed []model.Role) bool {
	return slices.Contains(allowed, role)
}

// Guard binds a resolver to the fixed role checks used by the routes.
type Guard struct {
	resolver Resolver
}

func New(resolver Resolver) *Guard {
	return &Guard{resolver: resolver}
}

func (g *Guard) Require(ctx context.Context, credential string, allowed ...model.Role) (*model.Identity, error) {
	return RequireRole(ctx, g.resolver, credential, allowed...)
}

func (g *Guard) RequireAdmin(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.RoleAdmin)
}

func (g *Guard) RequireAdoptante(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.RoleAdoptante)
}

func (g *Guard) RequireSystem(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.RoleSystem)
}

func (g *Guard) RequireUser(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.RoleUser)
}

func (g *Guard) RequireAnyAuth(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.AllRoles()...)
}

func (g *Guard) RequireAdminOrSystem(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.RoleAdmin, model.RoleSystem)
}

func (g *Guard) RequireAdoptanteOrUser(ctx context.Context, credential string) (*model.Identity, error) {
	return g.Require(ctx, credential, model.RoleAdoptante, model.RoleUser)
}
