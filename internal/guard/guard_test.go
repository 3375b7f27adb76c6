package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoolip/portal/internal/model"
)

// staticResolver maps credentials to identities.
type staticResolver struct {
	identities map[string]*model.Identity
	calls      int
}

func (r *staticResolver) Resolve(_ context.Context, credential string) (*model.Identity, error) {
	r.calls++
	id, ok := r.identities[credential]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return id, nil
}

func newResolver() *staticResolver {
	return &staticResolver{identities: map[string]*model.Identity{
		"admin-cookie":  {ID: "1", Email: "admin@zoolip.org", Role: model.RoleAdmin},
		"user-cookie":   {ID: "2", Email: "user@zoolip.org", Role: model.RoleUser},
		"system-cookie": {ID: "3", Role: model.RoleSystem},
		"adopt-cookie":  {ID: "4", Role: model.RoleAdoptante},
	}}
}

func TestRequireRole_Allowed(t *testing.T) {
	r := newResolver()

	id, err := RequireRole(context.Background(), r, "admin-cookie", model.RoleAdmin, model.RoleSystem)
	require.NoError(t, err)
	assert.Same(t, r.identities["admin-cookie"], id, "identity is returned unchanged")
	assert.Equal(t, 1, r.calls)
}

func TestRequireRole_EmptyAllowedMeansAnyAuth(t *testing.T) {
	id, err := RequireRole(context.Background(), newResolver(), "user-cookie")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, id.Role)
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	r := newResolver()

	_, err := RequireRole(context.Background(), r, "", model.RoleAdmin)
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 0, r.calls, "no lookup without a credential")

	_, err = RequireRole(context.Background(), r, "stale-cookie", model.RoleAdmin)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = RequireRole(context.Background(), nil, "admin-cookie", model.RoleAdmin)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequireRole_ResolverFailure(t *testing.T) {
	boom := errors.New("backend down")
	r := ResolverFunc(func(context.Context, string) (*model.Identity, error) { return nil, boom })

	_, err := RequireRole(context.Background(), r, "cookie", model.RoleAdmin)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestGuard_RequireAdmin_ForbiddenForUser(t *testing.T) {
	g := New(newResolver())

	_, err := g.RequireAdmin(context.Background(), "user-cookie")
	require.ErrorIs(t, err, ErrForbidden)

	var fe *ForbiddenError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []model.Role{model.RoleAdmin}, fe.Required)
	assert.Equal(t, model.RoleUser, fe.Actual)
	assert.Contains(t, fe.Error(), "ROLE_ADMINISTRADOR")
	assert.Contains(t, fe.Error(), "ROLE_USER")
}

func TestGuard_ConvenienceGuards(t *testing.T) {
	g := New(newResolver())
	ctx := context.Background()

	type check func(context.Context, string) (*model.Identity, error)
	tests := []struct {
		name       string
		guard      check
		credential string
		allowed    bool
	}{
		{"admin ok", g.RequireAdmin, "admin-cookie", true},
		{"admin denies system", g.RequireAdmin, "system-cookie", false},
		{"adoptante ok", g.RequireAdoptante, "adopt-cookie", true},
		{"adoptante denies user", g.RequireAdoptante, "user-cookie", false},
		{"system ok", g.RequireSystem, "system-cookie", true},
		{"system denies admin", g.RequireSystem, "admin-cookie", false},
		{"user ok", g.RequireUser, "user-cookie", true},
		{"user denies adoptante", g.RequireUser, "adopt-cookie", false},
		{"any auth admin", g.RequireAnyAuth, "admin-cookie", true},
		{"any auth adoptante", g.RequireAnyAuth, "adopt-cookie", true},
		{"admin or system with system", g.RequireAdminOrSystem, "system-cookie", true},
		{"admin or system denies user", g.RequireAdminOrSystem, "user-cookie", false},
		{"adoptante or user with user", g.RequireAdoptanteOrUser, "user-cookie", true},
		{"adoptante or user denies admin", g.RequireAdoptanteOrUser, "admin-cookie", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.guard(ctx, tt.credential)
			if tt.allowed {
				require.NoError(t, err)
				assert.NotNil(t, id)
				return
			}
			require.ErrorIs(t, err, ErrForbidden)
			assert.Nil(t, id)
		})
	}
}

func TestCanAccessRoute(t *testing.T) {
	allowed := []model.Role{model.RoleAdmin, model.RoleSystem}

	for i := 0; i < 3; i++ {
		assert.True(t, CanAccessRoute(model.RoleAdmin, allowed))
		assert.False(t, CanAccessRoute(model.RoleUser, allowed))
	}
	assert.False(t, CanAccessRoute(model.RoleAdmin, nil))
	assert.Equal(t, []model.Role{model.RoleAdmin, model.RoleSystem}, allowed, "input is not modified")
}

func TestRoutes_Accessible(t *testing.T) {
	rs := Routes{
		{Path: "/admin", Roles: []model.Role{model.RoleAdmin}},
		{Path: "/community", Roles: model.AllRoles()},
		{Path: "/adoptions", Roles: []model.Role{model.RoleAdoptante}},
	}

	assert.Equal(t, []string{"/admin", "/community"}, rs.Accessible(model.RoleAdmin))
	assert.Equal(t, []string{"/community", "/adoptions"}, rs.Accessible(model.RoleAdoptante))
	assert.Empty(t, rs.Accessible(model.Role("ROLE_UNKNOWN")))
}
