package guard

import "zoolip/portal/internal/model"

// Route is a UI path prefix and the roles allowed to open it.
type Route struct {
	Path  string       `json:"path"`
	Roles []model.Role `json:"roles"`
}

type Routes []Route

// DefaultRoutes mirrors the protected pages of the web client.
var DefaultRoutes = Routes{
	{Path: "/admin", Roles: []model.Role{model.RoleAdmin, model.RoleSystem}},
	{Path: "/admin/invites", Roles: []model.Role{model.RoleAdmin, model.RoleSystem}},
	{Path: "/system", Roles: []model.Role{model.RoleSystem}},
	{Path: "/adoptions", Roles: []model.Role{model.RoleAdoptante, model.RoleUser}},
	{Path: "/adoptions/requests", Roles: []model.Role{model.RoleAdoptante}},
	{Path: "/community", Roles: model.AllRoles()},
	{Path: "/chat", Roles: model.AllRoles()},
	{Path: "/donations", Roles: []model.Role{model.RoleAdoptante, model.RoleUser, model.RoleAdmin}},
	{Path: "/profile", Roles: model.AllRoles()},
}

// Accessible returns the paths role may open, in table order.
func (rs Routes) Accessible(role model.Role) []string {
	paths := make([]string, 0, len(rs))
	for _, r := range rs {
		if CanAccessRoute(role, r.Roles) {
			paths = append(paths, r.Path)
		}
	}
	return paths
}
