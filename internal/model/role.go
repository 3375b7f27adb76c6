package model

// Role is the machine-readable privilege identifier issued by the backend.
type Role string

const (
	RoleAdmin     Role = "ROLE_ADMINISTRADOR"
	RoleAdoptante Role = "ROLE_ADOPTANTE"
	RoleSystem    Role = "ROLE_SYSTEM"
	RoleUser      Role = "ROLE_USER"
)

// AllRoles lists every role the portal knows about.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleAdoptante, RoleSystem, RoleUser}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAdoptante, RoleSystem, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// InvitableRoles are the roles an administrator invite may grant.
func InvitableRoles() []Role {
	return []Role{RoleAdmin, RoleSystem}
}

// GrantableRoles returns the invitable roles an actor holding role may hand
// out. Only a system account can mint another system account.
func GrantableRoles(actor Role) []Role {
	switch actor {
	case RoleSystem:
		return []Role{RoleAdmin, RoleSystem}
	case RoleAdmin:
		return []Role{RoleAdmin}
	}
	return nil
}
