package entity

// Role represents an authorization role stored on the user profile.
type Role string

const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleDeveloper, RoleAdmin:
		return true
	}
	return false
}

// CanSell reports whether the role may manage automations.
func (r Role) CanSell() bool {
	return r == RoleDeveloper || r == RoleAdmin
}
