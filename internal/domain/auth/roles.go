package auth

const (
	RoleStudent   = "student"
	RoleWarden    = "warden"
	RolePrincipal = "principal"
	RoleAdmin     = "admin"
	RoleSecurity  = "security"
)

var AllRoles = []string{
	RoleStudent,
	RoleWarden,
	RolePrincipal,
	RoleAdmin,
	RoleSecurity,
}

func ValidRole(role string) bool {
	for _, candidate := range AllRoles {
		if candidate == role {
			return true
		}
	}
	return false
}
