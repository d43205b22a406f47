package access

import "github.com/ivankudzin/dochub/internal/domain/enums"

// Viewer is the caller a read or write is evaluated for.
type Viewer struct {
	UserID int64
	Role   enums.Role
}

func (v Viewer) IsAdmin() bool {
	return v.Role == enums.RoleAdmin
}

func (v Viewer) IsModerator() bool {
	return v.Role.IsModerator()
}

// visibility lists the document audiences each role may read in addition to
// AudienceAll. A role sees its own audience and every audience below it.
var visibility = map[enums.Role][]enums.Role{
	enums.RoleAdmin:      {enums.RoleAdmin, enums.RoleHR, enums.RoleManager, enums.RoleSpecialist},
	enums.RoleHR:         {enums.RoleHR, enums.RoleManager, enums.RoleSpecialist},
	enums.RoleManager:    {enums.RoleManager, enums.RoleSpecialist},
	enums.RoleSpecialist: {enums.RoleSpecialist},
}

// VisibleRoles returns the role audiences visible to role, without AudienceAll.
func VisibleRoles(role enums.Role) []enums.Role {
	roles := visibility[role]
	out := make([]enums.Role, len(roles))
	copy(out, roles)
	return out
}

func SeesEverything(role enums.Role) bool {
	return role == enums.RoleAdmin || role == enums.RoleHR
}

// Audiences returns every document audience the role may read. Unknown roles
// see nothing.
func Audiences(role enums.Role) []enums.Role {
	if !role.Valid() {
		return nil
	}
	if SeesEverything(role) {
		return []enums.Role{enums.RoleAdmin, enums.RoleHR, enums.RoleManager, enums.RoleSpecialist, enums.AudienceAll}
	}
	return append(VisibleRoles(role), enums.AudienceAll)
}

func CanView(role enums.Role, audience enums.Role) bool {
	for _, a := range Audiences(role) {
		if a == audience {
			return true
		}
	}
	return false
}
