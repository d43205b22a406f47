package enums

import "strings"

type Role int

const (
	RoleAdmin      Role = 1
	RoleHR         Role = 2
	RoleManager    Role = 3
	RoleSpecialist Role = 4

	// AudienceAll marks a document addressed to every employee.
	AudienceAll Role = 5
)

func (r Role) Valid() bool {
	return r >= RoleAdmin && r <= RoleSpecialist
}

func (r Role) ValidAudience() bool {
	return r.Valid() || r == AudienceAll
}

func (r Role) Name() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleHR:
		return "HR specialist"
	case RoleManager:
		return "Manager"
	case RoleSpecialist:
		return "Specialist"
	case AudienceAll:
		return "All employees"
	default:
		return ""
	}
}

// IsModerator reports whether the role may publish documents and categories.
func (r Role) IsModerator() bool {
	return r == RoleAdmin || r == RoleHR
}

func ParseRole(name string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "1", "admin", "administrator":
		return RoleAdmin, true
	case "2", "hr", "hr specialist":
		return RoleHR, true
	case "3", "manager":
		return RoleManager, true
	case "4", "specialist", "employee":
		return RoleSpecialist, true
	default:
		return 0, false
	}
}
