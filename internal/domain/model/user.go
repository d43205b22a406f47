package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/ivankudzin/dochub/internal/domain/enums"
)

type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	PhotoKey     string
	IsVerified   bool
	Role         enums.Role
	RoleName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Initials returns up to two upper-cased letters, "U" when both names are empty.
func (u User) Initials() string {
	return Initials(u.FirstName, u.LastName)
}

func Initials(firstName, lastName string) string {
	var b strings.Builder
	for _, name := range []string{firstName, lastName} {
		for _, r := range strings.TrimSpace(name) {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	if b.Len() == 0 {
		return "U"
	}
	return b.String()
}
