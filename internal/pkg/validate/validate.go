package validate

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	maxEmailLength    = 250
	minPasswordLength = 6
	maxPasswordLength = 30
)

var (
	localPartPattern = regexp.MustCompile(`^[a-zA-Z0-9._+-]+$`)
	domainPattern    = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)
	passwordPattern  = regexp.MustCompile("^[a-zA-Z0-9!\"#$%&'()*+,\\-./:;<=>?@\\[\\\\\\]^_`{|}~]+$")

	instance *validator.Validate
	once     sync.Once
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Struct validates v against its `validate` tags, including the dochub_email
// and dochub_password tags.
func Struct(v any) error {
	return Validator().Struct(v)
}

func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("dochub_email", func(fl validator.FieldLevel) bool {
			return Email(fl.Field().String())
		})
		_ = v.RegisterValidation("dochub_password", func(fl validator.FieldLevel) bool {
			return Password(fl.Field().String())
		})
		instance = v
	})
	return instance
}

func Email(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	return validLocalPart(parts[0]) && validDomain(parts[1])
}

func Password(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}
	return passwordPattern.MatchString(password)
}

func validLocalPart(local string) bool {
	if local == "" || strings.Contains(local, "..") {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	return localPartPattern.MatchString(local)
}

func validDomain(domain string) bool {
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}
	return domainPattern.MatchString(domain)
}
