package validation

import (
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// emailShape is a deliberately conservative check: something before the @,
// something after it, and a dot somewhere in the domain part. Full RFC 5322
// or IDN validation is not attempted; the list provider is the authority on
// deliverability.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims surrounding whitespace and lowercases an email address.
// Both downstream writers must receive the same normalized value, otherwise
// case variants of one address become distinct subscribers.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether s matches the conservative email shape.
// It does not normalize; callers run Normalize first.
func ValidEmail(s string) bool {
	return emailShape.MatchString(s)
}

// New returns a configured validator with the email shape check registered
// under the "email_shape" tag.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	_ = v.RegisterValidation("email_shape", func(fl validatorv10.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}
