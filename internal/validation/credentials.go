package validation

import (
	"regexp"
	"strings"

	"postboard/internal/models"
)

var (
	nameRegex  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// MinPasswordLength is the shortest password the API accepts.
const MinPasswordLength = 8

// ValidateLogin checks that both login fields are present and the email is
// well formed.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.NewValidationError("Email and password are required.")
	}
	return ValidateEmail(email)
}

// ValidateRegistration checks a registration payload.
func ValidateRegistration(in models.RegisterInput) error {
	if err := ValidateName(in.Name); err != nil {
		return err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if len(in.Password) < MinPasswordLength {
		return models.NewValidationError("Password must be at least 8 characters long.")
	}
	if in.Avatar != nil && in.Avatar.URL != "" {
		return ValidateMediaURL(in.Avatar.URL)
	}
	return nil
}

// ValidateName checks a profile name: letters, digits and underscores only.
func ValidateName(name string) error {
	if name == "" {
		return models.NewValidationError("Name is required.")
	}
	if len(name) > 20 {
		return models.NewValidationError("Name must not exceed 20 characters.")
	}
	if !nameRegex.MatchString(name) {
		return models.NewValidationError("Name can only contain letters, numbers and underscores.")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return models.NewValidationError("Invalid email format.")
	}
	return nil
}
