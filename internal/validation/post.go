// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"postboard/internal/models"
)

// MaxBodyLength is the longest post body the API accepts, in characters.
const MaxBodyLength = 280

// MaxTitleLength bounds post titles.
const MaxTitleLength = 280

// ValidatePostInput checks a new post before it is sent anywhere.
func ValidatePostInput(in models.PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("The post needs a title.")
	}
	return validateFields(in)
}

// ValidatePostUpdate checks an update, where every field is optional.
func ValidatePostUpdate(in models.PostInput) error {
	return validateFields(in)
}

func validateFields(in models.PostInput) error {
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return models.NewValidationError(fmt.Sprintf("The title of the post cannot exceed %d characters.", MaxTitleLength))
	}
	if utf8.RuneCountInString(in.Body) > MaxBodyLength {
		return models.NewValidationError(fmt.Sprintf("The body of the post cannot exceed %d characters.", MaxBodyLength))
	}
	if in.Media != nil && in.Media.URL != "" {
		if err := ValidateMediaURL(in.Media.URL); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMediaURL accepts absolute http(s) URLs only.
func ValidateMediaURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewValidationError("The media URL must be a full http(s) address.")
	}
	return nil
}
