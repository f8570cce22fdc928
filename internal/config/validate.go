package config

import (
	"fmt"
	"strings"

	"github.com/adamancini/sus/internal/update"
)

// ValidationError represents a settings file validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the settings for invalid values.
func Validate(s *Settings) error {
	var errors []string

	if err := validateBuild(s.Build); err != nil {
		errors = append(errors, err.Error())
	}
	for _, err := range validateUpdate(s.Update) {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateBuild(b BuildSettings) error {
	if b.UpdateURL != "" {
		if err := update.ValidateURL(b.UpdateURL); err != nil {
			return ValidationError{Field: "build.update_url", Message: err.Error()}
		}
	}
	if strings.ContainsAny(b.UpdateVersion, "\n\r") {
		return ValidationError{Field: "build.update_version", Message: "must be a single line"}
	}
	return nil
}

func validateUpdate(u UpdateSettings) []error {
	var errs []error
	if u.HTTPTimeout < 0 {
		errs = append(errs, ValidationError{Field: "update.http_timeout", Message: "must not be negative"})
	}
	if u.ProbeTimeout < 0 {
		errs = append(errs, ValidationError{Field: "update.probe_timeout", Message: "must not be negative"})
	}
	return errs
}
