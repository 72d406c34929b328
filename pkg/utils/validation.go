package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/FeroHriadel/tripiabackend/pkg/errors"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags. Failures
// come back as validation AppErrors.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return apperrors.NewValidationError(formatValidationError(err))
	}
	return nil
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := lowerFirst(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
