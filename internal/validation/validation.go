// Package validation configures the request validator with campus-specific rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"studentmedia/internal/models"
)

// Basic returns a validator that reports fields by their json names.
func Basic() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	return v
}

// New returns a validator with the campus_email and department rules registered.
// domain is the required email suffix, e.g. "@ritrjpm.ac.in".
func New(domain string) (*validator.Validate, error) {
	v := Basic()

	suffix := strings.ToLower(domain)
	if err := v.RegisterValidation("campus_email", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(strings.ToLower(fl.Field().String()), suffix)
	}); err != nil {
		return nil, fmt.Errorf("failed to register campus_email: %w", err)
	}

	if err := v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return models.IsDepartment(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register department: %w", err)
	}

	return v, nil
}

// Describe turns a validation error into a single client-facing sentence.
func Describe(err error, domain string) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "invalid request"
	}

	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email format"
	case "campus_email":
		return fmt.Sprintf("email must be a college address ending with %s", domain)
	case "department":
		return fmt.Sprintf("department must be one of %s", strings.Join(models.Departments, ", "))
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
