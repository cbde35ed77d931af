// Package validation provides HTTP request validation utilities using the
// validator/v10 library, extended with signage-specific formats.
package validation

import (
	"errors"
	"fmt"
	"net"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/signboardapp/signboard-server/internal/domain"
	domainerrors "github.com/signboardapp/signboard-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
//
// Custom tags:
//
//	mac        - IEEE 802 MAC address ("AA:BB:CC:DD:EE:FF")
//	period     - schedule period key ("2026/03")
//	monthgroup - content month group ("jan".."dec", or empty)
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// Registration only fails for empty tag names, which we control.
	_ = v.RegisterValidation("mac", validateMAC)
	_ = v.RegisterValidation("period", validatePeriod)
	_ = v.RegisterValidation("monthgroup", validateMonthGroup)

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// validateMAC accepts colon- or hyphen-separated IEEE 802 MAC addresses.
func validateMAC(fl validator.FieldLevel) bool {
	hw, err := net.ParseMAC(fl.Field().String())
	return err == nil && len(hw) == 6
}

// validatePeriod accepts "YYYY/MM" schedule period keys.
func validatePeriod(fl validator.FieldLevel) bool {
	return domain.ValidSchedulePeriod(fl.Field().String())
}

// validateMonthGroup accepts lowercase three-letter month groups and "".
func validateMonthGroup(fl validator.FieldLevel) bool {
	return domain.ValidMonthGroup(fl.Field().String())
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Collect all field errors
	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}

	// Return domain validation error with details
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "ip":
		return "must be a valid IP address"
	case "mac":
		return "must be a valid MAC address"
	case "period":
		return "must be a schedule period like 2026/03"
	case "monthgroup":
		return "must be a lowercase three-letter month, e.g. jan"
	default:
		return "is invalid"
	}
}
