package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct checks validate tags on s and reports every failing field
// as a ValidationError keyed by its json name.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe.Field(), fe.Tag(), fe.Param())
	}
	first := fieldErrs[0]
	return NewValidationError(describe(first.Field(), first.Tag(), first.Param()), details)
}

// ValidateVar checks a single value against tag, naming it field in the error.
func ValidateVar(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		msg := describe(field, fieldErrs[0].Tag(), fieldErrs[0].Param())
		return NewValidationError(msg, map[string]any{field: msg})
	}
	return NewValidationError(fmt.Sprintf("invalid %s", field), nil)
}

func describe(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "email":
		return fmt.Sprintf("field '%s' must be a valid email address", field)
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s characters long", field, param)
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters long", field, param)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("field '%s' validation failed on tag '%s'", field, tag)
	}
}
