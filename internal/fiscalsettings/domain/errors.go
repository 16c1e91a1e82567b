package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMerchant = errors.New("invalid_merchant")
	ErrNotFound        = errors.New("not_found")
	ErrNotConfigured   = errors.New("settings_not_configured")
	ErrAlreadyExists   = errors.New("settings_already_exist")
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors is the field-by-field verdict of the validator. It is a
// regular error so services can return it through the usual error path.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for _, e := range v {
		fields = append(fields, e.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// AsValidationErrors unwraps err into ValidationErrors when possible.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) && len(v) > 0 {
		return v, true
	}
	return nil, false
}
