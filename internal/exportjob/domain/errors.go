package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMerchant     = errors.New("invalid_merchant")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrUnsupportedFormat   = errors.New("unsupported_format")
	ErrUnsupportedEncoding = errors.New("unsupported_encoding")
	ErrNotFound            = errors.New("not_found")

	// ErrNotReady is returned for a download while the job is still
	// pending or processing.
	ErrNotReady = errors.New("not_ready")

	// ErrNotCompleted is returned for a download of a failed job; the
	// failure reason travels alongside.
	ErrNotCompleted = errors.New("not_completed")
)

// ConfigurationError marks a missing prerequisite setting, naming the field
// the merchant must fill in before the operation can run.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s (%s)", e.Message, e.Field)
}

// ErrMissingSIRET rejects an FEC export for a merchant without a SIRET.
var ErrMissingSIRET = &ConfigurationError{
	Field:   "siret",
	Message: "FEC export requires a SIRET",
}

// AsConfigurationError unwraps err into a ConfigurationError when possible.
func AsConfigurationError(err error) (*ConfigurationError, bool) {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
