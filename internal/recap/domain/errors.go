package domain

import "errors"

var (
	ErrInvalidMerchant = errors.New("invalid_merchant")
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrNotFound        = errors.New("not_found")
)
