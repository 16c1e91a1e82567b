package tax

import "errors"

var (
	ErrNegativePrice    = errors.New("negative_price")
	ErrNegativeQuantity = errors.New("negative_quantity")
	ErrUnsupportedRate  = errors.New("unsupported_rate")
)
