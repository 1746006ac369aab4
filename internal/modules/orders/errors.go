package orders

import "errors"

var (
	ErrNotFound = errors.New("orders: not found")
	// ErrAlreadyReferenced is returned when a gateway reference is set twice.
	ErrAlreadyReferenced = errors.New("orders: gateway reference already set")
)
