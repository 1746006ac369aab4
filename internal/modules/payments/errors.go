package payments

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrCartEmpty          = errors.New("payments: cart is empty")
	ErrCheckoutInProgress = errors.New("payments: checkout already in progress")
	ErrSignatureMismatch  = errors.New("payments: signature mismatch")
	ErrGateway            = errors.New("payments: gateway error")
)

// ValidationError lists rejected checkout fields by form name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "payments: invalid fields: " + strings.Join(keys, ", ")
}
