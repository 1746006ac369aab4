// Package money holds the fixed-point helpers shared by the cart, orders and
// the payment gateway. Amounts are shopspring decimals with two places; the
// gateway receives integer minor units.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const Places = 2

var (
	ErrNegativeAmount = errors.New("money: negative amount")
	ErrAmountOverflow = errors.New("money: amount does not fit in minor units")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ToMinorUnits converts 199.50 into 19950. The amount is rounded half away
// from zero to two places first, so the shift is always integral.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	minor := amount.Round(Places).Shift(Places)
	if minor.GreaterThan(maxMinor) {
		return 0, ErrAmountOverflow
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -Places)
}

// LineTotal is price × qty.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// Format renders an amount for people, e.g. "₹199.50".
func Format(amount decimal.Decimal, currency string) string {
	return currencySymbol(currency) + amount.StringFixed(Places)
}

func currencySymbol(code string) string {
	switch code {
	case "INR":
		return "₹"
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return fmt.Sprintf("%s ", code)
	}
}
