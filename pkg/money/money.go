package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit tells how a request amount is denominated.
type Unit string

const (
	UnitUnspecified Unit = ""
	UnitCents       Unit = "cents"
	UnitDollars     Unit = "dollars"
)

var (
	ErrUnknownUnit    = errors.New("amount unit must be cents or dollars")
	ErrNonPositive    = errors.New("amount must be greater than zero")
	legacyCentsCutoff = decimal.NewFromInt(100)
	hundred           = decimal.NewFromInt(100)
)

// ParseUnit accepts "", "cents" and "dollars" (case-insensitive).
func ParseUnit(raw string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(raw))) {
	case UnitUnspecified:
		return UnitUnspecified, nil
	case UnitCents:
		return UnitCents, nil
	case UnitDollars:
		return UnitDollars, nil
	default:
		return UnitUnspecified, ErrUnknownUnit
	}
}

// Normalized is an amount converted to major currency units.
type Normalized struct {
	Value decimal.Decimal
	// Legacy is set when the unit was inferred from magnitude.
	Legacy bool
}

// Normalize converts amount to major units. With an explicit unit the value is
// taken as stated. Without one, amounts above 100 are read as cents.
func Normalize(amount decimal.Decimal, unit Unit) (Normalized, error) {
	if !amount.IsPositive() {
		return Normalized{}, ErrNonPositive
	}

	var out Normalized
	switch unit {
	case UnitCents:
		out.Value = amount.Div(hundred)
	case UnitDollars:
		out.Value = amount
	case UnitUnspecified:
		out.Legacy = true
		if amount.GreaterThan(legacyCentsCutoff) {
			out.Value = amount.Div(hundred)
		} else {
			out.Value = amount
		}
	default:
		return Normalized{}, ErrUnknownUnit
	}

	out.Value = out.Value.Round(2)
	if !out.Value.IsPositive() {
		return Normalized{}, ErrNonPositive
	}
	return out, nil
}

// ToMinorUnits returns the amount in cents as the gateway expects it.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents back to major units.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders an amount for receipts and emails.
func Format(d decimal.Decimal, currency string) string {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if c == "" || c == "USD" {
		return "$" + d.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", d.StringFixed(2), c)
}
