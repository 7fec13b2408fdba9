package utils

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatMoney keeps consistent decimal formatting for currency fields.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// ServiceAmount is what the salon earns for the services: total minus tip and tax, never negative.
func ServiceAmount(total, tip, tax decimal.Decimal) decimal.Decimal {
	amount := total.Sub(tip).Sub(tax)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
