package utils

import (
	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of minor units per major unit, as a power of ten (kobo, cents).
const minorUnitExponent = 2

// FormatMinorUnits renders an amount held in minor units as "<CODE> <major>.<minor>".
// Example: 930000 with NGN returns "NGN 9300.00"
func FormatMinorUnits(amount int64, currencyCode string) string {
	return currencyCode + " " + decimal.New(amount, -minorUnitExponent).StringFixed(minorUnitExponent)
}
