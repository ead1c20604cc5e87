package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the platform fee applied when the caller does not pass one.
var DefaultCommissionRate = decimal.RequireFromString("0.07")

// Split is the commission/seller division of a gross amount.
type Split struct {
	Gross      int64
	Commission int64
	Seller     int64
}

// CommissionRatePlaces is the number of decimal places a stored rate keeps (NUMERIC(5,4)).
const CommissionRatePlaces = 4

// ValidCommissionRate reports whether rate lies in [0, 1) and fits in CommissionRatePlaces
// without rounding, so the stored rate always reproduces the recorded split.
func ValidCommissionRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() &&
		rate.LessThan(decimal.NewFromInt(1)) &&
		rate.Round(CommissionRatePlaces).Equal(rate)
}

// ComputeSplit divides gross by rate. The fractional remainder of gross*rate
// goes to commission so Seller+Commission always equals Gross.
func ComputeSplit(gross int64, rate decimal.Decimal) Split {
	commission := decimal.NewFromInt(gross).Mul(rate).Ceil().IntPart()
	if commission > gross {
		commission = gross
	}
	return Split{
		Gross:      gross,
		Commission: commission,
		Seller:     gross - commission,
	}
}
