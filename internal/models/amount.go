package models

import (
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest token amount, 2^256-1 base units.
var MaxAmount = decimal.RequireFromString(
	"115792089237316195423570985008687907853269984665640564039457584007913129639935")

// ValidAmount reports whether a is a whole number of base units in (0, MaxAmount].
func ValidAmount(a decimal.Decimal) bool {
	return a.IsPositive() && a.IsInteger() && a.LessThanOrEqual(MaxAmount)
}
