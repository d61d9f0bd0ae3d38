package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitEvenly divides a whole amount into n whole shares.
// The remainder is handed out one unit at a time to the first shares, so
// shares differ by at most one and always sum to amount.
func SplitEvenly(amount decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("must have at least one share")
	}
	if !amount.IsInteger() {
		return nil, fmt.Errorf("amount %s is not a whole number", amount)
	}
	count := decimal.NewFromInt(int64(n))
	if amount.LessThan(count) {
		return nil, fmt.Errorf("amount %s too small to split among %d", amount, n)
	}

	base, remainder := amount.QuoRem(count, 0)
	extra := remainder.IntPart()

	one := decimal.NewFromInt(1)
	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < extra {
			shares[i] = base.Add(one)
		}
	}
	return shares, nil
}
