package odds

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOdds = errors.New("odds must be at least 1.01")
)

// MinOdds is the lowest price a selection may carry.
var MinOdds = decimal.RequireFromString("1.01")

// Parse parses a decimal odds string and enforces the minimum price.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidOdds
	}
	if d.LessThan(MinOdds) {
		return decimal.Zero, ErrInvalidOdds
	}
	return d, nil
}

// CombinedPrice multiplies the prices of all legs. Legs voided during
// settlement are collapsed to 1.0 by the caller before this is applied.
func CombinedPrice(prices []decimal.Decimal) decimal.Decimal {
	total := decimal.NewFromInt(1)
	for _, p := range prices {
		total = total.Mul(p)
	}
	return total
}

// PotentialWin returns stake x combined price in minor units.
// The product is truncated, never rounded up, so the ledger can only
// pay out whole minor units that the price actually covers.
func PotentialWin(stakeMinor int64, prices []decimal.Decimal) int64 {
	stake := decimal.NewFromInt(stakeMinor)
	return stake.Mul(CombinedPrice(prices)).IntPart()
}
