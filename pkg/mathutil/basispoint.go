package mathutil

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TenThousands is the denominator of basis-point percentages.
var TenThousands = uint64(10000)

func init() {
	decimal.DivisionPrecision = 8
}

// BasisPointAmount calculates floor(amount * bp / 10000), the share of an
// amount expressed in basis points (ie. 2.50% = 250).
func BasisPointAmount(amount, bp uint64) uint64 {
	amountDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	bpDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(bp), 0)
	tenThousandsDecimal := decimal.NewFromBigInt(new(big.Int).SetUint64(TenThousands), 0)

	share := amountDecimal.Mul(bpDecimal).Div(tenThousandsDecimal).Floor()
	return share.BigInt().Uint64()
}

// SplitAmount calculates floor(amount / parts), the equal share of an amount
// split across parts recipients.
func SplitAmount(amount, parts uint64) uint64 {
	if parts == 0 {
		return 0
	}
	z := new(big.Int).Quo(
		new(big.Int).SetUint64(amount), new(big.Int).SetUint64(parts),
	)
	return z.Uint64()
}
