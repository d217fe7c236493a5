// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places of the token. The minor unit
// (e8s) is 10^-8 token.
const Decimals = 8

// E8sPerToken is the number of minor units in one whole token.
const E8sPerToken = 100_000_000

// E8sFromDecimal converts a display amount to minor units, rounding
// half-up on the scaled value. Amounts beyond the uint64 range saturate
// to the maximum, which no ledger balance can cover.
func E8sFromDecimal(amount decimal.Decimal) uint64 {
	scaled := amount.Shift(Decimals).Round(0)
	if scaled.Sign() <= 0 {
		return 0
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return math.MaxUint64
	}
	return bi.Uint64()
}

// DecimalFromE8s converts minor units to a display amount.
func DecimalFromE8s(e8s uint64) decimal.Decimal {
	return decimal.New(int64(e8s), -Decimals)
}
