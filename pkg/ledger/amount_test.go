// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestE8sFromDecimal(t *testing.T) {
	require := require.New(t)

	cases := []struct {
		in   string
		want uint64
	}{
		{"1", 100_000_000},
		{"0.001", 100_000},
		{"1.00000001", 100_000_001},
		// Round half-up on the scaled value.
		{"0.000000005", 1},
		{"0.000000004", 0},
		{"2.5", 250_000_000},
		{"0", 0},
	}

	for _, tc := range cases {
		d := decimal.RequireFromString(tc.in)
		require.Equal(tc.want, E8sFromDecimal(d), "converting %s", tc.in)
	}
}

func TestE8sFromDecimalSaturates(t *testing.T) {
	require := require.New(t)

	// Amounts whose minor-unit form exceeds uint64 must saturate, never
	// truncate to a small value a balance could cover.
	for _, in := range []string{
		"184467440737.09551616", // 2^64 e8s
		"999999999999999999999",
	} {
		d := decimal.RequireFromString(in)
		require.Equal(uint64(math.MaxUint64), E8sFromDecimal(d), "converting %s", in)
	}

	require.Zero(E8sFromDecimal(decimal.RequireFromString("-184467440737.09551616")))
}

func TestDecimalFromE8s(t *testing.T) {
	require := require.New(t)

	require.True(DecimalFromE8s(100_000_000).Equal(decimal.NewFromInt(1)))
	require.True(DecimalFromE8s(1).Equal(decimal.RequireFromString("0.00000001")))
	require.True(DecimalFromE8s(0).IsZero())
}

func TestAmountRoundTrip(t *testing.T) {
	require := require.New(t)

	for _, e8s := range []uint64{0, 1, 99, 100_000, 123_456_789, 100_000_000_000} {
		require.Equal(e8s, E8sFromDecimal(DecimalFromE8s(e8s)))
	}
}
