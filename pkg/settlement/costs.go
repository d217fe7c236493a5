// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ledger"
)

// UnitPrice is the token price of a single purchased view.
var UnitPrice = decimal.RequireFromString("0.001")

// CostForViews returns the display-unit cost of purchasing views for the
// given ad type. Types requiring both orientations are billed twice: one
// payment funds the Portrait and the Landscape ad together.
func CostForViews(views uint64, adType string) decimal.Decimal {
	cost := decimal.NewFromInt(int64(views)).Mul(UnitPrice)
	if adstore.RequiresBothOrientations(adType) {
		cost = cost.Mul(decimal.NewFromInt(2))
	}
	return cost
}

// CostE8s returns the cost in minor units, rounded half-up at the ledger's
// precision.
func CostE8s(views uint64, adType string) uint64 {
	return ledger.E8sFromDecimal(CostForViews(views, adType))
}

// PayoutE8s converts cashed-out views into the minor-unit credit owed to
// the publisher. Cash-out pays the single-orientation unit price
// regardless of the ad types that produced the views.
func PayoutE8s(views uint64) uint64 {
	return ledger.E8sFromDecimal(decimal.NewFromInt(int64(views)).Mul(UnitPrice))
}
