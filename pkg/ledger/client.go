// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger is the client side of the external token ledger: balance
// queries and transfers in minor units, with typed error propagation.
package ledger

import (
	"context"

	"github.com/adxyz/adnet/pkg/ids"
)

// BlockIndex identifies a settled transfer on the ledger. Indices are
// monotonic.
type BlockIndex uint64

// TransferArgs describes a transfer in minor units. From is implied by the
// authenticated identity behind the client.
type TransferArgs struct {
	FromSubaccount []byte
	To             ids.Principal
	ToSubaccount   []byte
	AmountE8s      uint64
	FeeE8s         uint64
	Memo           []byte
}

// Client talks to the token ledger. Implementations must return a
// *TransferError for typed rejections rather than a generic error.
type Client interface {
	// Transfer moves AmountE8s from the caller's account to args.To and
	// returns the block index of the settled transaction.
	Transfer(ctx context.Context, args TransferArgs) (BlockIndex, error)

	// BalanceOf returns the balance of the given principal in minor units.
	BalanceOf(ctx context.Context, owner ids.Principal) (uint64, error)
}
