// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"math"
	"sync"

	"github.com/adxyz/adnet/pkg/ids"
)

// DefaultFeeE8s is the standard ledger fee (0.0001 token).
const DefaultFeeE8s = 10_000

// MemoryLedger is an in-process ledger with ICRC-1 semantics: per-account
// balances, a fixed fee burned on transfer, and a monotonic block index.
// It backs the daemon's local mode and the test suites.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[ids.Principal]uint64
	fee      uint64
	nextIdx  BlockIndex

	// caller is the principal debited by Transfer. The real ledger infers
	// it from the authenticated identity; here it is set explicitly.
	caller ids.Principal
}

// NewMemoryLedger creates an empty in-process ledger with the default fee.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[ids.Principal]uint64),
		fee:      DefaultFeeE8s,
	}
}

// WithCaller returns a view of the ledger that debits the given principal.
func (m *MemoryLedger) WithCaller(caller ids.Principal) *callerLedger {
	return &callerLedger{ledger: m, caller: caller}
}

// Mint credits an account without a funding transfer. Test and local-mode
// bootstrap only.
func (m *MemoryLedger) Mint(owner ids.Principal, amountE8s uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[owner] += amountE8s
}

// SetCaller fixes the principal debited by Transfer calls made directly on
// the ledger.
func (m *MemoryLedger) SetCaller(caller ids.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caller = caller
}

// Transfer implements Client.
func (m *MemoryLedger) Transfer(ctx context.Context, args TransferArgs) (BlockIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferLocked(m.caller, args)
}

// BalanceOf implements Client.
func (m *MemoryLedger) BalanceOf(ctx context.Context, owner ids.Principal) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[owner], nil
}

func (m *MemoryLedger) transferLocked(from ids.Principal, args TransferArgs) (BlockIndex, error) {
	if args.FeeE8s != 0 && args.FeeE8s != m.fee {
		return 0, BadFee(m.fee)
	}
	bal := m.balances[from]
	// amount+fee must not wrap; no balance can cover an amount that close
	// to the uint64 ceiling anyway.
	if args.AmountE8s > math.MaxUint64-m.fee {
		return 0, InsufficientFunds(bal)
	}
	total := args.AmountE8s + m.fee
	if bal < total {
		return 0, InsufficientFunds(bal)
	}
	m.balances[from] = bal - total
	m.balances[args.To] += args.AmountE8s
	m.nextIdx++
	return m.nextIdx, nil
}

// callerLedger binds a MemoryLedger to a single debiting principal.
type callerLedger struct {
	ledger *MemoryLedger
	caller ids.Principal
}

func (c *callerLedger) Transfer(ctx context.Context, args TransferArgs) (BlockIndex, error) {
	c.ledger.mu.Lock()
	defer c.ledger.mu.Unlock()
	return c.ledger.transferLocked(c.caller, args)
}

func (c *callerLedger) BalanceOf(ctx context.Context, owner ids.Principal) (uint64, error) {
	return c.ledger.BalanceOf(ctx, owner)
}
