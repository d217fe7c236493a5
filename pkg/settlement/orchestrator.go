// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package settlement sequences paid mutations: transfer tokens first, then
// mutate ad/project state, surfacing each failure mode distinctly.
package settlement

import (
	"context"
	"fmt"

	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/ledger"
	"github.com/adxyz/adnet/pkg/log"
)

// InconsistencyError marks the one non-recoverable state: the transfer
// settled but the follow-up mutation failed. Tokens were spent with no
// effect; operators reconcile manually using the block index. There is no
// automatic refund.
type InconsistencyError struct {
	Block ledger.BlockIndex
	Cause error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("tokens spent at block %d but mutation failed: %v", e.Block, e.Cause)
}

func (e *InconsistencyError) Unwrap() error {
	return e.Cause
}

// Orchestrator runs pay-then-mutate sequences against the token ledger.
type Orchestrator struct {
	ledger ledger.Client
	log    log.Logger
}

// NewOrchestrator creates an orchestrator over the given ledger client.
func NewOrchestrator(client ledger.Client, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NoLog
	}
	return &Orchestrator{ledger: client, log: logger}
}

// PayAndMutate transfers costE8s to recipient and then runs mutate.
// Sequencing is strict:
//
//   - a zero cost skips the transfer entirely;
//   - a transfer failure aborts before any mutation, and the typed ledger
//     error is returned verbatim with no retry;
//   - a mutation failure after a settled transfer is returned as
//     *InconsistencyError, distinct from a pre-transfer failure.
//
// The call is not idempotent: repeating it spends tokens again.
func (o *Orchestrator) PayAndMutate(ctx context.Context, costE8s uint64, recipient ids.Principal, mutate func(context.Context) error) error {
	if costE8s == 0 {
		return mutate(ctx)
	}

	block, err := o.ledger.Transfer(ctx, ledger.TransferArgs{
		To:        recipient,
		AmountE8s: costE8s,
	})
	if err != nil {
		o.log.Warn("payment failed",
			log.Uint64("cost_e8s", costE8s),
			log.Error(err))
		return err
	}

	o.log.Info("payment settled",
		log.Uint64("cost_e8s", costE8s),
		log.Uint64("block", uint64(block)))

	if err := mutate(ctx); err != nil {
		o.log.Error("mutation failed after settled transfer",
			log.Uint64("block", uint64(block)),
			log.Error(err))
		return &InconsistencyError{Block: block, Cause: err}
	}
	return nil
}
