// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adnet is the front-end facade of the ad network: authenticated
// sessions, paid mutations, ad dispatch and cash-out, with outcomes
// reported on a status stream.
package adnet

import (
	"errors"
	"time"

	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/ledger"
	"github.com/adxyz/adnet/pkg/log"
	"github.com/adxyz/adnet/pkg/metric"
	"github.com/adxyz/adnet/pkg/session"
	"github.com/adxyz/adnet/pkg/settlement"
	"github.com/adxyz/adnet/pkg/status"
	"github.com/adxyz/adnet/pkg/ticket"
)

// Config wires a Network.
type Config struct {
	Store *adstore.Store

	// UserLedger returns a ledger client debiting the given principal.
	UserLedger func(ids.Principal) ledger.Client

	// NetworkLedger debits the network account; it funds cash-out
	// credits. Nil disables payouts (an external settlement job owns
	// them).
	NetworkLedger ledger.Client

	// NetworkAccount receives ad payments and funds cash-outs.
	NetworkAccount ids.Principal

	// Dwell overrides the redemption delay. Zero means the store
	// default.
	Dwell time.Duration

	Metrics *metric.Metrics
	Log     log.Logger
}

// Network is the core consumed by the front end.
type Network struct {
	store      *adstore.Store
	session    *session.Session
	dispatcher *ticket.Dispatcher
	notifier   *status.Notifier

	userLedger     func(ids.Principal) ledger.Client
	networkLedger  ledger.Client
	networkAccount ids.Principal

	metrics *metric.Metrics
	log     log.Logger
}

// New creates a Network over the given store and ledger clients.
func New(cfg Config) (*Network, error) {
	logger := cfg.Log
	if logger == nil {
		logger = log.NoLog
	}

	n := &Network{
		store:          cfg.Store,
		session:        session.New(),
		notifier:       status.NewNotifier(),
		userLedger:     cfg.UserLedger,
		networkLedger:  cfg.NetworkLedger,
		networkAccount: cfg.NetworkAccount,
		metrics:        cfg.Metrics,
		log:            logger,
	}

	n.dispatcher = ticket.NewDispatcher(cfg.Store, n.notifier, cfg.Dwell, logger)
	n.dispatcher.OnOutcome = n.observeOutcome
	return n, nil
}

// Notifier returns the status stream callers subscribe to.
func (n *Network) Notifier() *status.Notifier {
	return n.notifier
}

// Session returns the auth session owned by this network handle.
func (n *Network) Session() *session.Session {
	return n.session
}

// Connect authenticates the session via the given method. Connecting with
// a different method while one is active is rejected until Logout.
func (n *Network) Connect(method session.Method, principal ids.Principal) error {
	if err := n.session.Connect(method, principal); err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return err
	}
	n.notifier.Publish(status.KindInfo,
		"authenticated via "+string(method)+" as "+principal.String())
	return nil
}

// Logout drops the session identity and cancels all pending redemptions
// owned by it.
func (n *Network) Logout() {
	n.session.Logout()
	n.dispatcher.CancelAll()
	n.notifier.Publish(status.KindInfo, "logged out")
}

// Close stops the dispatcher and the status stream.
func (n *Network) Close() {
	n.dispatcher.Close()
	n.notifier.Close()
}

// caller resolves the authenticated principal and its ledger client.
func (n *Network) caller() (ids.Principal, ledger.Client, error) {
	principal, err := n.session.Principal()
	if err != nil {
		return "", nil, err
	}
	if n.userLedger == nil {
		return "", nil, session.ErrActorUninitialized
	}
	return principal, n.userLedger(principal), nil
}

// orchestratorFor builds a pay-then-mutate sequencer debiting the caller.
func (n *Network) orchestratorFor(client ledger.Client) *settlement.Orchestrator {
	return settlement.NewOrchestrator(client, n.log)
}

func (n *Network) observeOutcome(out ticket.Outcome) {
	if n.metrics == nil {
		return
	}
	if out.Credited {
		n.metrics.ViewsCredited.Inc()
	} else {
		n.metrics.ViewsRejected.Inc()
	}
}

func (n *Network) countTransfer(costE8s uint64, err error) {
	if n.metrics == nil {
		return
	}
	switch {
	case err == nil:
		if costE8s > 0 {
			n.metrics.TransfersSettled.Inc()
			n.metrics.TokensSpentE8s.Add(float64(costE8s))
		}
	default:
		var inc *settlement.InconsistencyError
		if errors.As(err, &inc) {
			n.metrics.TransfersSettled.Inc()
			n.metrics.TokensSpentE8s.Add(float64(costE8s))
			n.metrics.Inconsistencies.Inc()
		} else {
			n.metrics.TransfersFailed.Inc()
		}
	}
}
