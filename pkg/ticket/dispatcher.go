// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ticket dispatches ads against single-use viewing tickets and
// schedules their redemption after the dwell interval.
package ticket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/log"
	"github.com/adxyz/adnet/pkg/status"
)

// Store is the slice of the ad ledger the dispatcher needs.
type Store interface {
	GetNextAd(projectID, typeFilter string) (adstore.Ad, ids.TicketID, bool, error)
	RecordViewWithToken(id ids.TicketID) error
	CancelTicket(id ids.TicketID)
}

// Placement is a dispatched ad and the ticket that will credit its view.
type Placement struct {
	Ad     adstore.Ad
	Ticket ids.TicketID
}

// Outcome reports the result of a redemption attempt. Exactly one of
// Credited or Err describes what happened; a superseded ticket surfaces as
// Err, never silently.
type Outcome struct {
	Ticket   ids.TicketID
	AdID     uint64
	Project  string
	Credited bool
	Err      error
}

// pendingView is a scheduled, cancellable, single-fire redemption.
type pendingView struct {
	ticket  ids.TicketID
	adID    uint64
	project string
	timer   *time.Timer
}

// Dispatcher issues placements and redeems their tickets once the dwell
// interval has elapsed. At most one redemption is pending per project;
// dispatching again replaces it.
type Dispatcher struct {
	mu      sync.Mutex
	pending map[string]*pendingView
	closed  bool

	store    Store
	notifier *status.Notifier
	dwell    time.Duration
	log      log.Logger

	// OnOutcome, when set, observes every redemption outcome. Used for
	// metrics.
	OnOutcome func(Outcome)
}

// NewDispatcher creates a dispatcher redeeming after dwell. Zero dwell
// means adstore.DefaultDwell.
func NewDispatcher(store Store, notifier *status.Notifier, dwell time.Duration, logger log.Logger) *Dispatcher {
	if dwell <= 0 {
		dwell = adstore.DefaultDwell
	}
	if logger == nil {
		logger = log.NoLog
	}
	return &Dispatcher{
		pending:  make(map[string]*pendingView),
		store:    store,
		notifier: notifier,
		dwell:    dwell,
		log:      logger,
	}
}

// Dispatch selects the next eligible ad for the project and schedules its
// view for crediting after the dwell interval. The comma-ok result is
// false when no eligible ad exists. Any redemption still pending for the
// same project is cancelled before the new one is scheduled.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID, typeFilter string) (*Placement, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	ad, ticketID, ok, err := d.store.GetNextAd(projectID, typeFilter)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		d.publish(status.KindDispatch, fmt.Sprintf("no available ads for project %q", projectID))
		return nil, false, nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.store.CancelTicket(ticketID)
		return nil, false, fmt.Errorf("dispatcher closed")
	}
	if prev, exists := d.pending[projectID]; exists {
		// The store already superseded the ticket; stopping the timer
		// keeps a cleanly-cancelled redemption from firing at all. A
		// timer that already fired runs to completion and reports its
		// rejection.
		prev.timer.Stop()
	}
	pv := &pendingView{ticket: ticketID, adID: ad.ID, project: projectID}
	pv.timer = time.AfterFunc(d.dwell, func() { d.redeem(pv) })
	d.pending[projectID] = pv
	d.mu.Unlock()

	d.publish(status.KindDispatch,
		fmt.Sprintf("fetched ad #%d (served %d), ticket %d", ad.ID, ad.ViewsServed, ticketID))
	return &Placement{Ad: ad, Ticket: ticketID}, true, nil
}

// redeem fires exactly once per ticket, at issuance+dwell.
func (d *Dispatcher) redeem(pv *pendingView) {
	err := d.store.RecordViewWithToken(pv.ticket)

	d.mu.Lock()
	if d.pending[pv.project] == pv {
		delete(d.pending, pv.project)
	}
	d.mu.Unlock()

	out := Outcome{
		Ticket:   pv.ticket,
		AdID:     pv.adID,
		Project:  pv.project,
		Credited: err == nil,
		Err:      err,
	}
	if err == nil {
		d.publish(status.KindViewCredited,
			fmt.Sprintf("view for ad #%d counted (ticket %d)", pv.adID, pv.ticket))
	} else {
		d.publish(status.KindViewRejected,
			fmt.Sprintf("view for ad #%d not counted: %v", pv.adID, err))
		d.log.Debug("view rejected",
			log.Uint64("ad", pv.adID),
			log.Uint64("ticket", uint64(pv.ticket)),
			log.Error(err))
	}
	if d.OnOutcome != nil {
		d.OnOutcome(out)
	}
}

// Cancel drops the pending redemption for a project, if any, and cancels
// its ticket so a late redemption attempt is rejected by the store.
// Cancelling when nothing is pending is a no-op.
func (d *Dispatcher) Cancel(projectID string) {
	d.mu.Lock()
	pv, ok := d.pending[projectID]
	if ok {
		pv.timer.Stop()
		delete(d.pending, projectID)
	}
	d.mu.Unlock()

	if ok {
		d.store.CancelTicket(pv.ticket)
		d.publish(status.KindInfo,
			fmt.Sprintf("pending view for ad #%d cancelled", pv.adID))
	}
}

// CancelAll drops every pending redemption and cancels its ticket. Used
// on auth transitions, when the identity that requested the views goes
// away.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	pending := d.drainLocked()
	d.mu.Unlock()

	for _, pv := range pending {
		d.store.CancelTicket(pv.ticket)
	}
}

// Close cancels every pending redemption. The dispatcher rejects further
// dispatches.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	pending := d.drainLocked()
	d.closed = true
	d.mu.Unlock()

	for _, pv := range pending {
		d.store.CancelTicket(pv.ticket)
	}
}

// drainLocked stops and removes every pending redemption. Callers hold
// d.mu.
func (d *Dispatcher) drainLocked() []*pendingView {
	pending := make([]*pendingView, 0, len(d.pending))
	for project, pv := range d.pending {
		pv.timer.Stop()
		pending = append(pending, pv)
		delete(d.pending, project)
	}
	return pending
}

func (d *Dispatcher) publish(kind status.Kind, msg string) {
	if d.notifier != nil {
		d.notifier.Publish(kind, msg)
	}
}
