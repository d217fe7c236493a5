// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adstore

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/log"
)

// GetNextAd selects an eligible ad for the project and issues a single-use
// viewing ticket bound to it. Issuing a new ticket cancels any live ticket
// previously issued to the same project, so at most one ticket is live per
// project at a time. The comma-ok result is false when no eligible ad
// exists; that is a valid outcome, not an error.
func (s *Store) GetNextAd(projectID, typeFilter string) (Ad, ids.TicketID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return Ad{}, 0, false, errors.Wrapf(ErrNotFound, "project %q", projectID)
	}

	ad := s.selectEligible(typeFilter)
	if ad == nil {
		return Ad{}, 0, false, nil
	}

	// Supersede the previous live ticket, if any.
	if prevID, ok := s.liveByProject[projectID]; ok {
		if prev := s.tickets[prevID]; prev != nil && prev.state == ticketIssued {
			prev.state = ticketCancelled
			s.log.Debug("ticket superseded",
				log.String("project", projectID),
				log.Uint64("ticket", uint64(prevID)))
		}
	}

	s.nextTicketID++
	t := &ticket{
		id:        s.nextTicketID,
		adID:      ad.ID,
		projectID: projectID,
		issuedAt:  s.now(),
	}
	s.tickets[t.id] = t
	s.liveByProject[projectID] = t.id

	s.record("getNextAd", s.projects[projectID].Owner, "ad #%d ticket %d", ad.ID, t.id)
	return *ad, t.id, true, nil
}

// selectEligible picks the least-served eligible ad, lowest id breaking
// ties. Callers hold s.mu.
func (s *Store) selectEligible(typeFilter string) *Ad {
	var best *Ad
	for _, ad := range s.ads {
		if ad.RemainingViews() == 0 || !matchesType(ad.Type, typeFilter) {
			continue
		}
		if best == nil ||
			ad.ViewsServed < best.ViewsServed ||
			(ad.ViewsServed == best.ViewsServed && ad.ID < best.ID) {
			best = ad
		}
	}
	return best
}

// matchesType reports whether an ad type satisfies the requested filter.
// An empty filter matches everything; a family filter ("Banner") matches
// its orientation variants ("Banner Portrait").
func matchesType(adType, filter string) bool {
	if filter == "" {
		return true
	}
	return adType == filter || strings.HasPrefix(adType, filter+" ")
}

// RecordViewWithToken redeems a viewing ticket, crediting the view to the
// ad and the project exactly once. Redemption fails with ErrTicketInvalid
// when the ticket is unknown, cancelled, already consumed, or the dwell
// interval has not elapsed. A failed redemption never changes serving
// counts.
func (s *Store) RecordViewWithToken(id ids.TicketID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return errors.Wrapf(ErrTicketInvalid, "ticket %d unknown", id)
	}

	switch t.state {
	case ticketRedeemed:
		return errors.Wrapf(ErrTicketInvalid, "ticket %d already consumed", id)
	case ticketCancelled:
		return errors.Wrapf(ErrTicketInvalid, "ticket %d cancelled", id)
	}

	if s.now().Sub(t.issuedAt) < s.dwell {
		return errors.Wrapf(ErrTicketInvalid, "ticket %d redeemed too soon", id)
	}

	ad, ok := s.ads[t.adID]
	if !ok || ad.RemainingViews() == 0 {
		// Ad deleted or exhausted since dispatch. The ticket is spent
		// either way.
		t.state = ticketCancelled
		return errors.Wrapf(ErrTicketInvalid, "ticket %d ad unavailable", id)
	}

	project, ok := s.projects[t.projectID]
	if !ok {
		t.state = ticketCancelled
		return errors.Wrapf(ErrTicketInvalid, "ticket %d project unavailable", id)
	}

	ad.ViewsServed++
	project.Views++
	t.state = ticketRedeemed
	if s.liveByProject[t.projectID] == id {
		delete(s.liveByProject, t.projectID)
	}

	if err := s.persistAd(ad); err != nil {
		s.log.Error("persisting credited ad", log.Error(err))
	}
	if err := s.persistProject(project); err != nil {
		s.log.Error("persisting credited project", log.Error(err))
	}

	s.record("recordViewWithToken", project.Owner, "ad #%d ticket %d", ad.ID, id)
	s.log.Debug("view credited",
		log.Uint64("ad", ad.ID),
		log.String("project", project.ID),
		log.Uint64("ticket", uint64(id)))
	return nil
}

// CancelTicket marks a ticket cancelled. Cancelling a ticket that already
// reached a terminal state is a no-op.
func (s *Store) CancelTicket(id ids.TicketID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok || t.state != ticketIssued {
		return
	}
	t.state = ticketCancelled
	if s.liveByProject[t.projectID] == id {
		delete(s.liveByProject, t.projectID)
	}
}
