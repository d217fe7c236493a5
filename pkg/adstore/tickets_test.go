// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adnet/pkg/ids"
)

func TestGetNextAdSelection(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))

	a1, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)
	a2, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeRewarded)
	require.NoError(err)

	// Least-served first; lowest id breaks ties.
	ad, ticketID, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)
	require.Equal(a1, ad.ID)

	clock.Advance(DefaultDwell)
	require.NoError(s.RecordViewWithToken(ticketID))

	ad, ticketID, ok, err = s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)
	require.Equal(a2, ad.ID, "least-served ad comes first")

	clock.Advance(DefaultDwell)
	require.NoError(s.RecordViewWithToken(ticketID))
}

func TestGetNextAdTypeFilter(t *testing.T) {
	require := require.New(t)
	s, _ := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))

	_, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)
	banner, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeBanner+" "+OrientationPortrait)
	require.NoError(err)

	// A family filter matches its orientation variants.
	ad, _, ok, err := s.GetNextAd("game-1", AdTypeBanner)
	require.NoError(err)
	require.True(ok)
	require.Equal(banner, ad.ID)

	// No ad of the requested type: a valid empty outcome.
	_, _, ok, err = s.GetNextAd("game-1", AdTypeRewarded)
	require.NoError(err)
	require.False(ok)
}

func TestGetNextAdUnknownProject(t *testing.T) {
	require := require.New(t)
	s, _ := newTestStore(t)

	_, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, _, _, err = s.GetNextAd("unregistered", "")
	require.ErrorIs(err, ErrNotFound)
}

func TestRedeemTooSoon(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))
	adID, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, ticketID, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)

	clock.Advance(DefaultDwell - time.Second)
	require.ErrorIs(s.RecordViewWithToken(ticketID), ErrTicketInvalid)

	// Serving count unchanged.
	ad, err := s.AdByID(adID)
	require.NoError(err)
	require.Zero(ad.ViewsServed)

	// The ticket survives an early attempt and redeems once the dwell
	// has elapsed.
	clock.Advance(time.Second)
	require.NoError(s.RecordViewWithToken(ticketID))
}

func TestRedeemTwice(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))
	adID, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, ticketID, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)

	clock.Advance(DefaultDwell)
	require.NoError(s.RecordViewWithToken(ticketID))
	require.ErrorIs(s.RecordViewWithToken(ticketID), ErrTicketInvalid)

	// No double increment.
	ad, err := s.AdByID(adID)
	require.NoError(err)
	require.Equal(uint64(1), ad.ViewsServed)
}

func TestDispatchSupersedesLiveTicket(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))
	_, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, stale, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)

	_, fresh, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)
	require.NotEqual(stale, fresh)

	clock.Advance(DefaultDwell)
	require.ErrorIs(s.RecordViewWithToken(stale), ErrTicketInvalid)
	require.NoError(s.RecordViewWithToken(fresh))
}

func TestSupersedeIsPerProject(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))
	require.NoError(s.RegisterProject(publisher, "game-2", "c"))
	_, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, t1, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)
	_, t2, ok, err := s.GetNextAd("game-2", "")
	require.NoError(err)
	require.True(ok)

	// A dispatch on another project does not cancel game-1's ticket.
	clock.Advance(DefaultDwell)
	require.NoError(s.RecordViewWithToken(t1))
	require.NoError(s.RecordViewWithToken(t2))
}

func TestCancelTicketIdempotent(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))
	_, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, ticketID, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)

	s.CancelTicket(ticketID)
	s.CancelTicket(ticketID) // no-op
	s.CancelTicket(9999)     // unknown: no-op

	clock.Advance(DefaultDwell)
	require.ErrorIs(s.RecordViewWithToken(ticketID), ErrTicketInvalid)
}

func TestRedeemAfterAdDeleted(t *testing.T) {
	require := require.New(t)
	s, clock := newTestStore(t)

	require.NoError(s.RegisterProject(publisher, "game-1", "c"))
	adID, err := s.CreateAd(advertiser, "img", "url", 10, AdTypeInterstitial)
	require.NoError(err)

	_, ticketID, ok, err := s.GetNextAd("game-1", "")
	require.NoError(err)
	require.True(ok)

	require.NoError(s.DeleteAd(advertiser, adID))

	clock.Advance(DefaultDwell)
	require.ErrorIs(s.RecordViewWithToken(ticketID), ErrTicketInvalid)
	require.Zero(s.TotalViewsForProject("game-1"))
}

func TestRedeemUnknownTicket(t *testing.T) {
	require := require.New(t)
	s, _ := newTestStore(t)

	require.ErrorIs(s.RecordViewWithToken(ids.TicketID(12345)), ErrTicketInvalid)
}
