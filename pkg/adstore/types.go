// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adstore

import (
	"strings"
	"time"

	"github.com/adxyz/adnet/pkg/ids"
)

// Known ad type families. Types requiring both orientations are created as
// two ads with " Portrait" / " Landscape" suffixes on the family name.
const (
	AdTypeFullPage     = "Full Page"
	AdTypeBanner       = "Banner"
	AdTypeInterstitial = "Interstitial"
	AdTypeRewarded     = "Rewarded"
)

// OrientationPortrait and OrientationLandscape are the suffixes appended to
// two-orientation ad type families.
const (
	OrientationPortrait  = "Portrait"
	OrientationLandscape = "Landscape"
)

// RequiresBothOrientations reports whether the ad type family must be
// created as a Portrait and a Landscape ad together. Pricing doubles for
// these families.
func RequiresBothOrientations(adType string) bool {
	family := strings.TrimSuffix(strings.TrimSuffix(adType, " "+OrientationPortrait), " "+OrientationLandscape)
	return family == AdTypeFullPage || family == AdTypeBanner
}

// Ad is a purchased advertisement. ViewsServed never exceeds ViewsPurchased.
type Ad struct {
	ID             uint64        `json:"id"`
	Advertiser     ids.Principal `json:"advertiser"`
	Type           string        `json:"adType"`
	ClickURL       string        `json:"clickUrl"`
	ImageRef       string        `json:"imageBase64"`
	ViewsPurchased uint64        `json:"viewsPurchased"`
	ViewsServed    uint64        `json:"viewsServed"`
}

// Lite returns the ad without its image payload.
func (a Ad) Lite() AdLite {
	return AdLite{
		ID:             a.ID,
		Advertiser:     a.Advertiser,
		Type:           a.Type,
		ClickURL:       a.ClickURL,
		ViewsPurchased: a.ViewsPurchased,
		ViewsServed:    a.ViewsServed,
	}
}

// RemainingViews returns the views still owed to the advertiser.
func (a Ad) RemainingViews() uint64 {
	if a.ViewsServed >= a.ViewsPurchased {
		return 0
	}
	return a.ViewsPurchased - a.ViewsServed
}

// AdLite is an ad record stripped of the image payload, for listings.
type AdLite struct {
	ID             uint64        `json:"id"`
	Advertiser     ids.Principal `json:"advertiser"`
	Type           string        `json:"adType"`
	ClickURL       string        `json:"clickUrl"`
	ViewsPurchased uint64        `json:"viewsPurchased"`
	ViewsServed    uint64        `json:"viewsServed"`
}

// Project is a publisher's registration. Views accrue as ads are credited
// and reset to zero at cash-out.
type Project struct {
	ID      string        `json:"id"`
	Owner   ids.Principal `json:"owner"`
	Contact string        `json:"contact"`
	Views   uint64        `json:"views"`
}

// LogEntry is an audit record of a state-changing call.
type LogEntry struct {
	Method    string        `json:"method"`
	Caller    ids.Principal `json:"caller"`
	Details   string        `json:"details"`
	Timestamp time.Time     `json:"timestamp"`
}

// ticketState tracks the lifecycle of a viewing ticket.
type ticketState int

const (
	ticketIssued ticketState = iota
	ticketRedeemed
	ticketCancelled
)

// ticket is an ephemeral single-use viewing token. Tickets are never
// persisted: a restart invalidates outstanding tickets.
type ticket struct {
	id        ids.TicketID
	adID      uint64
	projectID string
	issuedAt  time.Time
	state     ticketState
}
