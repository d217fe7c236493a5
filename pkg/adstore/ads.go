// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adstore

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/log"
)

// CreateAd records a new ad owned by caller and returns its id. Ids are
// assigned monotonically and never reused.
func (s *Store) CreateAd(caller ids.Principal, imageRef, clickURL string, views uint64, adType string) (uint64, error) {
	if caller.IsAnonymous() {
		return 0, errors.Wrap(ErrInvalidInput, "anonymous caller")
	}
	if strings.TrimSpace(adType) == "" {
		return 0, errors.Wrap(ErrInvalidInput, "empty ad type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ad := &Ad{
		ID:             s.nextAdID,
		Advertiser:     caller,
		Type:           adType,
		ClickURL:       clickURL,
		ImageRef:       imageRef,
		ViewsPurchased: views,
	}
	s.nextAdID++
	s.ads[ad.ID] = ad

	if err := s.persistAd(ad); err != nil {
		delete(s.ads, ad.ID)
		s.nextAdID--
		return 0, err
	}

	s.record("createAd", caller, "ad #%d type %q views %d", ad.ID, adType, views)
	s.log.Info("ad created",
		log.Uint64("ad", ad.ID),
		log.String("type", adType),
		log.Uint64("views", views))
	return ad.ID, nil
}

// DeleteAd removes an ad. Only the owning advertiser may delete it.
func (s *Store) DeleteAd(caller ids.Principal, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ad, ok := s.ads[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "ad #%d", id)
	}
	if ad.Advertiser != caller {
		return errors.Wrapf(ErrNotOwner, "ad #%d", id)
	}

	delete(s.ads, id)
	if s.db != nil {
		if err := s.db.Delete(adKey(id)); err != nil {
			s.ads[id] = ad
			return errors.Wrap(err, "deleting ad")
		}
	}

	s.record("deleteAd", caller, "ad #%d", id)
	return nil
}

// PurchaseViews tops up an ad with extra purchased views. Only the owner
// may top up.
func (s *Store) PurchaseViews(caller ids.Principal, id uint64, extra uint64) error {
	if extra == 0 {
		return errors.Wrap(ErrInvalidInput, "zero additional views")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ad, ok := s.ads[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "ad #%d", id)
	}
	if ad.Advertiser != caller {
		return errors.Wrapf(ErrNotOwner, "ad #%d", id)
	}

	ad.ViewsPurchased += extra
	if err := s.persistAd(ad); err != nil {
		ad.ViewsPurchased -= extra
		return err
	}

	s.record("purchaseViews", caller, "ad #%d +%d views", id, extra)
	return nil
}

// AdByID returns the ad with the given id.
func (s *Store) AdByID(id uint64) (Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[id]
	if !ok {
		return Ad{}, errors.Wrapf(ErrNotFound, "ad #%d", id)
	}
	return *ad, nil
}

// AllAds returns every ad, ordered by id.
func (s *Store) AllAds() []Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Ad, 0, len(s.ads))
	for _, ad := range s.ads {
		out = append(out, *ad)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MyAdsLite returns the caller's ads without image payloads, ordered by id.
func (s *Store) MyAdsLite(caller ids.Principal) []AdLite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AdLite, 0)
	for _, ad := range s.ads {
		if ad.Advertiser == caller {
			out = append(out, ad.Lite())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TotalActiveAds counts ads that still owe views.
func (s *Store) TotalActiveAds() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, ad := range s.ads {
		if ad.RemainingViews() > 0 {
			n++
		}
	}
	return n
}

// RemainingViewsForAd returns the views still owed for one ad. Missing ads
// report zero.
func (s *Store) RemainingViewsForAd(id uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[id]
	if !ok {
		return 0
	}
	return ad.RemainingViews()
}

// RemainingViewsForAllAds sums the views still owed across all ads.
func (s *Store) RemainingViewsForAllAds() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, ad := range s.ads {
		n += ad.RemainingViews()
	}
	return n
}
