// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adnet

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/ledger"
	"github.com/adxyz/adnet/pkg/settlement"
	"github.com/adxyz/adnet/pkg/status"
	"github.com/adxyz/adnet/pkg/ticket"
)

// CreateAdRequest describes a paid ad creation. Two-orientation types
// (Full Page, Banner) require ImagePortrait and ImageLandscape and produce
// two ads; everything else uses Image and produces one.
type CreateAdRequest struct {
	Type           string
	ClickURL       string
	Views          uint64
	Image          string
	ImagePortrait  string
	ImageLandscape string
}

// CreateAdResult reports the ads created by one payment.
type CreateAdResult struct {
	AdIDs   []uint64
	CostE8s uint64
}

// CreateAd pays for and records one or two ads. The transfer settles
// before any ad is created; a transfer failure creates nothing.
func (n *Network) CreateAd(ctx context.Context, req CreateAdRequest) (CreateAdResult, error) {
	caller, client, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return CreateAdResult{}, err
	}

	both := adstore.RequiresBothOrientations(req.Type)
	if both && (req.ImagePortrait == "" || req.ImageLandscape == "") {
		err := errors.Wrap(adstore.ErrInvalidInput, "both portrait and landscape images required")
		n.notifier.Publish(status.KindError, err.Error())
		return CreateAdResult{}, err
	}
	if !both && req.Image == "" {
		err := errors.Wrap(adstore.ErrInvalidInput, "image required")
		n.notifier.Publish(status.KindError, err.Error())
		return CreateAdResult{}, err
	}

	cost := settlement.CostE8s(req.Views, req.Type)
	result := CreateAdResult{CostE8s: cost}

	err = n.orchestratorFor(client).PayAndMutate(ctx, cost, n.networkAccount, func(ctx context.Context) error {
		if both {
			idPortrait, err := n.store.CreateAd(caller, req.ImagePortrait, req.ClickURL, req.Views,
				req.Type+" "+adstore.OrientationPortrait)
			if err != nil {
				return err
			}
			result.AdIDs = append(result.AdIDs, idPortrait)
			idLandscape, err := n.store.CreateAd(caller, req.ImageLandscape, req.ClickURL, req.Views,
				req.Type+" "+adstore.OrientationLandscape)
			if err != nil {
				return err
			}
			result.AdIDs = append(result.AdIDs, idLandscape)
			return nil
		}
		id, err := n.store.CreateAd(caller, req.Image, req.ClickURL, req.Views, req.Type)
		if err != nil {
			return err
		}
		result.AdIDs = append(result.AdIDs, id)
		return nil
	})
	n.countTransfer(cost, err)
	if err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("creating ad: %v", err))
		return result, err
	}

	n.notifier.Publish(status.KindInfo, fmt.Sprintf("created ads %v", result.AdIDs))
	return result, nil
}

// DeleteAd removes an ad the caller owns.
func (n *Network) DeleteAd(ctx context.Context, adID uint64) error {
	caller, _, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return err
	}
	if err := n.store.DeleteAd(caller, adID); err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("deleting ad #%d: %v", adID, err))
		return err
	}
	n.notifier.Publish(status.KindInfo, fmt.Sprintf("ad #%d deleted", adID))
	return nil
}

// TopUpViews pays for and records additional purchased views on an ad the
// caller owns. Top-up is billed at the single unit price: the ad being
// topped up is one record even when it belongs to a two-orientation pair.
func (n *Network) TopUpViews(ctx context.Context, adID uint64, extra uint64) error {
	caller, client, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return err
	}

	cost := ledger.E8sFromDecimal(decimal.NewFromInt(int64(extra)).Mul(settlement.UnitPrice))
	err = n.orchestratorFor(client).PayAndMutate(ctx, cost, n.networkAccount, func(ctx context.Context) error {
		return n.store.PurchaseViews(caller, adID, extra)
	})
	n.countTransfer(cost, err)
	if err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("topping up ad #%d: %v", adID, err))
		return err
	}

	n.notifier.Publish(status.KindInfo, fmt.Sprintf("ad #%d topped up with %d views", adID, extra))
	return nil
}

// RegisterProject records a publisher project. Registration is free but
// runs through the same sequencing path as paid mutations.
func (n *Network) RegisterProject(ctx context.Context, id, contact string) error {
	caller, client, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return err
	}

	err = n.orchestratorFor(client).PayAndMutate(ctx, 0, n.networkAccount, func(ctx context.Context) error {
		return n.store.RegisterProject(caller, id, contact)
	})
	if err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("registering project %q: %v", id, err))
		return err
	}

	n.notifier.Publish(status.KindInfo, fmt.Sprintf("project %q registered", id))
	return nil
}

// CashOutProject converts a project's accrued views into a token credit
// and resets the count. The views cashed are returned; zero is valid and
// repeatable.
func (n *Network) CashOutProject(ctx context.Context, projectID string) (uint64, error) {
	caller, _, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return 0, err
	}

	views, err := n.store.CashOutProject(caller, projectID)
	if err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("cashing out %q: %v", projectID, err))
		return 0, err
	}
	if views == 0 {
		n.notifier.Publish(status.KindInfo, fmt.Sprintf("project %q has no views to cash out", projectID))
		return 0, nil
	}

	if err := n.payOut(ctx, caller, views); err != nil {
		return views, err
	}
	n.notifier.Publish(status.KindInfo,
		fmt.Sprintf("cashed out %d views for project %q", views, projectID))
	return views, nil
}

// CashOutAllProjects cashes out every project the caller owns.
func (n *Network) CashOutAllProjects(ctx context.Context) (uint64, error) {
	caller, _, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return 0, err
	}

	views, err := n.store.CashOutAllProjects(caller)
	if err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("cashing out all projects: %v", err))
		return views, err
	}
	if views == 0 {
		n.notifier.Publish(status.KindInfo, "no views to cash out")
		return 0, nil
	}

	if err := n.payOut(ctx, caller, views); err != nil {
		return views, err
	}
	n.notifier.Publish(status.KindInfo, fmt.Sprintf("cashed out %d views across all projects", views))
	return views, nil
}

// payOut credits cashed views from the network account. The store reset
// has already happened; a failed credit is an inconsistency reported for
// reconciliation, mirroring the post-transfer mutation gap.
func (n *Network) payOut(ctx context.Context, to ids.Principal, views uint64) error {
	if n.networkLedger == nil {
		// Payouts are settled externally.
		return nil
	}
	amount := settlement.PayoutE8s(views)
	if _, err := n.networkLedger.Transfer(ctx, ledger.TransferArgs{To: to, AmountE8s: amount}); err != nil {
		if n.metrics != nil {
			n.metrics.Inconsistencies.Inc()
		}
		n.notifier.Publish(status.KindError,
			fmt.Sprintf("views reset but credit failed, reconcile manually: %v", err))
		return errors.Wrap(err, "crediting cash-out")
	}
	if n.metrics != nil {
		n.metrics.ViewsCashedOut.Add(float64(views))
	}
	return nil
}

// NextAd dispatches the next eligible ad for a project and schedules its
// view for crediting after the dwell interval. The comma-ok result is
// false when no eligible ad exists.
func (n *Network) NextAd(ctx context.Context, projectID, typeFilter string) (*ticket.Placement, bool, error) {
	placement, ok, err := n.dispatcher.Dispatch(ctx, projectID, typeFilter)
	if n.metrics != nil {
		if ok {
			n.metrics.Dispatches.Inc()
		} else if err == nil {
			n.metrics.EmptyDispatches.Inc()
		}
	}
	return placement, ok, err
}

// CancelView cancels the pending redemption for a project, if any.
func (n *Network) CancelView(projectID string) {
	n.dispatcher.Cancel(projectID)
}

// Transfer moves tokens from the caller to another principal. The amount
// is in display units.
func (n *Network) Transfer(ctx context.Context, to ids.Principal, amount decimal.Decimal) (ledger.BlockIndex, error) {
	_, client, err := n.caller()
	if err != nil {
		n.notifier.Publish(status.KindError, err.Error())
		return 0, err
	}

	block, err := client.Transfer(ctx, ledger.TransferArgs{
		To:        to,
		AmountE8s: ledger.E8sFromDecimal(amount),
	})
	if err != nil {
		n.notifier.Publish(status.KindError, fmt.Sprintf("transfer failed: %v", err))
		return 0, err
	}
	n.notifier.Publish(status.KindTransfer, fmt.Sprintf("transfer settled at block %d", block))
	return block, nil
}

// Balance returns the caller's ledger balance in display units.
func (n *Network) Balance(ctx context.Context) (decimal.Decimal, error) {
	caller, client, err := n.caller()
	if err != nil {
		return decimal.Zero, err
	}
	e8s, err := client.BalanceOf(ctx, caller)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.DecimalFromE8s(e8s), nil
}

// TrackingData aggregates network-wide counters for the front end.
type TrackingData struct {
	TotalActiveAds        uint64 `json:"totalActiveAds"`
	TotalViewsAllProjects uint64 `json:"totalViewsAllProjects"`
	RemainingViewsAllAds  uint64 `json:"remainingViewsAllAds"`
}

// Tracking returns network-wide aggregate counters.
func (n *Network) Tracking() TrackingData {
	return TrackingData{
		TotalActiveAds:        n.store.TotalActiveAds(),
		TotalViewsAllProjects: n.store.TotalViewsForAllProjects(),
		RemainingViewsAllAds:  n.store.RemainingViewsForAllAds(),
	}
}

// MyAds lists the caller's ads without image payloads.
func (n *Network) MyAds() ([]adstore.AdLite, error) {
	caller, _, err := n.caller()
	if err != nil {
		return nil, err
	}
	return n.store.MyAdsLite(caller), nil
}

// VerifyPassword checks the beta-access password.
func (n *Network) VerifyPassword(pw string) bool {
	return n.store.VerifyPassword(pw)
}
