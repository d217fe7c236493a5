// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adnet

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/ledger"
	"github.com/adxyz/adnet/pkg/session"
)

const (
	treasury   ids.Principal = "adnet-treasury"
	advertiser ids.Principal = "w7x7r-cok77-xa"
	publisher  ids.Principal = "rrkah-fqaaa-aa"

	testDwell = 50 * time.Millisecond
)

func newTestNetwork(t *testing.T) (*Network, *adstore.Store, *ledger.MemoryLedger) {
	t.Helper()

	store, err := adstore.New(nil, adstore.Config{Dwell: testDwell})
	require.NoError(t, err)

	ml := ledger.NewMemoryLedger()
	n, err := New(Config{
		Store:          store,
		UserLedger:     func(p ids.Principal) ledger.Client { return ml.WithCaller(p) },
		NetworkLedger:  ml.WithCaller(treasury),
		NetworkAccount: treasury,
		Dwell:          testDwell,
	})
	require.NoError(t, err)
	t.Cleanup(n.Close)
	return n, store, ml
}

func TestOpsRequireAuthentication(t *testing.T) {
	require := require.New(t)
	n, _, _ := newTestNetwork(t)
	ctx := context.Background()

	_, err := n.CreateAd(ctx, CreateAdRequest{Type: adstore.AdTypeInterstitial, Image: "img", Views: 1})
	require.ErrorIs(err, session.ErrNotAuthenticated)

	err = n.RegisterProject(ctx, "game-1", "c")
	require.ErrorIs(err, session.ErrNotAuthenticated)

	_, err = n.CashOutProject(ctx, "game-1")
	require.ErrorIs(err, session.ErrNotAuthenticated)

	_, err = n.Balance(ctx)
	require.ErrorIs(err, session.ErrNotAuthenticated)

	_, err = n.Transfer(ctx, publisher, decimal.NewFromInt(1))
	require.ErrorIs(err, session.ErrNotAuthenticated)
}

func TestCreateAdDebitsAdvertiser(t *testing.T) {
	require := require.New(t)
	n, store, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))

	result, err := n.CreateAd(ctx, CreateAdRequest{
		Type:     adstore.AdTypeInterstitial,
		ClickURL: "https://example.com",
		Image:    "img",
		Views:    1000,
	})
	require.NoError(err)
	require.Len(result.AdIDs, 1)
	require.Equal(uint64(ledger.E8sPerToken), result.CostE8s) // 1000 views at 0.001

	bal, err := ml.BalanceOf(ctx, advertiser)
	require.NoError(err)
	require.Equal(uint64(9*ledger.E8sPerToken-ledger.DefaultFeeE8s), bal)

	treasuryBal, err := ml.BalanceOf(ctx, treasury)
	require.NoError(err)
	require.Equal(uint64(ledger.E8sPerToken), treasuryBal)

	ad, err := store.AdByID(result.AdIDs[0])
	require.NoError(err)
	require.Equal(advertiser, ad.Advertiser)
	require.Equal(uint64(1000), ad.ViewsPurchased)
}

func TestCreateAdBannerCreatesBothOrientations(t *testing.T) {
	require := require.New(t)
	n, store, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))

	result, err := n.CreateAd(ctx, CreateAdRequest{
		Type:           adstore.AdTypeBanner,
		ClickURL:       "https://example.com",
		ImagePortrait:  "img-p",
		ImageLandscape: "img-l",
		Views:          1000,
	})
	require.NoError(err)
	require.Len(result.AdIDs, 2)
	require.Equal(uint64(2*ledger.E8sPerToken), result.CostE8s)

	portrait, err := store.AdByID(result.AdIDs[0])
	require.NoError(err)
	require.Equal("Banner Portrait", portrait.Type)
	landscape, err := store.AdByID(result.AdIDs[1])
	require.NoError(err)
	require.Equal("Banner Landscape", landscape.Type)
}

func TestCreateAdBannerRequiresBothImages(t *testing.T) {
	require := require.New(t)
	n, _, ml := newTestNetwork(t)

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))

	_, err := n.CreateAd(context.Background(), CreateAdRequest{
		Type:          adstore.AdTypeBanner,
		ImagePortrait: "img-p",
		Views:         10,
	})
	require.ErrorIs(err, adstore.ErrInvalidInput)

	bal, err := ml.BalanceOf(context.Background(), advertiser)
	require.NoError(err)
	require.Equal(uint64(10*ledger.E8sPerToken), bal) // nothing charged
}

func TestCreateAdInsufficientFundsCreatesNothing(t *testing.T) {
	require := require.New(t)
	n, store, _ := newTestNetwork(t)

	require.NoError(n.Connect(session.MethodPlug, advertiser))

	_, err := n.CreateAd(context.Background(), CreateAdRequest{
		Type:  adstore.AdTypeInterstitial,
		Image: "img",
		Views: 1000,
	})

	var terr *ledger.TransferError
	require.ErrorAs(err, &terr)
	require.Equal(ledger.ErrCodeInsufficientFunds, terr.Code)
	require.Zero(store.TotalActiveAds())
}

func TestTopUpViews(t *testing.T) {
	require := require.New(t)
	n, store, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))

	result, err := n.CreateAd(ctx, CreateAdRequest{
		Type:           adstore.AdTypeBanner,
		ImagePortrait:  "img-p",
		ImageLandscape: "img-l",
		Views:          1000,
	})
	require.NoError(err)

	before, err := ml.BalanceOf(ctx, advertiser)
	require.NoError(err)

	// Top-up prices the single record even for a two-orientation ad.
	require.NoError(n.TopUpViews(ctx, result.AdIDs[0], 1000))

	after, err := ml.BalanceOf(ctx, advertiser)
	require.NoError(err)
	require.Equal(before-ledger.E8sPerToken-ledger.DefaultFeeE8s, after)

	ad, err := store.AdByID(result.AdIDs[0])
	require.NoError(err)
	require.Equal(uint64(2000), ad.ViewsPurchased)
}

func TestViewFlowCreditsAndCashesOut(t *testing.T) {
	require := require.New(t)
	n, store, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	ml.Mint(treasury, 10*ledger.E8sPerToken)

	require.NoError(n.Connect(session.MethodPlug, advertiser))
	_, err := n.CreateAd(ctx, CreateAdRequest{
		Type:  adstore.AdTypeInterstitial,
		Image: "img",
		Views: 10,
	})
	require.NoError(err)
	n.Logout()

	require.NoError(n.Connect(session.MethodInternetIdentity, publisher))
	require.NoError(n.RegisterProject(ctx, "game-1", "dev@example.com"))

	placement, ok, err := n.NextAd(ctx, "game-1", "")
	require.NoError(err)
	require.True(ok)
	require.NotNil(placement)

	// The view credits once the dwell interval elapses.
	require.Eventually(func() bool {
		return store.TotalViewsForProject("game-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	views, err := n.CashOutProject(ctx, "game-1")
	require.NoError(err)
	require.Equal(uint64(1), views)

	bal, err := n.Balance(ctx)
	require.NoError(err)
	require.True(bal.Equal(decimal.RequireFromString("0.001")), "got %s", bal)

	// Views reset; a second cash-out is a valid no-op.
	views, err = n.CashOutProject(ctx, "game-1")
	require.NoError(err)
	require.Zero(views)
}

func TestCancelViewPreventsCredit(t *testing.T) {
	require := require.New(t)
	n, store, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))
	_, err := n.CreateAd(ctx, CreateAdRequest{Type: adstore.AdTypeInterstitial, Image: "img", Views: 10})
	require.NoError(err)
	require.NoError(n.RegisterProject(ctx, "game-1", "c"))

	_, ok, err := n.NextAd(ctx, "game-1", "")
	require.NoError(err)
	require.True(ok)

	n.CancelView("game-1")

	time.Sleep(3 * testDwell)
	require.Zero(store.TotalViewsForProject("game-1"))
}

func TestLogoutCancelsPendingRedemptions(t *testing.T) {
	require := require.New(t)
	n, store, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))
	_, err := n.CreateAd(ctx, CreateAdRequest{Type: adstore.AdTypeInterstitial, Image: "img", Views: 10})
	require.NoError(err)
	require.NoError(n.RegisterProject(ctx, "game-1", "c"))

	_, ok, err := n.NextAd(ctx, "game-1", "")
	require.NoError(err)
	require.True(ok)

	// Logging out takes the requesting identity away; its pending view
	// must not credit later.
	n.Logout()

	time.Sleep(3 * testDwell)
	require.Zero(store.TotalViewsForProject("game-1"))
}

func TestNextAdEmpty(t *testing.T) {
	require := require.New(t)
	n, _, _ := newTestNetwork(t)
	ctx := context.Background()

	require.NoError(n.Connect(session.MethodPlug, publisher))
	require.NoError(n.RegisterProject(ctx, "game-1", "c"))

	placement, ok, err := n.NextAd(ctx, "game-1", "")
	require.NoError(err)
	require.False(ok)
	require.Nil(placement)
}

func TestRegisterProjectDuplicate(t *testing.T) {
	require := require.New(t)
	n, _, _ := newTestNetwork(t)
	ctx := context.Background()

	require.NoError(n.Connect(session.MethodPlug, publisher))
	require.NoError(n.RegisterProject(ctx, "game-1", "c"))
	require.ErrorIs(n.RegisterProject(ctx, "game-1", "other"), adstore.ErrAlreadyExists)
}

func TestTransferAndBalance(t *testing.T) {
	require := require.New(t)
	n, _, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))

	block, err := n.Transfer(ctx, publisher, decimal.RequireFromString("0.25"))
	require.NoError(err)
	require.NotZero(block)

	pubBal, err := ml.BalanceOf(ctx, publisher)
	require.NoError(err)
	require.Equal(uint64(25_000_000), pubBal)

	bal, err := n.Balance(ctx)
	require.NoError(err)
	require.True(bal.Equal(decimal.RequireFromString("0.7499")), "got %s", bal)
}

func TestTracking(t *testing.T) {
	require := require.New(t)
	n, _, ml := newTestNetwork(t)
	ctx := context.Background()

	ml.Mint(advertiser, 10*ledger.E8sPerToken)
	require.NoError(n.Connect(session.MethodPlug, advertiser))
	_, err := n.CreateAd(ctx, CreateAdRequest{Type: adstore.AdTypeInterstitial, Image: "img", Views: 7})
	require.NoError(err)

	td := n.Tracking()
	require.Equal(uint64(1), td.TotalActiveAds)
	require.Equal(uint64(7), td.RemainingViewsAllAds)
	require.Zero(td.TotalViewsAllProjects)

	ads, err := n.MyAds()
	require.NoError(err)
	require.Len(ads, 1)
	require.Equal(uint64(7), ads[0].ViewsPurchased)
}
