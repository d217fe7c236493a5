// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/adnet/pkg/adnet"
	"github.com/adxyz/adnet/pkg/adstore"
	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/ledger"
	"github.com/adxyz/adnet/pkg/log"
	"github.com/adxyz/adnet/pkg/metric"
	"github.com/adxyz/adnet/pkg/storage"
)

const envPrefix = "ADNET"

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "adnetd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg struct {
		Server struct {
			HTTPHost        string        `conf:"default:0.0.0.0:8080"`
			MetricsHTTPHost string        `conf:"default:0.0.0.0:9999"`
			ShutdownTimeout time.Duration `conf:"default:5s"`
		}
		Store struct {
			Type string `conf:"default:leveldb"`
			Path string `conf:"default:/var/lib/adnetd/store"`
		}
		Network struct {
			Account      string        `conf:"default:adnet-treasury"`
			Dwell        time.Duration `conf:"default:5s"`
			PasswordHash string        `conf:"optional,noprint"`
		}
		Ledger struct {
			FaucetE8s uint64 `conf:"optional"`
		}
		Log struct {
			Level string `conf:"default:info"`
		}
	}

	if err := conf.Parse(os.Args[1:], envPrefix, &cfg); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(envPrefix, &cfg)
			if err != nil {
				return errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil
		case errors.Is(err, conf.ErrVersionWanted):
			fmt.Printf("adnetd %s (commit %s)\n", Version, GitCommit)
			return nil
		}
		return errors.Wrap(err, "parsing config")
	}

	logger := log.NewWithLevel(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("starting adnetd",
		log.String("version", Version),
		log.String("http", cfg.Server.HTTPHost))

	st, err := storage.NewStorage(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		return errors.Wrap(err, "opening store")
	}

	store, err := adstore.New(st, adstore.Config{
		Dwell:        cfg.Network.Dwell,
		PasswordHash: cfg.Network.PasswordHash,
		Log:          logger,
	})
	if err != nil {
		return errors.Wrap(err, "creating ad store")
	}
	defer store.Close()

	metrics, err := metric.NewMetrics()
	if err != nil {
		return errors.Wrap(err, "registering metrics")
	}

	networkAccount, err := ids.PrincipalFromString(cfg.Network.Account)
	if err != nil {
		return errors.Wrap(err, "parsing network account")
	}

	// Local mode runs against an in-process ledger. Remote ledger
	// transports plug in through the same client interface.
	mem := ledger.NewMemoryLedger()
	network, err := adnet.New(adnet.Config{
		Store:          store,
		UserLedger:     func(p ids.Principal) ledger.Client { return mem.WithCaller(p) },
		NetworkLedger:  mem.WithCaller(networkAccount),
		NetworkAccount: networkAccount,
		Dwell:          cfg.Network.Dwell,
		Metrics:        metrics,
		Log:            logger,
	})
	if err != nil {
		return errors.Wrap(err, "creating network")
	}
	defer network.Close()

	srv := newServer(network, logger, metrics, faucet{ledger: mem, amountE8s: cfg.Ledger.FaucetE8s})

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPHost,
		Handler: srv.routes(),
	}
	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsHTTPHost,
		Handler: promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", log.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "http server")
		}
	}()
	go func() {
		logger.Info("metrics server listening", log.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "metrics server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", log.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "metrics shutdown")
	}
	return nil
}

// faucet mints a starting balance to newly connected principals in local
// mode. Disabled when amountE8s is zero.
type faucet struct {
	ledger    *ledger.MemoryLedger
	amountE8s uint64
}

func (f faucet) fund(p ids.Principal) {
	if f.amountE8s > 0 {
		f.ledger.Mint(p, f.amountE8s)
	}
}
