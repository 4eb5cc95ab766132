// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/abiahub/abiahub-gateway/internal/api"
	"github.com/abiahub/abiahub-gateway/internal/at"
	"github.com/abiahub/abiahub-gateway/internal/config"
	"github.com/abiahub/abiahub-gateway/internal/health"
	hublog "github.com/abiahub/abiahub-gateway/internal/log"
	"github.com/abiahub/abiahub-gateway/internal/notify"
	"github.com/abiahub/abiahub-gateway/internal/reports"
	"github.com/abiahub/abiahub-gateway/internal/session"
	"github.com/abiahub/abiahub-gateway/internal/ussd"
)

var (
	version   = "v1.2.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	// Safe defaults until config is loaded.
	hublog.Configure(hublog.Config{Level: "info", Version: version})
	logger := hublog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	hublog.Configure(hublog.Config{Level: cfg.LogLevel, Version: version})

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting abiahub-gateway")

	logger.Info().Msgf("→ AT gateway: %s (user: %s)", cfg.ATBaseURL, cfg.ATUsername)
	logger.Info().Msgf("→ Redis: %s (db %d, session ttl %s)", cfg.RedisAddr, cfg.RedisDB, cfg.SessionTTL)
	logger.Info().Msgf("→ Reports DB: %s", cfg.DBPath)
	if cfg.ATAPIKey == "" {
		logger.Warn().Msg("→ AT API key: NOT configured, outbound SMS will be rejected by the gateway")
	}

	sessions, err := session.NewRedisStore(session.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.SessionTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("session store unavailable")
	}
	defer func() { _ = sessions.Close() }()

	store, err := reports.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("report store unavailable")
	}
	defer func() { _ = store.Close() }()

	smsClient := at.New(at.Config{
		BaseURL:  cfg.ATBaseURL,
		Username: cfg.ATUsername,
		APIKey:   cfg.ATAPIKey,
		SenderID: cfg.ATSenderID,
	})
	dispatcher := notify.New(smsClient, notify.Config{Officials: cfg.OfficialContacts})
	machine := ussd.NewMachine(sessions, api.NewReportService(store, dispatcher))

	hm := health.NewManager(version)
	hm.Register(health.Checker{Name: "sessions", Probe: sessions.Ping})
	hm.Register(health.Checker{Name: "reports", Probe: store.Ping})

	server := api.New(api.Deps{
		Config:   cfg,
		Machine:  machine,
		Reports:  store,
		Notifier: dispatcher,
		SMS:      smsClient,
		Health:   hm,
	})

	apiSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("api listening")
		if err := apiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api shutdown failed")
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("daemon failed")
	}
	logger.Info().Msg("server exiting")
}
