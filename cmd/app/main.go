// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discord-membership-payments/internal/config"
	"discord-membership-payments/internal/domain/ports/adapter"
	pg "discord-membership-payments/internal/infra/db/postgres"
	dsc "discord-membership-payments/internal/infra/discord"
	"discord-membership-payments/internal/infra/logging"
	"discord-membership-payments/internal/infra/metrics"
	red "discord-membership-payments/internal/infra/redis"
	"discord-membership-payments/internal/infra/sched"
	stripeinfra "discord-membership-payments/internal/infra/stripe"
	"discord-membership-payments/internal/infra/web"
	"discord-membership-payments/internal/infra/worker"
	"discord-membership-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop chat adapter, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	locker := red.NewLocker(redisClient)
	deduper := red.NewEventDeduper(redisClient, cfg.Redis.EventTTL)

	// ---- Repositories ----
	memberRepo := pg.NewPostgresMembershipRepo(pool)
	accountRepo := pg.NewPostgresAccountRepo(pool)

	// ---- Chat adapter ----
	var chat adapter.ChatPlatform
	var discordAdapter *dsc.Adapter
	if cfg.Discord.Token == "" && cfg.Runtime.Dev {
		logger.Warn().Msg("no discord token; using noop chat adapter")
		chat = dsc.NewNoopAdapter(logger)
	} else {
		discordAdapter, err = dsc.NewAdapter(cfg.Discord.Token, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("discord adapter")
		}
		if err := discordAdapter.Open(); err != nil {
			logger.Fatal().Err(err).Msg("discord gateway")
		}
		defer discordAdapter.Close()
		chat = discordAdapter
	}

	// ---- Payment gateway ----
	gateway := stripeinfra.NewGateway(cfg.Stripe.SecretKey)
	normalizer := stripeinfra.NewNormalizer(cfg.Stripe.WebhookSecret, logger)

	// ---- Use cases ----
	pool4 := worker.NewPool(4, logger)
	// Effects outlive the run context so a shutdown drains the queue instead
	// of cancelling it mid-flight.
	pool4.Start(context.Background())

	dashboardUC := usecase.NewDashboardUseCase(memberRepo, accountRepo, chat, cfg, logger)
	dispatcher := usecase.NewEffectDispatcher(chat, dashboardUC, cfg, pool4, logger)
	reconcileUC := usecase.NewReconcileUseCase(memberRepo, accountRepo, locker, deduper, dispatcher, cfg.Fees.PlatformBps, cfg.Redis.LockTTL, logger)
	checkoutUC := usecase.NewCheckoutUseCase(gateway, accountRepo, cfg, logger)
	connectUC := usecase.NewConnectUseCase(gateway, accountRepo, cfg, logger)
	statsUC := usecase.NewStatsUseCase(memberRepo)

	// ---- HTTP server ----
	srv := web.NewServer(normalizer, reconcileUC, checkoutUC, connectUC, statsUC, cfg.Server.AdminAPIKey, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Membership auditor ----
	auditor := sched.NewMembershipAuditor(memberRepo, accountRepo, chat, dashboardUC, cfg.Tiers, cfg.Auditor.Interval, logger)
	go auditor.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// Drain queued side effects before dropping connections.
	pool4.Stop()
}
