package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wovenshop/storefront/internal/catalog"
	"github.com/wovenshop/storefront/internal/common"
	"github.com/wovenshop/storefront/internal/config"
	"github.com/wovenshop/storefront/internal/events"
	"github.com/wovenshop/storefront/internal/inventory"
	"github.com/wovenshop/storefront/internal/notify"
	"github.com/wovenshop/storefront/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	catalogRepo := catalog.NewPostgresRepository(pool)
	bus := &events.Bus{Store: events.NewPostgresStore(pool), Logger: &logger}
	notifier := &notify.Notifier{Email: common.NewEmailSender(cfg.SMTPAddr, cfg.SMTPFrom), Stores: catalogRepo, Logger: &logger}
	notifier.Register(bus)

	scanner := &inventory.Scanner{
		Products: catalogRepo,
		Alerts:   inventory.NewPostgresAlertLog(pool),
		Bus:      bus,
		Logger:   &logger,
	}

	scheduler := asynq.NewScheduler(redisConn, nil)
	if _, err := scheduler.Register(cfg.LowStockScanSchedule, inventory.NewLowStockScanTask()); err != nil {
		logger.Fatal().Err(err).Msg("register low stock scan schedule")
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped with error")
		}
	}()

	mux := asynq.NewServeMux()
	mux.HandleFunc(inventory.TaskLowStockScan, scanner.HandleLowStockScanTask)

	srv := asynq.NewServer(redisConn, asynq.Config{Concurrency: 2})

	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	logger.Info().Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "storefront-worker"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}
