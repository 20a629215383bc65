package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sourcedesk/sourcedesk/internal/app"
	"github.com/sourcedesk/sourcedesk/internal/auth"
	"github.com/sourcedesk/sourcedesk/internal/clients"
	"github.com/sourcedesk/sourcedesk/internal/observability"
	"github.com/sourcedesk/sourcedesk/internal/platform/cache"
	"github.com/sourcedesk/sourcedesk/internal/platform/db"
	"github.com/sourcedesk/sourcedesk/internal/products"
	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/settings"
	"github.com/sourcedesk/sourcedesk/internal/sharing"
	"github.com/sourcedesk/sourcedesk/jobs"
	"github.com/sourcedesk/sourcedesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	settingsService := settings.NewService(settings.NewRepository(pool), redisClient, cfg.SettingsCacheTTL)
	clientRepo := clients.NewRepository(pool)
	productRepo := products.NewRepository(pool)

	quotationService := quotation.NewService(quotation.NewRepository(pool), clientRepo, settingsService)

	gotenberg := report.NewClient(cfg.GotenbergURL)
	renderer, err := report.NewQuotationRenderer(gotenberg)
	if err != nil {
		logger.Error("parse report templates", slog.Any("error", err))
		os.Exit(1)
	}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	shareIssuer := sharing.NewIssuer(cfg.ShareSecret, cfg.ShareTokenTTL)
	sharingService := sharing.NewService(shareIssuer, quotationService, cfg.PublicBaseURL)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         auth.NewVerifier(cfg.IdentitySecret, logger),
		QuotationHandler: quotation.NewHandler(logger, quotationService, renderer, jobsClient),
		SettingsHandler:  settings.NewHandler(logger, settingsService),
		ClientsHandler:   clients.NewHandler(logger, clientRepo),
		ProductsHandler:  products.NewHandler(logger, productRepo),
		SharingHandler:   sharing.NewHandler(logger, sharingService),
		Pool:             pool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
