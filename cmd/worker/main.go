package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sourcedesk/sourcedesk/internal/app"
	"github.com/sourcedesk/sourcedesk/internal/clients"
	jobmetrics "github.com/sourcedesk/sourcedesk/internal/jobs"
	"github.com/sourcedesk/sourcedesk/internal/mail"
	"github.com/sourcedesk/sourcedesk/internal/platform/cache"
	"github.com/sourcedesk/sourcedesk/internal/platform/db"
	"github.com/sourcedesk/sourcedesk/internal/quotation"
	"github.com/sourcedesk/sourcedesk/internal/settings"
	"github.com/sourcedesk/sourcedesk/jobs"
	"github.com/sourcedesk/sourcedesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
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

	settingsService := settings.NewService(settings.NewRepository(pool), redisClient, cfg.SettingsCacheTTL)
	quotationService := quotation.NewService(quotation.NewRepository(pool), clients.NewRepository(pool), settingsService)

	gotenberg := report.NewClient(cfg.GotenbergURL)
	renderer, err := report.NewQuotationRenderer(gotenberg)
	if err != nil {
		logger.Error("init quotation renderer", slog.Any("error", err))
		os.Exit(1)
	}

	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	handlers := jobs.NewHandlers(logger, quotationService, renderer, mailer, jobmetrics.NewMetrics(nil))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendQuotation, Handler: handlers.HandleSendQuotation},
			{Type: jobs.TaskTypeExpireSweep, Handler: handlers.HandleExpireSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewExpireSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
