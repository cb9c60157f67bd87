package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fattura-app/fattura/internal/app"
	"github.com/fattura-app/fattura/internal/fees"
	"github.com/fattura-app/fattura/internal/platform/db"
	"github.com/fattura-app/fattura/internal/telegram"
	"github.com/fattura-app/fattura/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	feeService := fees.NewService(fees.NewRepository(pool), logger)
	messenger := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID)
	if !messenger.Enabled() {
		logger.Info("telegram notifications disabled")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFeesGenerate, Handler: jobs.NewFeesGenerateHandler(feeService, logger)},
			{Type: jobs.TaskNotifyTelegram, Handler: jobs.NewNotifyTelegramHandler(messenger, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.FeesGenerateCronSpec, Task: jobs.NewFeesGenerateTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
