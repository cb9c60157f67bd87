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

	"github.com/fattura-app/fattura/internal/app"
	"github.com/fattura-app/fattura/internal/bank"
	"github.com/fattura-app/fattura/internal/billing"
	"github.com/fattura-app/fattura/internal/calendar"
	"github.com/fattura-app/fattura/internal/clients"
	"github.com/fattura-app/fattura/internal/dashboard"
	"github.com/fattura-app/fattura/internal/expenses"
	"github.com/fattura-app/fattura/internal/fees"
	"github.com/fattura-app/fattura/internal/platform/cache"
	"github.com/fattura-app/fattura/internal/platform/db"
	"github.com/fattura-app/fattura/internal/templates"
	"github.com/fattura-app/fattura/internal/todos"
	"github.com/fattura-app/fattura/jobs"
	"github.com/fattura-app/fattura/report"
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

	bankRepo := bank.NewRepository(pool)
	if err := bankRepo.EnsureSeeded(ctx); err != nil {
		logger.Error("seed bank profile", slog.Any("error", err))
		os.Exit(1)
	}
	bankHandler := bank.NewHandler(logger, bankRepo)

	clientRepo := clients.NewRepository(pool)
	clientService := clients.NewService(clientRepo)
	clientHandler := clients.NewHandler(logger, clientService)

	templateFiles := templates.NewDiskStore(cfg.TemplateDir)
	templateRepo := templates.NewRepository(pool)
	templateService := templates.NewService(templateRepo, templateFiles)
	templateHandler := templates.NewHandler(logger, templateService)

	artifacts, err := billing.NewDiskArtifacts(cfg.DataDir)
	if err != nil {
		logger.Error("init artifact store", slog.Any("error", err))
		os.Exit(1)
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	if err := reportClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg unreachable", slog.Any("error", err))
	}

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	billingRepo := billing.NewRepository(pool)
	billingService := billing.NewService(billing.Params{
		Repo:          billingRepo,
		Clients:       clientRepo,
		Templates:     templateRepo,
		Bank:          bankRepo,
		TemplateFiles: templateFiles,
		Artifacts:     artifacts,
		PDF:           reportClient,
		Notifier:      jobClient,
		Logger:        logger,
		HomeCountry:   cfg.HomeCountry,
	})
	invoiceHandler := billing.NewHandler(logger, billingService)

	feeRepo := fees.NewRepository(pool)
	feeService := fees.NewService(feeRepo, logger)
	feeHandler := fees.NewHandler(logger, feeService)

	expenseRepo := expenses.NewRepository(pool)
	expenseService := expenses.NewService(expenseRepo, cfg.Partner1Name, cfg.Partner2Name)
	expenseHandler := expenses.NewHandler(logger, expenseService)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, expenseService, dashboardCache, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	todoHandler := todos.NewHandler(logger, todos.NewRepository(pool))
	calendarHandler := calendar.NewHandler(logger, calendar.NewRepository(pool))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{Logger: logger, Config: cfg}),
		Stats:      dashboardService,
		Clients:    clientHandler,
		Templates:  templateHandler,
		Bank:       bankHandler,
		Invoices:   invoiceHandler,
		Fees:       feeHandler,
		Expenses:   expenseHandler,
		Dashboard:  dashboardHandler,
		Todos:      todoHandler,
		Calendar:   calendarHandler,
		Jobs:       jobHandler,
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
