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

	"github.com/microbooks/microbooks/internal/app"
	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/assignments"
	"github.com/microbooks/microbooks/internal/books/balances"
	"github.com/microbooks/microbooks/internal/books/categories"
	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/reports"
	"github.com/microbooks/microbooks/internal/books/taxes"
	"github.com/microbooks/microbooks/internal/books/transactions"
	"github.com/microbooks/microbooks/internal/observability"
	"github.com/microbooks/microbooks/internal/platform/cache"
	"github.com/microbooks/microbooks/internal/platform/db"
	"github.com/microbooks/microbooks/internal/shared"
	"github.com/microbooks/microbooks/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	typeConfig := config.Default()

	periodService := periods.NewService(periods.NewRepository(dbpool))
	periodHandler := periods.NewHandler(logger, periodService)

	accountRepo := accounts.NewRepository(dbpool)
	accountService := accounts.NewService(accountRepo)
	accountHandler := accounts.NewHandler(logger, accountService)

	categoryService := categories.NewService(categories.NewRepository(dbpool))
	categoryHandler := categories.NewHandler(logger, categoryService)

	taxService := taxes.NewService(taxes.NewRepository(dbpool))
	taxHandler := taxes.NewHandler(logger, taxService)

	transactionRepo := transactions.NewRepository(dbpool)
	transactionService := transactions.NewService(transactionRepo, typeConfig, auditLogger, metrics)
	transactionHandler := transactions.NewHandler(logger, transactionService, idempotencyStore)

	balanceService := balances.NewService(balances.NewRepository(dbpool))
	balanceHandler := balances.NewHandler(logger, balanceService)

	assignmentRepo := assignments.NewRepository(dbpool)
	assignmentService := assignments.NewService(assignmentRepo, typeConfig, auditLogger, metrics)
	assignmentHandler := assignments.NewHandler(logger, assignmentService)

	reportHandler := reports.NewHandler(logger, accountRepo)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		PeriodsHandler:      periodHandler,
		AccountsHandler:     accountHandler,
		CategoriesHandler:   categoryHandler,
		TaxesHandler:        taxHandler,
		TransactionsHandler: transactionHandler,
		BalancesHandler:     balanceHandler,
		AssignmentsHandler:  assignmentHandler,
		ReportsHandler:      reportHandler,
		JobsHandler:         jobHandler,
		Metrics:             metrics,
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
