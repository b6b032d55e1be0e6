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
	"github.com/joho/godotenv"

	"github.com/campusledger/campusledger/internal/app"
	"github.com/campusledger/campusledger/internal/feehead"
	"github.com/campusledger/campusledger/internal/importer"
	"github.com/campusledger/campusledger/internal/ledger"
	"github.com/campusledger/campusledger/internal/observability"
	"github.com/campusledger/campusledger/internal/platform/cache"
	"github.com/campusledger/campusledger/internal/platform/db"
	"github.com/campusledger/campusledger/internal/registry"
	"github.com/campusledger/campusledger/jobs"
)

// importNotifier bridges commit summaries to the job queue and metrics.
type importNotifier struct {
	client  *jobs.Client
	metrics *observability.Metrics
}

func (n importNotifier) NotifyImport(ctx context.Context, uploadType importer.UploadType, result importer.CommitResult) error {
	n.metrics.ObserveImport(string(uploadType), result.AppliedCount)
	if n.client == nil {
		return nil
	}
	_, err := n.client.EnqueueImportNotify(ctx, jobs.ImportNotifyPayload{
		UploadType:        string(uploadType),
		Applied:           result.AppliedCount,
		Unresolved:        result.UnresolvedCount,
		UnresolvedSample:  result.UnresolvedSample,
		DuplicatesSkipped: result.DuplicatesSkipped,
	})
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, ConnTimeout: cfg.PGConnTimeout})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDialTimeout)
	if err != nil {
		// Statements fall back to uncached computation without Redis.
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	registryRepo := registry.NewRepository(pool)
	resolver := registry.NewResolver(registryRepo)
	registryHandler := registry.NewHandler(logger, registryRepo)

	feeHeadRepo := feehead.NewRepository(pool)
	feeHeadService := feehead.NewService(feeHeadRepo)
	feeHeadHandler := feehead.NewHandler(logger, feeHeadService)

	ledgerRepo := ledger.NewRepository(pool, logger)
	ledgerCache := ledger.NewCache(redisClient, cfg.StatementCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, ledgerCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("init job client", slog.Any("error", err))
	}
	if jobClient != nil {
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
	}

	synchronizer := importer.NewSynchronizer(ledgerRepo, logger)
	importService := importer.NewService(
		logger,
		feeHeadService,
		resolver,
		ledgerRepo,
		synchronizer,
		ledgerService,
		importNotifier{client: jobClient, metrics: metrics},
	)
	importHandler := importer.NewHandler(logger, importService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		FeeHeadHandler:  feeHeadHandler,
		RegistryHandler: registryHandler,
		LedgerHandler:   ledgerHandler,
		ImportHandler:   importHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
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
