package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/api"
	"github.com/ayo6706/transfer-saga/internal/api/handler"
	"github.com/ayo6706/transfer-saga/internal/codec"
	"github.com/ayo6706/transfer-saga/internal/config"
	"github.com/ayo6706/transfer-saga/internal/ledger"
	"github.com/ayo6706/transfer-saga/internal/observability"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/ayo6706/transfer-saga/internal/service"
	"github.com/ayo6706/transfer-saga/internal/worker"
	"go.uber.org/zap"
)

// Run bootstraps the ledger and the HTTP server, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	if cfg.Enabled(config.ModuleMetrics) {
		observability.Init()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	system := actor.NewSystem(logger)
	defer system.Shutdown()

	store := repository.NewEventStore(b.journal, b.snapshots, codec.Default)
	l, err := ledger.Start(system, store, b.publisher, ledgerSettings(cfg))
	if err != nil {
		return fmt.Errorf("start ledger: %w", err)
	}
	logger.Info("ledger started", zap.Strings("modules", cfg.Modules))

	stopWorker := func() {}
	if cfg.Enabled(config.ModuleReconciliation) {
		reconcileSvc := service.NewReconciliationService(l.Manager(), cfg.Timeouts.AccountRetrieve)
		stopWorker = worker.NewReconciliationWorker(reconcileSvc).WithInterval(cfg.ReconciliationInterval).Run(ctx)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(cfg, logger, l, b.checks).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Addr()))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	logger.Info("shutdown complete")
	return nil
}

func newRouter(cfg *config.Config, logger *zap.Logger, l *ledger.Ledger, checks []handler.Check) *api.Router {
	timeouts := service.Timeouts{
		CreateAccount:    cfg.Timeouts.AccountCreate,
		RetrieveAccount:  cfg.Timeouts.AccountRetrieve,
		DepositMoney:     cfg.Timeouts.AccountDeposit,
		MakeTransfer:     cfg.Timeouts.TransferMake,
		RetrieveTransfer: cfg.Timeouts.TransferRetrieve,
	}
	router := api.NewRouter(
		logger,
		service.NewAccountService(l.Manager(), timeouts),
		service.NewTransferService(l.Manager(), timeouts),
		handler.NewHealthHandler(checks...),
	)
	if cfg.Enabled(config.ModuleMetrics) {
		router.WithMetrics()
	}
	if cfg.Enabled(config.ModuleDocs) {
		router.WithDocs()
	}
	if cfg.Enabled(config.ModuleRateLimit) {
		router.WithRateLimit(cfg.RateLimitRPS)
	}
	return router
}

func ledgerSettings(cfg *config.Config) ledger.Settings {
	s := ledger.DefaultSettings()
	s.AccountPathPrefix = cfg.AccountPathPrefix
	s.AccountSnapshotInterval = cfg.AccountSnapshotInterval
	s.TransferSnapshotInterval = cfg.TransferSnapshotInterval
	s.AdmissionTimeout = cfg.AdmissionTimeout
	s.RedeliverInterval = cfg.RedeliverInterval
	return s
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
