package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/broker"
	"github.com/ayo6706/transfer-saga/internal/codec"
	"github.com/ayo6706/transfer-saga/internal/config"
	"github.com/ayo6706/transfer-saga/internal/ledger"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, modules ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServerPort:               "0",
		Timeouts:                 config.Timeouts{AccountCreate: time.Second, AccountRetrieve: time.Second, AccountDeposit: time.Second, TransferMake: time.Second, TransferRetrieve: time.Second},
		AccountSnapshotInterval:  2,
		TransferSnapshotInterval: 2,
		AccountPathPrefix:        "/user/accounts/",
		AdmissionTimeout:         time.Second,
		RedeliverInterval:        20 * time.Millisecond,
		Modules:                  modules,
		JournalDir:               filepath.Join(dir, "journal"),
		SnapshotDir:              filepath.Join(dir, "snapshots"),
		RateLimitRPS:             100,
	}
}

func TestOpenBackends_MemoryFallback(t *testing.T) {
	b, err := openBackends(context.Background(), testConfig(t, config.ModuleJournalMemory), zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &repository.MemoryJournal{}, b.journal)
	assert.IsType(t, &repository.MemorySnapshotStore{}, b.snapshots)
	assert.IsType(t, broker.NoopPublisher{}, b.publisher)
	assert.Empty(t, b.checks)
}

func TestOpenBackends_FileModules(t *testing.T) {
	cfg := testConfig(t, config.ModuleJournalFile, config.ModuleSnapshotFile)
	b, err := openBackends(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &repository.FileJournal{}, b.journal)
	assert.IsType(t, &repository.FileSnapshotStore{}, b.snapshots)
	require.Len(t, b.checks, 1)
	assert.Equal(t, "journal", b.checks[0].Name)
}

func TestLedgerSettings(t *testing.T) {
	cfg := testConfig(t, config.ModuleJournalMemory)
	cfg.AccountPathPrefix = "/bank/accounts/"
	s := ledgerSettings(cfg)
	assert.Equal(t, "/bank/accounts/", s.AccountPathPrefix)
	assert.Equal(t, int64(2), s.AccountSnapshotInterval)
	assert.Equal(t, 20*time.Millisecond, s.RedeliverInterval)
	assert.Equal(t, ledger.DefaultSettings().TransferPathPrefix, s.TransferPathPrefix)
}

func TestNewRouter_FileBackedLedgerServesRequests(t *testing.T) {
	cfg := testConfig(t, config.ModuleJournalFile, config.ModuleSnapshotFile, config.ModuleDocs)
	b, err := openBackends(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	system := actor.NewSystem(zap.NewNop())
	defer system.Shutdown()
	l, err := ledger.Start(system, repository.NewEventStore(b.journal, b.snapshots, codec.Default), b.publisher, ledgerSettings(cfg))
	require.NoError(t, err)

	router := newRouter(cfg, zap.NewNop(), l, b.checks).Routes()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
}
