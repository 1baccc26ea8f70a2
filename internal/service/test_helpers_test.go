package service

import (
	"testing"
	"time"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/codec"
	"github.com/ayo6706/transfer-saga/internal/ledger"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupLedger starts an in-memory ledger and returns its manager.
func setupLedger(t *testing.T) actor.Ref {
	t.Helper()

	system := actor.NewSystem(zap.NewNop())
	t.Cleanup(system.Shutdown)

	store := repository.NewEventStore(repository.NewMemoryJournal(), repository.NewMemorySnapshotStore(), codec.Default)
	settings := ledger.DefaultSettings()
	settings.RedeliverInterval = 20 * time.Millisecond
	l, err := ledger.Start(system, store, nil, settings)
	require.NoError(t, err)
	return l.Manager()
}

// stubManager answers every message with whatever reply returns. A nil reply is never sent.
type stubManager struct {
	reply func(msg any) any
}

func (s stubManager) Path() string { return "/user/stub" }

func (s stubManager) Tell(msg any, sender actor.Ref) {
	r := s.reply(msg)
	if r != nil && sender != nil {
		sender.Tell(r, s)
	}
}

func shortTimeouts() Timeouts {
	return Timeouts{
		CreateAccount:    50 * time.Millisecond,
		RetrieveAccount:  50 * time.Millisecond,
		DepositMoney:     50 * time.Millisecond,
		MakeTransfer:     50 * time.Millisecond,
		RetrieveTransfer: 50 * time.Millisecond,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
