// Package ledger holds the three entities of the transfer saga: accounts,
// transfers and the account manager that admits transfers.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/broker"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settings tunes entity behavior.
type Settings struct {
	AccountPathPrefix  string
	TransferPathPrefix string
	ManagerPath        string

	AccountSnapshotInterval  int64
	TransferSnapshotInterval int64

	AdmissionTimeout  time.Duration
	RedeliverInterval time.Duration
	PersistTimeout    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		AccountPathPrefix:        "/user/accounts/",
		TransferPathPrefix:       "/user/transfers/",
		ManagerPath:              "/user/manager",
		AccountSnapshotInterval:  100,
		TransferSnapshotInterval: 100,
		AdmissionTimeout:         time.Second,
		RedeliverInterval:        200 * time.Millisecond,
		PersistTimeout:           5 * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.AccountPathPrefix == "" {
		s.AccountPathPrefix = d.AccountPathPrefix
	}
	if s.TransferPathPrefix == "" {
		s.TransferPathPrefix = d.TransferPathPrefix
	}
	if s.ManagerPath == "" {
		s.ManagerPath = d.ManagerPath
	}
	if s.AccountSnapshotInterval <= 0 {
		s.AccountSnapshotInterval = d.AccountSnapshotInterval
	}
	if s.TransferSnapshotInterval <= 0 {
		s.TransferSnapshotInterval = d.TransferSnapshotInterval
	}
	if s.AdmissionTimeout <= 0 {
		s.AdmissionTimeout = d.AdmissionTimeout
	}
	if s.RedeliverInterval <= 0 {
		s.RedeliverInterval = d.RedeliverInterval
	}
	if s.PersistTimeout <= 0 {
		s.PersistTimeout = d.PersistTimeout
	}
	return s
}

// Ledger wires the entities into an actor system.
type Ledger struct {
	system    *actor.System
	store     *repository.EventStore
	publisher broker.Publisher
	settings  Settings
	logger    *zap.Logger
	now       func() time.Time

	manager actor.Ref
}

// Start registers the entity path prefixes and spawns the account manager.
func Start(system *actor.System, store *repository.EventStore, publisher broker.Publisher, settings Settings) (*Ledger, error) {
	if publisher == nil {
		publisher = broker.NoopPublisher{Logger: system.Logger()}
	}
	l := &Ledger{
		system:    system,
		store:     store,
		publisher: publisher,
		settings:  settings.withDefaults(),
		logger:    system.Logger(),
		now:       time.Now,
	}

	system.HandlePrefix(l.settings.AccountPathPrefix, func(name string) actor.Factory {
		id, err := uuid.Parse(name)
		if err != nil {
			return nil
		}
		return l.accountFactory(id, decimal.Zero)
	})
	system.HandlePrefix(l.settings.TransferPathPrefix, func(name string) actor.Factory {
		id, err := uuid.Parse(name)
		if err != nil {
			return nil
		}
		return l.transferFactory(id)
	})

	manager, err := system.Spawn(l.settings.ManagerPath, func() actor.Receiver { return newManager(l) })
	if err != nil {
		return nil, fmt.Errorf("spawn account manager: %w", err)
	}
	l.manager = manager
	return l, nil
}

// Manager is the entry point for every command.
func (l *Ledger) Manager() actor.Ref {
	return l.manager
}

// Ready reports whether the journal is reachable.
func (l *Ledger) Ready(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *Ledger) accountPath(id uuid.UUID) string {
	return l.settings.AccountPathPrefix + id.String()
}

func (l *Ledger) transferPath(id uuid.UUID) string {
	return l.settings.TransferPathPrefix + id.String()
}

func (l *Ledger) accountFactory(id uuid.UUID, initialBalance decimal.Decimal) actor.Factory {
	return func() actor.Receiver { return newAccount(l, id, initialBalance) }
}

func (l *Ledger) transferFactory(id uuid.UUID) actor.Factory {
	return func() actor.Receiver { return newTransfer(l, id) }
}

// persistContext bounds one journal or snapshot call.
func (l *Ledger) persistContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), l.settings.PersistTimeout)
}
