package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/transfer-saga/internal/api/handler"
	"github.com/ayo6706/transfer-saga/internal/broker"
	"github.com/ayo6706/transfer-saga/internal/config"
	"github.com/ayo6706/transfer-saga/internal/db"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// backends holds the persistence and messaging modules chosen in modules.enabled.
type backends struct {
	journal   repository.Journal
	snapshots repository.SnapshotStore
	publisher broker.Publisher
	checks    []handler.Check
	closers   []func()
}

// Close releases backends in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	switch {
	case cfg.Enabled(config.ModuleJournalPostgres):
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		store := repository.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		b.journal = store
		b.checks = append(b.checks, handler.Check{Name: "journal", Pinger: store})
	case cfg.Enabled(config.ModuleJournalFile):
		journal, err := repository.NewFileJournal(cfg.JournalDir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		b.journal = journal
		b.checks = append(b.checks, handler.Check{Name: "journal", Pinger: journal})
	default:
		b.journal = repository.NewMemoryJournal()
	}

	switch {
	case cfg.Enabled(config.ModuleSnapshotRedis):
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		store := repository.NewRedisSnapshotStore(client)
		b.snapshots = store
		b.checks = append(b.checks, handler.Check{Name: "snapshot store", Pinger: store})
	case cfg.Enabled(config.ModuleSnapshotFile):
		store, err := repository.NewFileSnapshotStore(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		b.snapshots = store
	default:
		b.snapshots = repository.NewMemorySnapshotStore()
	}

	if cfg.Enabled(config.ModuleEventsRabbitMQ) {
		producer, err := broker.NewEventProducer(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		b.publisher = broker.NewAsyncPublisher(producer, cfg.RabbitMQExchange, 1024, logger)
	} else {
		b.publisher = broker.NoopPublisher{Logger: logger}
	}
	b.closers = append(b.closers, b.publisher.Close)

	return b, nil
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
