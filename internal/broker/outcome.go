// Package broker announces terminal transfer outcomes to other systems.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	RoutingKeyCompleted  = "transfer.completed"
	RoutingKeyLowBalance = "transfer.low_balance"
)

// TransferOutcome is the message published when a transfer finishes.
type TransferOutcome struct {
	TransferID      uuid.UUID       `json:"transfer_id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func (o TransferOutcome) RoutingKey() string {
	if o.Status == "low_balance" {
		return RoutingKeyLowBalance
	}
	return RoutingKeyCompleted
}

// Publisher accepts outcomes without blocking the caller.
type Publisher interface {
	PublishOutcome(o TransferOutcome)
	Close()
}

// NoopPublisher drops outcomes. It is used when no broker is configured.
type NoopPublisher struct {
	Logger *zap.Logger
}

func (p NoopPublisher) PublishOutcome(o TransferOutcome) {
	if p.Logger != nil {
		p.Logger.Debug("outcome publish skipped",
			zap.String("transfer_id", o.TransferID.String()),
			zap.String("status", o.Status),
		)
	}
}

func (NoopPublisher) Close() {}

// AsyncPublisher hands outcomes to a background goroutine that sends them to a Sink.
// When the buffer is full the outcome is dropped and logged.
type AsyncPublisher struct {
	sink     Sink
	exchange string
	timeout  time.Duration
	logger   *zap.Logger

	queue     chan TransferOutcome
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewAsyncPublisher(sink Sink, exchange string, buffer int, logger *zap.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &AsyncPublisher{
		sink:     sink,
		exchange: exchange,
		timeout:  5 * time.Second,
		logger:   logger,
		queue:    make(chan TransferOutcome, buffer),
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

func (p *AsyncPublisher) PublishOutcome(o TransferOutcome) {
	select {
	case p.queue <- o:
	default:
		p.logger.Warn("outcome dropped, publish buffer full",
			zap.String("transfer_id", o.TransferID.String()),
			zap.String("status", o.Status),
		)
	}
}

func (p *AsyncPublisher) loop() {
	defer p.wg.Done()
	for o := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.sink.Publish(ctx, p.exchange, o.RoutingKey(), o)
		cancel()
		if err != nil {
			p.logger.Error("outcome publish failed",
				zap.String("transfer_id", o.TransferID.String()),
				zap.String("routing_key", o.RoutingKey()),
				zap.Error(err),
			)
			continue
		}
		p.logger.Debug("outcome published",
			zap.String("transfer_id", o.TransferID.String()),
			zap.String("routing_key", o.RoutingKey()),
		)
	}
}

// Close flushes queued outcomes and closes the sink. PublishOutcome must not be called afterwards.
func (p *AsyncPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
		p.sink.Close()
	})
}
