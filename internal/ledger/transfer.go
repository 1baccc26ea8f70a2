package ledger

import (
	"fmt"
	"sync/atomic"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/broker"
	"github.com/ayo6706/transfer-saga/internal/delivery"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/ayo6706/transfer-saga/internal/observability"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tickTokens is shared by all transfers so a rebuilt receiver never reuses the
// token of a timer scheduled by its predecessor.
var tickTokens atomic.Uint64

// transfer drives the two legs of one transfer against the source and target
// accounts. Outbound saga messages are redelivered until acknowledged.
type transfer struct {
	ledger *Ledger
	id     uuid.UUID
	logger *zap.Logger
	self   actor.Ref

	state *domain.TransferState
	seq   int64

	// not persisted; lost on restart
	originator actor.Ref
	tracker    *delivery.Tracker
	cancelTick func()
	tick       uint64
}

func newTransfer(l *Ledger, id uuid.UUID) *transfer {
	return &transfer{
		ledger:  l,
		id:      id,
		logger:  l.logger.With(zap.String("entity", domain.EntityTransfer), zap.String("id", id.String())),
		self:    l.system.Select(l.transferPath(id)),
		tracker: delivery.NewTracker(l.settings.RedeliverInterval),
	}
}

func (t *transfer) persistenceID() string {
	return t.id.String()
}

func (t *transfer) Recover(actor.Context) error {
	ctx, cancel := t.ledger.persistContext()
	defer cancel()

	seq, err := t.ledger.store.Recover(ctx, t.persistenceID(), repository.Recovery{
		Snapshot: func(v any) error {
			st, ok := v.(domain.TransferState)
			if !ok {
				return fmt.Errorf("unexpected transfer snapshot %T", v)
			}
			t.state = &st
			return nil
		},
		Event: func(v any) error {
			ev, ok := v.(domain.TransferEvent)
			if !ok {
				return fmt.Errorf("unexpected transfer event %T", v)
			}
			next, err := ev.Apply(t.state)
			if err != nil {
				return err
			}
			t.state = next
			return nil
		},
	})
	if err != nil {
		return err
	}
	t.seq = seq

	if t.state != nil && t.state.Deliveries.Len() > 0 {
		t.logger.Info("resuming unconfirmed deliveries", zap.Int("pending", t.state.Deliveries.Len()))
		t.redeliver()
	}
	return nil
}

func (t *transfer) Receive(ctx actor.Context, msg any) error {
	switch m := msg.(type) {
	case domain.TransferReadyCheck:
		if t.state == nil {
			ctx.Reply(domain.TransferReadyToStart{TransferID: t.id})
			return nil
		}
		ctx.Reply(domain.TransferHasAlreadyStarted{TransferID: t.id})

	case domain.RetrieveTransferCommand:
		if t.state == nil {
			ctx.Reply(domain.TransferNotFoundResponse{ID: t.id})
			return nil
		}
		ctx.Reply(domain.TransferSnapshotResponse{Transfer: *t.state})

	case domain.MakeTransferCommand:
		if t.state != nil {
			ctx.Reply(domain.TransferHasAlreadyStarted{TransferID: t.id})
			return nil
		}
		t.originator = ctx.Sender
		err := t.persist(domain.TransferStarted{
			ID:              t.id,
			SourceAccountID: m.SourceAccountID,
			TargetAccountID: m.TargetAccountID,
			Amount:          m.Amount,
		})
		if err != nil {
			return err
		}
		t.logger.Info("transfer started",
			zap.String("source_account_id", m.SourceAccountID.String()),
			zap.String("target_account_id", m.TargetAccountID.String()),
			zap.String("amount", m.Amount.String()),
		)

	case domain.MoneyBlockedSuccessfully:
		return t.acknowledge(m, m.DeliveryID, domain.TransferMoneyBlocked{DeliveryID: m.DeliveryID})

	case domain.InsufficientBalanceToBlock:
		return t.acknowledge(m, m.DeliveryID, domain.TransferMoneyBlockFailed{DeliveryID: m.DeliveryID, Status: domain.StatusLowBalance})

	case domain.MoneyDepositedSuccessfully:
		return t.acknowledge(m, m.DeliveryID, domain.TransferMoneyDeposited{DeliveryID: m.DeliveryID})

	case domain.TransferCompletedSuccessfully:
		return t.acknowledge(m, m.DeliveryID, domain.TransferCompleted{DeliveryID: m.DeliveryID})

	case domain.AccountNotFoundForTransfer:
		t.logger.Warn("saga message reached a missing account", zap.String("account_id", m.AccountID.String()))

	case domain.RedeliveryTick:
		if t.cancelTick == nil || m.Token != t.tick {
			t.logger.Debug("stale redelivery tick ignored", zap.Uint64("token", m.Token))
			return nil
		}
		t.cancelTick = nil
		t.redeliver()

	default:
		t.logger.Warn("unhandled message", zap.String("message", fmt.Sprintf("%T", msg)))
	}
	return nil
}

// acknowledge persists ev when deliveryID is still unconfirmed and was issued for
// the message that ack answers. Anything else is a stale duplicate.
func (t *transfer) acknowledge(ack any, deliveryID int64, ev domain.TransferEvent) error {
	if t.state == nil || t.state.Status != domain.StatusInProgress {
		t.logger.Debug("acknowledgment ignored", zap.Int64("delivery_id", deliveryID))
		return nil
	}
	pending, ok := t.state.Deliveries.Lookup(deliveryID)
	if !ok || !answers(ack, pending.Message) {
		t.logger.Debug("acknowledgment for unknown delivery ignored", zap.Int64("delivery_id", deliveryID))
		return nil
	}
	if err := t.persist(ev); err != nil {
		return err
	}
	if t.state.Status.IsTerminal() {
		t.finish()
	}
	return nil
}

func answers(ack, msg any) bool {
	switch ack.(type) {
	case domain.MoneyBlockedSuccessfully, domain.InsufficientBalanceToBlock:
		_, ok := msg.(domain.BlockMoney)
		return ok
	case domain.MoneyDepositedSuccessfully:
		_, ok := msg.(domain.DepositMoney)
		return ok
	case domain.TransferCompletedSuccessfully:
		_, ok := msg.(domain.CompleteTransfer)
		return ok
	}
	return false
}

// persist appends ev, applies it and sends the deliveries it issued.
func (t *transfer) persist(ev domain.TransferEvent) error {
	next, err := ev.Apply(t.state)
	if err != nil {
		return fmt.Errorf("apply %T: %w", ev, err)
	}
	var issuedAfter int64
	if t.state != nil {
		issuedAfter = t.state.Deliveries.CurrentDeliveryID
	}

	ctx, cancel := t.ledger.persistContext()
	defer cancel()

	seq, err := t.ledger.store.Persist(ctx, t.persistenceID(), t.seq, ev)
	observability.IncrementJournalAppend(domain.EntityTransfer, err)
	if err != nil {
		return err
	}
	t.state = next
	t.seq = seq

	if interval := t.ledger.settings.TransferSnapshotInterval; t.seq%interval == 0 {
		err := t.ledger.store.SaveSnapshot(ctx, t.persistenceID(), t.seq, *t.state)
		observability.IncrementSnapshot(err)
		if err != nil {
			t.logger.Error("snapshot failed", zap.Int64("sequence_nr", t.seq), zap.Error(err))
		}
	}

	for _, u := range t.state.Deliveries.Since(issuedAfter) {
		t.send(u, "first")
	}
	t.scheduleTick()
	return nil
}

func (t *transfer) send(u delivery.Unconfirmed, kind string) {
	dest := t.ledger.system.Select(t.ledger.settings.AccountPathPrefix + u.Destination)
	dest.Tell(u.Message, t.self)
	t.tracker.Sent(u.DeliveryID, t.ledger.now())
	observability.IncrementDelivery(kind)
	t.logger.Debug("saga message sent",
		zap.Int64("delivery_id", u.DeliveryID),
		zap.String("message", fmt.Sprintf("%T", u.Message)),
		zap.String("kind", kind),
	)
}

func (t *transfer) redeliver() {
	if t.state == nil {
		return
	}
	for _, u := range t.tracker.Due(t.state.Deliveries, t.ledger.now()) {
		t.send(u, "redelivery")
	}
	t.scheduleTick()
}

func (t *transfer) scheduleTick() {
	if t.cancelTick != nil || t.state == nil || t.state.Deliveries.Len() == 0 {
		return
	}
	t.tick = tickTokens.Add(1)
	t.cancelTick = t.ledger.system.ScheduleOnce(t.tracker.Interval(), t.self, domain.RedeliveryTick{Token: t.tick})
}

func (t *transfer) finish() {
	status := t.state.Status
	t.logger.Info("transfer finished", zap.String("status", string(status)))
	observability.IncrementTransferFinished(string(status))

	if t.originator != nil {
		t.originator.Tell(domain.TransferResponse{Transfer: *t.state}, t.self)
		t.originator = nil
	}
	t.ledger.publisher.PublishOutcome(broker.TransferOutcome{
		TransferID:      t.state.ID,
		SourceAccountID: t.state.SourceAccountID,
		TargetAccountID: t.state.TargetAccountID,
		Amount:          t.state.Amount,
		Status:          string(status),
		OccurredAt:      t.ledger.now().UTC(),
	})
	if t.cancelTick != nil && t.state.Deliveries.Len() == 0 {
		t.cancelTick()
		t.cancelTick = nil
	}
}
