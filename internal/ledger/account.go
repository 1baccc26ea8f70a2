package ledger

import (
	"fmt"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/ayo6706/transfer-saga/internal/observability"
	"github.com/ayo6706/transfer-saga/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// account owns one balance. Temporary deposit accounts are built with a positive
// initialBalance and create themselves on recovery.
type account struct {
	ledger         *Ledger
	id             uuid.UUID
	initialBalance decimal.Decimal
	logger         *zap.Logger

	state *domain.AccountState
	seq   int64
}

func newAccount(l *Ledger, id uuid.UUID, initialBalance decimal.Decimal) *account {
	return &account{
		ledger:         l,
		id:             id,
		initialBalance: initialBalance,
		logger:         l.logger.With(zap.String("entity", domain.EntityAccount), zap.String("id", id.String())),
	}
}

func (a *account) persistenceID() string {
	return a.id.String()
}

func (a *account) Recover(actor.Context) error {
	ctx, cancel := a.ledger.persistContext()
	defer cancel()

	seq, err := a.ledger.store.Recover(ctx, a.persistenceID(), repository.Recovery{
		Snapshot: func(v any) error {
			st, ok := v.(domain.AccountState)
			if !ok {
				return fmt.Errorf("unexpected account snapshot %T", v)
			}
			a.state = &st
			return nil
		},
		Event: func(v any) error {
			ev, ok := v.(domain.AccountEvent)
			if !ok {
				return fmt.Errorf("unexpected account event %T", v)
			}
			next, err := ev.Apply(a.state)
			if err != nil {
				return err
			}
			a.state = next
			return nil
		},
	})
	if err != nil {
		return err
	}
	a.seq = seq

	if a.state == nil && a.initialBalance.IsPositive() {
		return a.persist(domain.AccountCreated{
			ID:             a.id,
			Name:           domain.TempAccountName,
			InitialBalance: a.initialBalance,
			Time:           a.ledger.now().UTC(),
		})
	}
	return nil
}

func (a *account) Receive(ctx actor.Context, msg any) error {
	switch m := msg.(type) {
	case domain.CreateAccountCommand:
		if a.state != nil {
			ctx.Reply(domain.AccountAlreadyExistsResponse{ID: a.id})
			return nil
		}
		if err := a.persist(domain.AccountCreated{ID: a.id, Name: m.Name, InitialBalance: decimal.Zero, Time: a.ledger.now().UTC()}); err != nil {
			return err
		}
		a.logger.Info("account created", zap.String("name", m.Name))
		ctx.Reply(domain.AccountCreatedResponse{ID: a.id})

	case domain.RetrieveAccountCommand:
		if a.state == nil {
			ctx.Reply(domain.AccountNotFoundResponse{ID: a.id})
			return nil
		}
		ctx.Reply(domain.AccountSnapshotResponse{Account: *a.state})

	case domain.TransferReadyCheck:
		if a.state == nil {
			ctx.Reply(domain.AccountNotFoundForTransfer{TransferID: m.TransferID, AccountID: a.id})
			return nil
		}
		ctx.Reply(domain.AccountReadyForTransfer{TransferID: m.TransferID, AccountID: a.id})

	case domain.BlockMoney:
		return a.blockMoney(ctx, m)

	case domain.DepositMoney:
		return a.depositMoney(ctx, m)

	case domain.CompleteTransfer:
		return a.completeTransfer(ctx, m)

	default:
		a.logger.Warn("unhandled message", zap.String("message", fmt.Sprintf("%T", msg)))
	}
	return nil
}

func (a *account) blockMoney(ctx actor.Context, m domain.BlockMoney) error {
	if a.state == nil {
		ctx.Reply(domain.AccountNotFoundForTransfer{TransferID: m.TransferID, AccountID: a.id})
		return nil
	}
	if a.state.HasCurrentTransfer(m.TransferID) || a.state.HasWatchedCompletedTransfer(m.TransferID) {
		ctx.Reply(domain.MoneyBlockedSuccessfully{DeliveryID: m.DeliveryID})
		return nil
	}
	if !a.state.HasSufficientBalance(m.Amount) {
		a.logger.Info("insufficient balance to block",
			zap.String("transfer_id", m.TransferID.String()),
			zap.String("amount", m.Amount.String()),
			zap.String("balance", a.state.Balance.String()),
			zap.String("blocked", a.state.BlockedAmount().String()),
		)
		ctx.Reply(domain.InsufficientBalanceToBlock{DeliveryID: m.DeliveryID})
		return nil
	}
	err := a.persist(domain.AccountMoneyBlocked{
		TransferID:      m.TransferID,
		TargetAccountID: m.TargetAccountID,
		Amount:          m.Amount,
		Time:            a.ledger.now().UTC(),
	})
	if err != nil {
		return err
	}
	ctx.Reply(domain.MoneyBlockedSuccessfully{DeliveryID: m.DeliveryID})
	return nil
}

func (a *account) depositMoney(ctx actor.Context, m domain.DepositMoney) error {
	if a.state == nil {
		ctx.Reply(domain.AccountNotFoundForTransfer{TransferID: m.TransferID, AccountID: a.id})
		return nil
	}
	if a.state.HasDeposited(m.TransferID) {
		ctx.Reply(domain.MoneyDepositedSuccessfully{DeliveryID: m.DeliveryID})
		return nil
	}
	err := a.persist(domain.AccountMoneyDeposited{
		TransferID:      m.TransferID,
		SourceAccountID: m.SourceAccountID,
		Amount:          m.Amount,
		Time:            a.ledger.now().UTC(),
	})
	if err != nil {
		return err
	}
	ctx.Reply(domain.MoneyDepositedSuccessfully{DeliveryID: m.DeliveryID})
	return nil
}

func (a *account) completeTransfer(ctx actor.Context, m domain.CompleteTransfer) error {
	if a.state == nil {
		ctx.Reply(domain.AccountNotFoundForTransfer{TransferID: m.TransferID, AccountID: a.id})
		return nil
	}
	if a.state.HasWatchedCompletedTransfer(m.TransferID) {
		ctx.Reply(domain.TransferCompletedSuccessfully{DeliveryID: m.DeliveryID})
		return nil
	}
	if err := a.persist(domain.AccountTransferCompleted{TransferID: m.TransferID, Time: a.ledger.now().UTC()}); err != nil {
		return err
	}
	ctx.Reply(domain.TransferCompletedSuccessfully{DeliveryID: m.DeliveryID})
	return nil
}

// persist appends ev, applies it and snapshots every AccountSnapshotInterval events.
// A journal failure is returned so the runtime rebuilds the account from storage.
func (a *account) persist(ev domain.AccountEvent) error {
	next, err := ev.Apply(a.state)
	if err != nil {
		return fmt.Errorf("apply %T: %w", ev, err)
	}

	ctx, cancel := a.ledger.persistContext()
	defer cancel()

	seq, err := a.ledger.store.Persist(ctx, a.persistenceID(), a.seq, ev)
	observability.IncrementJournalAppend(domain.EntityAccount, err)
	if err != nil {
		return err
	}
	a.state = next
	a.seq = seq

	if interval := a.ledger.settings.AccountSnapshotInterval; a.seq%interval == 0 {
		err := a.ledger.store.SaveSnapshot(ctx, a.persistenceID(), a.seq, *a.state)
		observability.IncrementSnapshot(err)
		if err != nil {
			a.logger.Error("snapshot failed", zap.Int64("sequence_nr", a.seq), zap.Error(err))
		}
	}
	return nil
}
