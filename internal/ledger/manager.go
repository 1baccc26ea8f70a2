package ledger

import (
	"fmt"
	"strings"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/ayo6706/transfer-saga/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pendingTransferRequest is a transfer in the readiness handshake.
type pendingTransferRequest struct {
	command    domain.MakeTransferCommand
	originator actor.Ref
	transfer   actor.Ref
	ready      map[uuid.UUID]bool
	cancel     func()
	// set for deposits: the source is a temporary account that nothing else references
	tempSource bool
}

func (p *pendingTransferRequest) allReady() bool {
	for _, ok := range p.ready {
		if !ok {
			return false
		}
	}
	return true
}

// manager routes commands to entities and admits each transfer id once.
type manager struct {
	ledger  *Ledger
	logger  *zap.Logger
	pending map[uuid.UUID]*pendingTransferRequest
}

func newManager(l *Ledger) *manager {
	return &manager{
		ledger:  l,
		logger:  l.logger.With(zap.String("entity", domain.EntityManager)),
		pending: make(map[uuid.UUID]*pendingTransferRequest),
	}
}

func (m *manager) account(id uuid.UUID) actor.Ref {
	return m.ledger.system.GetOrSpawn(m.ledger.accountPath(id), m.ledger.accountFactory(id, decimal.Zero))
}

func (m *manager) transfer(id uuid.UUID) actor.Ref {
	return m.ledger.system.GetOrSpawn(m.ledger.transferPath(id), m.ledger.transferFactory(id))
}

func (m *manager) Receive(ctx actor.Context, msg any) error {
	switch cmd := msg.(type) {
	case domain.CreateAccountCommand:
		m.forward(m.account(cmd.ID), cmd, ctx.Sender)
	case domain.RetrieveAccountCommand:
		m.forward(m.account(cmd.ID), cmd, ctx.Sender)
	case domain.RetrieveTransferCommand:
		m.forward(m.transfer(cmd.ID), cmd, ctx.Sender)
	case domain.MakeTransferCommand:
		m.admit(ctx, cmd)
	case domain.DepositMoneyCommand:
		m.deposit(ctx, cmd)
	case domain.ListAccountsCommand:
		ctx.Reply(domain.AccountListResponse{IDs: m.accountIDs()})

	case domain.AccountReadyForTransfer:
		m.markReady(cmd.TransferID, cmd.AccountID)
	case domain.TransferReadyToStart:
		m.markReady(cmd.TransferID, cmd.TransferID)
	case domain.AccountNotFoundForTransfer:
		m.reject(cmd.TransferID, domain.AccountNotFoundResponse{ID: cmd.AccountID}, "account_not_found")
	case domain.TransferHasAlreadyStarted:
		m.reject(cmd.TransferID, domain.TransferAlreadyExistsResponse{ID: cmd.TransferID}, "already_started")
	case domain.CancelPendingTransferRequest:
		if p, ok := m.pending[cmd.TransferID]; ok {
			delete(m.pending, cmd.TransferID)
			m.releaseTempSource(p)
			observability.IncrementAdmission("timeout")
			m.logger.Warn("admission timed out", zap.String("transfer_id", cmd.TransferID.String()))
		}

	default:
		m.logger.Warn("unhandled message", zap.String("message", fmt.Sprintf("%T", msg)))
	}
	return nil
}

func (m *manager) forward(target actor.Ref, msg any, sender actor.Ref) {
	if target == nil {
		return
	}
	target.Tell(msg, sender)
}

func (m *manager) deposit(ctx actor.Context, cmd domain.DepositMoneyCommand) {
	if _, ok := m.pending[cmd.ID]; ok {
		ctx.Reply(domain.TransferRequestIsBeingCreated{ID: cmd.ID})
		return
	}
	// the temporary source is funded on its first message, before it answers the ready check
	tempID := uuid.New()
	m.ledger.system.GetOrSpawn(m.ledger.accountPath(tempID), m.ledger.accountFactory(tempID, cmd.Amount))
	m.admit(ctx, domain.MakeTransferCommand{
		ID:              cmd.ID,
		SourceAccountID: tempID,
		TargetAccountID: cmd.TargetAccountID,
		Amount:          cmd.Amount,
	})
	if p, ok := m.pending[cmd.ID]; ok {
		p.tempSource = true
	}
}

func (m *manager) admit(ctx actor.Context, cmd domain.MakeTransferCommand) {
	if _, ok := m.pending[cmd.ID]; ok {
		observability.IncrementAdmission("being_created")
		ctx.Reply(domain.TransferRequestIsBeingCreated{ID: cmd.ID})
		return
	}

	source := m.account(cmd.SourceAccountID)
	target := m.account(cmd.TargetAccountID)
	transfer := m.transfer(cmd.ID)
	if source == nil || target == nil || transfer == nil {
		return
	}

	p := &pendingTransferRequest{
		command:    cmd,
		originator: ctx.Sender,
		transfer:   transfer,
		ready: map[uuid.UUID]bool{
			cmd.SourceAccountID: false,
			cmd.TargetAccountID: false,
			cmd.ID:              false,
		},
	}
	m.pending[cmd.ID] = p

	check := domain.TransferReadyCheck{TransferID: cmd.ID}
	source.Tell(check, ctx.Self)
	if cmd.TargetAccountID != cmd.SourceAccountID {
		target.Tell(check, ctx.Self)
	}
	transfer.Tell(check, ctx.Self)
	p.cancel = ctx.System.ScheduleOnce(m.ledger.settings.AdmissionTimeout, ctx.Self, domain.CancelPendingTransferRequest{TransferID: cmd.ID})

	m.logger.Debug("admission started", zap.String("transfer_id", cmd.ID.String()))
}

func (m *manager) markReady(transferID, key uuid.UUID) {
	p, ok := m.pending[transferID]
	if !ok {
		return
	}
	if _, known := p.ready[key]; !known {
		return
	}
	p.ready[key] = true
	if !p.allReady() {
		return
	}

	// the originator stays the sender so the transfer's terminal reply reaches it
	p.transfer.Tell(p.command, p.originator)
	m.done(transferID, p)
	observability.IncrementAdmission("admitted")
	m.logger.Debug("transfer admitted", zap.String("transfer_id", transferID.String()))
}

func (m *manager) reject(transferID uuid.UUID, reply any, outcome string) {
	p, ok := m.pending[transferID]
	if !ok {
		return
	}
	if p.originator != nil {
		p.originator.Tell(reply, nil)
	}
	m.done(transferID, p)
	m.releaseTempSource(p)
	observability.IncrementAdmission(outcome)
	m.logger.Info("admission rejected",
		zap.String("transfer_id", transferID.String()),
		zap.String("outcome", outcome),
	)
}

func (m *manager) done(transferID uuid.UUID, p *pendingTransferRequest) {
	if p.cancel != nil {
		p.cancel()
	}
	delete(m.pending, transferID)
}

// releaseTempSource stops the temporary account of a deposit that was never admitted.
func (m *manager) releaseTempSource(p *pendingTransferRequest) {
	if !p.tempSource {
		return
	}
	m.ledger.system.Stop(m.ledger.accountPath(p.command.SourceAccountID))
}

func (m *manager) accountIDs() []uuid.UUID {
	prefix := m.ledger.settings.AccountPathPrefix
	var ids []uuid.UUID
	for _, path := range m.ledger.system.Children(prefix) {
		id, err := uuid.Parse(strings.TrimPrefix(path, prefix))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
