package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferService struct {
	manager  actor.Ref
	timeouts Timeouts
}

func NewTransferService(manager actor.Ref, timeouts Timeouts) *TransferService {
	return &TransferService{
		manager:  manager,
		timeouts: timeouts,
	}
}

// MakeTransfer moves amount between two accounts and waits for the terminal status.
// A low balance is a successful call with status low_balance.
func (s *TransferService) MakeTransfer(ctx context.Context, transferID, sourceAccountID, targetAccountID uuid.UUID, amount decimal.Decimal) (domain.TransferState, error) {
	if err := requireID(transferID, "transfer_id"); err != nil {
		return domain.TransferState{}, err
	}
	if err := requireID(sourceAccountID, "source_account_id"); err != nil {
		return domain.TransferState{}, err
	}
	if err := requireID(targetAccountID, "target_account_id"); err != nil {
		return domain.TransferState{}, err
	}
	if sourceAccountID == targetAccountID {
		return domain.TransferState{}, fmt.Errorf("%w: cannot transfer to the same account", ErrBadRequest)
	}
	if err := requireAmount(amount); err != nil {
		return domain.TransferState{}, err
	}

	reply, err := askManager(ctx, s.manager, s.timeouts.MakeTransfer, domain.MakeTransferCommand{
		ID:              transferID,
		SourceAccountID: sourceAccountID,
		TargetAccountID: targetAccountID,
		Amount:          amount,
	})
	if err != nil {
		return domain.TransferState{}, err
	}
	if r, ok := reply.(domain.TransferResponse); ok {
		return r.Transfer, nil
	}
	return domain.TransferState{}, replyError(reply)
}

func (s *TransferService) RetrieveTransfer(ctx context.Context, transferID uuid.UUID) (domain.TransferState, error) {
	if err := requireID(transferID, "transfer_id"); err != nil {
		return domain.TransferState{}, err
	}

	reply, err := askManager(ctx, s.manager, s.timeouts.RetrieveTransfer, domain.RetrieveTransferCommand{ID: transferID})
	if err != nil {
		return domain.TransferState{}, err
	}
	if r, ok := reply.(domain.TransferSnapshotResponse); ok {
		return r.Transfer, nil
	}
	return domain.TransferState{}, replyError(reply)
}
