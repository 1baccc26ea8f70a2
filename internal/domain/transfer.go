package domain

import (
	"errors"
	"fmt"

	"github.com/ayo6706/transfer-saga/internal/delivery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransferExists  = errors.New("transfer already started")
	ErrTransferMissing = errors.New("transfer not started")
	ErrUnknownDelivery = errors.New("delivery not pending")
)

// TransferState is the event-sourced saga state of a transfer. A nil *TransferState
// means the transfer has not started. Deliveries holds the outbound protocol messages
// that have not been acknowledged yet; their destination is the account id.
type TransferState struct {
	ID              uuid.UUID         `json:"id"`
	SourceAccountID uuid.UUID         `json:"source_account_id"`
	TargetAccountID uuid.UUID         `json:"target_account_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Status          TransferStatus    `json:"status"`
	Deliveries      delivery.Snapshot `json:"delivery_snapshot"`
}

// TransferEvent is a persisted transfer event. Applying an event also updates the
// delivery table, so replaying the journal reproduces the outstanding deliveries.
type TransferEvent interface {
	Apply(state *TransferState) (*TransferState, error)
}

type TransferStarted struct {
	ID              uuid.UUID       `json:"id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

func (e TransferStarted) Apply(state *TransferState) (*TransferState, error) {
	if state != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransferExists, e.ID)
	}
	next := &TransferState{
		ID:              e.ID,
		SourceAccountID: e.SourceAccountID,
		TargetAccountID: e.TargetAccountID,
		Amount:          e.Amount,
		Status:          StatusInProgress,
	}
	next.Deliveries = next.Deliveries.Deliver(e.SourceAccountID.String(), func(id int64) any {
		return BlockMoney{
			DeliveryID:      id,
			TransferID:      e.ID,
			TargetAccountID: e.TargetAccountID,
			Amount:          e.Amount,
		}
	})
	return next, nil
}

// TransferMoneyBlocked records that the source account holds the amount.
type TransferMoneyBlocked struct {
	DeliveryID int64 `json:"delivery_id"`
}

func (e TransferMoneyBlocked) Apply(state *TransferState) (*TransferState, error) {
	next, err := confirm(state, e.DeliveryID)
	if err != nil {
		return nil, err
	}
	next.Deliveries = next.Deliveries.Deliver(state.TargetAccountID.String(), func(id int64) any {
		return DepositMoney{
			DeliveryID:      id,
			TransferID:      state.ID,
			SourceAccountID: state.SourceAccountID,
			Amount:          state.Amount,
		}
	})
	return next, nil
}

// TransferMoneyBlockFailed ends the transfer because the source could not cover it.
type TransferMoneyBlockFailed struct {
	DeliveryID int64          `json:"delivery_id"`
	Status     TransferStatus `json:"status"`
}

func (e TransferMoneyBlockFailed) Apply(state *TransferState) (*TransferState, error) {
	next, err := confirm(state, e.DeliveryID)
	if err != nil {
		return nil, err
	}
	next.Status = e.Status
	if !next.Status.IsTerminal() {
		next.Status = StatusLowBalance
	}
	return next, nil
}

// TransferMoneyDeposited records the credit on the target account.
type TransferMoneyDeposited struct {
	DeliveryID int64 `json:"delivery_id"`
}

func (e TransferMoneyDeposited) Apply(state *TransferState) (*TransferState, error) {
	next, err := confirm(state, e.DeliveryID)
	if err != nil {
		return nil, err
	}
	next.Deliveries = next.Deliveries.Deliver(state.SourceAccountID.String(), func(id int64) any {
		return CompleteTransfer{
			DeliveryID: id,
			TransferID: state.ID,
		}
	})
	return next, nil
}

// TransferCompleted ends the transfer successfully.
type TransferCompleted struct {
	DeliveryID int64 `json:"delivery_id"`
}

func (e TransferCompleted) Apply(state *TransferState) (*TransferState, error) {
	next, err := confirm(state, e.DeliveryID)
	if err != nil {
		return nil, err
	}
	next.Status = StatusCompleted
	return next, nil
}

func confirm(state *TransferState, deliveryID int64) (*TransferState, error) {
	if state == nil {
		return nil, ErrTransferMissing
	}
	if state.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: transfer %s is %s", ErrInvalidTransition, state.ID, state.Status)
	}
	deliveries, ok := state.Deliveries.Confirm(deliveryID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDelivery, deliveryID)
	}
	next := *state
	next.Deliveries = deliveries
	return &next, nil
}
