package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Commands accepted by the account manager.

type CreateAccountCommand struct {
	ID   uuid.UUID
	Name string
}

type RetrieveAccountCommand struct {
	ID uuid.UUID
}

type MakeTransferCommand struct {
	ID              uuid.UUID
	SourceAccountID uuid.UUID
	TargetAccountID uuid.UUID
	Amount          decimal.Decimal
}

type RetrieveTransferCommand struct {
	ID uuid.UUID
}

type DepositMoneyCommand struct {
	ID              uuid.UUID
	TargetAccountID uuid.UUID
	Amount          decimal.Decimal
}

// ListAccountsCommand asks the manager for the ids of every live account.
type ListAccountsCommand struct{}

// Replies to commands.

type AccountCreatedResponse struct {
	ID uuid.UUID
}

type AccountAlreadyExistsResponse struct {
	ID uuid.UUID
}

type AccountSnapshotResponse struct {
	Account AccountState
}

type AccountNotFoundResponse struct {
	ID uuid.UUID
}

// TransferResponse carries the state of a transfer that reached a terminal status.
type TransferResponse struct {
	Transfer TransferState
}

type TransferSnapshotResponse struct {
	Transfer TransferState
}

type TransferNotFoundResponse struct {
	ID uuid.UUID
}

type TransferAlreadyExistsResponse struct {
	ID uuid.UUID
}

type TransferRequestIsBeingCreated struct {
	ID uuid.UUID
}

type AccountListResponse struct {
	IDs []uuid.UUID
}

// Admission handshake.

type TransferReadyCheck struct {
	TransferID uuid.UUID
}

type AccountReadyForTransfer struct {
	TransferID uuid.UUID
	AccountID  uuid.UUID
}

type AccountNotFoundForTransfer struct {
	TransferID uuid.UUID
	AccountID  uuid.UUID
}

type TransferReadyToStart struct {
	TransferID uuid.UUID
}

type TransferHasAlreadyStarted struct {
	TransferID uuid.UUID
}

// CancelPendingTransferRequest fires when an admission takes too long.
type CancelPendingTransferRequest struct {
	TransferID uuid.UUID
}

// Saga messages. These are delivered at least once and are stored in the
// transfer's delivery table, so they carry JSON tags.

type BlockMoney struct {
	DeliveryID      int64           `json:"delivery_id"`
	TransferID      uuid.UUID       `json:"transfer_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type DepositMoney struct {
	DeliveryID      int64           `json:"delivery_id"`
	TransferID      uuid.UUID       `json:"transfer_id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type CompleteTransfer struct {
	DeliveryID int64     `json:"delivery_id"`
	TransferID uuid.UUID `json:"transfer_id"`
}

// Acknowledgments echo the delivery id they confirm.

type MoneyBlockedSuccessfully struct {
	DeliveryID int64
}

type InsufficientBalanceToBlock struct {
	DeliveryID int64
}

type MoneyDepositedSuccessfully struct {
	DeliveryID int64
}

type TransferCompletedSuccessfully struct {
	DeliveryID int64
}

// RedeliveryTick makes a transfer retransmit its due deliveries. Token identifies
// the timer that produced it; a tick whose timer was replaced is ignored.
type RedeliveryTick struct {
	Token uint64
}
