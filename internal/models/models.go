package models

import (
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amount is a response amount. It encodes as a JSON number, while persisted
// events keep the decimal package's quoted form.
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

type CreateAccountRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
}

type Account struct {
	AccountID uuid.UUID       `json:"account_id"`
	Name      string          `json:"name"`
	Balance   Amount    `json:"balance"`
}

type DepositRequest struct {
	TransferID uuid.UUID       `json:"transfer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type Deposit struct {
	TransferID      uuid.UUID `json:"transfer_id"`
	TargetAccountID uuid.UUID `json:"target_account_id"`
	Amount          Amount    `json:"amount"`
	Status          string    `json:"status"`
}

type TransferRequest struct {
	TransferID      uuid.UUID       `json:"transfer_id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type Transfer struct {
	TransferID      uuid.UUID `json:"transfer_id"`
	SourceAccountID uuid.UUID `json:"source_account_id"`
	TargetAccountID uuid.UUID `json:"target_account_id"`
	Amount          Amount    `json:"amount"`
	Status          string    `json:"status"`
}

func AccountFromState(s domain.AccountState) Account {
	return Account{
		AccountID: s.ID,
		Name:      s.Name,
		Balance:   Amount(s.Balance),
	}
}

func DepositFromState(s domain.TransferState) Deposit {
	return Deposit{
		TransferID:      s.ID,
		TargetAccountID: s.TargetAccountID,
		Amount:          Amount(s.Amount),
		Status:          string(s.Status),
	}
}

func TransferFromState(s domain.TransferState) Transfer {
	return Transfer{
		TransferID:      s.ID,
		SourceAccountID: s.SourceAccountID,
		TargetAccountID: s.TargetAccountID,
		Amount:          Amount(s.Amount),
		Status:          string(s.Status),
	}
}
