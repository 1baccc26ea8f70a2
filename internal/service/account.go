package service

import (
	"context"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	manager  actor.Ref
	timeouts Timeouts
}

func NewAccountService(manager actor.Ref, timeouts Timeouts) *AccountService {
	return &AccountService{
		manager:  manager,
		timeouts: timeouts,
	}
}

// CreateAccount creates an empty account with a client supplied id.
func (s *AccountService) CreateAccount(ctx context.Context, id uuid.UUID, name string) (uuid.UUID, error) {
	if err := requireID(id, "account_id"); err != nil {
		return uuid.Nil, err
	}
	if err := requireName(name); err != nil {
		return uuid.Nil, err
	}

	reply, err := askManager(ctx, s.manager, s.timeouts.CreateAccount, domain.CreateAccountCommand{ID: id, Name: name})
	if err != nil {
		return uuid.Nil, err
	}
	if r, ok := reply.(domain.AccountCreatedResponse); ok {
		return r.ID, nil
	}
	return uuid.Nil, replyError(reply)
}

func (s *AccountService) RetrieveAccount(ctx context.Context, id uuid.UUID) (domain.AccountState, error) {
	if err := requireID(id, "account_id"); err != nil {
		return domain.AccountState{}, err
	}

	reply, err := askManager(ctx, s.manager, s.timeouts.RetrieveAccount, domain.RetrieveAccountCommand{ID: id})
	if err != nil {
		return domain.AccountState{}, err
	}
	if r, ok := reply.(domain.AccountSnapshotResponse); ok {
		return r.Account, nil
	}
	return domain.AccountState{}, replyError(reply)
}

// DepositMoney credits accountID. transferID makes the deposit idempotent.
// The returned transfer carries the final status.
func (s *AccountService) DepositMoney(ctx context.Context, transferID, accountID uuid.UUID, amount decimal.Decimal) (domain.TransferState, error) {
	if err := requireID(transferID, "transfer_id"); err != nil {
		return domain.TransferState{}, err
	}
	if err := requireID(accountID, "account_id"); err != nil {
		return domain.TransferState{}, err
	}
	if err := requireAmount(amount); err != nil {
		return domain.TransferState{}, err
	}

	reply, err := askManager(ctx, s.manager, s.timeouts.DepositMoney, domain.DepositMoneyCommand{
		ID:              transferID,
		TargetAccountID: accountID,
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
