package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Timeouts bound each facade operation.
type Timeouts struct {
	CreateAccount    time.Duration
	RetrieveAccount  time.Duration
	DepositMoney     time.Duration
	MakeTransfer     time.Duration
	RetrieveTransfer time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		CreateAccount:    5 * time.Second,
		RetrieveAccount:  5 * time.Second,
		DepositMoney:     5 * time.Second,
		MakeTransfer:     5 * time.Second,
		RetrieveTransfer: 5 * time.Second,
	}
}

// askManager sends msg to the manager and waits at most d for the reply.
func askManager(ctx context.Context, manager actor.Ref, d time.Duration, msg any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	reply, err := actor.Ask(ctx, manager, msg)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrRequestTimeout, d)
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// replyError maps a negative protocol reply to the facade error taxonomy.
func replyError(reply any) error {
	switch r := reply.(type) {
	case domain.AccountAlreadyExistsResponse:
		return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, r.ID)
	case domain.AccountNotFoundResponse:
		return fmt.Errorf("%w: %s", ErrAccountNotFound, r.ID)
	case domain.TransferAlreadyExistsResponse:
		return fmt.Errorf("%w: %s", ErrTransferAlreadyExists, r.ID)
	case domain.TransferHasAlreadyStarted:
		return fmt.Errorf("%w: %s", ErrTransferAlreadyExists, r.TransferID)
	case domain.TransferRequestIsBeingCreated:
		return fmt.Errorf("%w: %s", ErrTransferIsBeingCreated, r.ID)
	case domain.TransferNotFoundResponse:
		return fmt.Errorf("%w: %s", ErrTransferNotFound, r.ID)
	default:
		return fmt.Errorf("%w: %T", ErrUnexpectedReply, reply)
	}
}

func requireID(id uuid.UUID, field string) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: %s is required", ErrBadRequest, field)
	}
	return nil
}

func requireAmount(amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	return nil
}
