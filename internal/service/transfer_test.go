package service

import (
	"context"
	"testing"

	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferService_MakeTransfer(t *testing.T) {
	manager := setupLedger(t)
	accounts := NewAccountService(manager, DefaultTimeouts())
	transfers := NewTransferService(manager, DefaultTimeouts())
	ctx := context.Background()

	ayo, err := accounts.CreateAccount(ctx, uuid.New(), "ayo")
	require.NoError(t, err)
	david, err := accounts.CreateAccount(ctx, uuid.New(), "david")
	require.NoError(t, err)
	_, err = accounts.DepositMoney(ctx, uuid.New(), ayo, dec("100"))
	require.NoError(t, err)

	tid := uuid.New()
	tr, err := transfers.MakeTransfer(ctx, tid, ayo, david, dec("40"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, tr.Status)

	got, err := transfers.RetrieveTransfer(ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.True(t, got.Amount.Equal(dec("40")))

	_, err = transfers.MakeTransfer(ctx, tid, ayo, david, dec("40"))
	assert.ErrorIs(t, err, ErrTransferAlreadyExists)

	a, err := accounts.RetrieveAccount(ctx, ayo)
	require.NoError(t, err)
	d, err := accounts.RetrieveAccount(ctx, david)
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(dec("60")), "ayo %s", a.Balance)
	assert.True(t, d.Balance.Equal(dec("40")), "david %s", d.Balance)
}

func TestTransferService_LowBalance(t *testing.T) {
	manager := setupLedger(t)
	accounts := NewAccountService(manager, DefaultTimeouts())
	transfers := NewTransferService(manager, DefaultTimeouts())
	ctx := context.Background()

	src, err := accounts.CreateAccount(ctx, uuid.New(), "src")
	require.NoError(t, err)
	dst, err := accounts.CreateAccount(ctx, uuid.New(), "dst")
	require.NoError(t, err)

	tr, err := transfers.MakeTransfer(ctx, uuid.New(), src, dst, dec("1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLowBalance, tr.Status)
}

func TestTransferService_Rejections(t *testing.T) {
	manager := setupLedger(t)
	accounts := NewAccountService(manager, DefaultTimeouts())
	transfers := NewTransferService(manager, DefaultTimeouts())
	ctx := context.Background()

	src, err := accounts.CreateAccount(ctx, uuid.New(), "src")
	require.NoError(t, err)

	_, err = transfers.MakeTransfer(ctx, uuid.New(), src, src, dec("1"))
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = transfers.MakeTransfer(ctx, uuid.New(), src, uuid.New(), dec("1"))
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = transfers.MakeTransfer(ctx, uuid.New(), src, uuid.New(), dec("0"))
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = transfers.RetrieveTransfer(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTransferNotFound)

	_, err = transfers.RetrieveTransfer(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestReplyError(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		reply any
		want  error
	}{
		{domain.AccountAlreadyExistsResponse{ID: id}, ErrAccountAlreadyExists},
		{domain.AccountNotFoundResponse{ID: id}, ErrAccountNotFound},
		{domain.TransferAlreadyExistsResponse{ID: id}, ErrTransferAlreadyExists},
		{domain.TransferHasAlreadyStarted{TransferID: id}, ErrTransferAlreadyExists},
		{domain.TransferRequestIsBeingCreated{ID: id}, ErrTransferIsBeingCreated},
		{domain.TransferNotFoundResponse{ID: id}, ErrTransferNotFound},
		{"nonsense", ErrUnexpectedReply},
	}
	for _, tc := range cases {
		err := replyError(tc.reply)
		assert.ErrorIs(t, err, tc.want, "%T", tc.reply)
	}
}
