package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ayo6706/transfer-saga/internal/codec"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func applyAccount(t *testing.T, events ...AccountEvent) *AccountState {
	t.Helper()
	var state *AccountState
	for _, e := range events {
		next, err := e.Apply(state)
		require.NoError(t, err)
		state = next
	}
	return state
}

func TestAccountEvents_BlockDepositComplete(t *testing.T) {
	id, target, tid := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	state := applyAccount(t,
		AccountCreated{ID: id, Name: "test", Time: now},
		AccountMoneyDeposited{TransferID: uuid.New(), SourceAccountID: uuid.New(), Amount: dec("100"), Time: now},
		AccountMoneyBlocked{TransferID: tid, TargetAccountID: target, Amount: dec("40"), Time: now},
	)
	assert.True(t, state.Balance.Equal(dec("60")))
	assert.True(t, state.HasCurrentTransfer(tid))
	assert.True(t, state.BlockedAmount().Equal(dec("40")))

	done, err := AccountTransferCompleted{TransferID: tid, Time: now}.Apply(state)
	require.NoError(t, err)
	assert.False(t, done.HasCurrentTransfer(tid))
	assert.True(t, done.HasWatchedCompletedTransfer(tid))
	assert.True(t, state.HasCurrentTransfer(tid), "apply must not modify the previous state")
}

func TestAccountEvents_Rejections(t *testing.T) {
	id := uuid.New()
	state := applyAccount(t, AccountCreated{ID: id, Name: "a", Time: time.Now()})

	_, err := AccountCreated{ID: id, Name: "a"}.Apply(state)
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = AccountMoneyBlocked{TransferID: uuid.New(), Amount: dec("1")}.Apply(state)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = AccountMoneyDeposited{TransferID: uuid.New(), Amount: dec("1")}.Apply(nil)
	assert.ErrorIs(t, err, ErrAccountMissing)
}

func TestAccountEvents_SelfTransferDepositIsRecorded(t *testing.T) {
	id, tid := uuid.New(), uuid.New()
	now := time.Now().UTC()

	state := applyAccount(t,
		AccountCreated{ID: id, Name: "self", InitialBalance: dec("10"), Time: now},
		AccountMoneyBlocked{TransferID: tid, TargetAccountID: id, Amount: dec("4"), Time: now},
	)
	assert.False(t, state.HasDeposited(tid))

	deposited, err := AccountMoneyDeposited{TransferID: tid, SourceAccountID: id, Amount: dec("4"), Time: now}.Apply(state)
	require.NoError(t, err)
	assert.True(t, deposited.Balance.Equal(dec("10")))
	assert.True(t, deposited.HasCurrentTransfer(tid))
	assert.True(t, deposited.HasDeposited(tid))

	done, err := AccountTransferCompleted{TransferID: tid, Time: now}.Apply(deposited)
	require.NoError(t, err)
	assert.True(t, done.HasDeposited(tid))
	assert.True(t, done.Balance.Equal(dec("10")))
}

func TestAccountCreated_TemporaryAccountStartsFunded(t *testing.T) {
	state := applyAccount(t, AccountCreated{ID: uuid.New(), Name: TempAccountName, InitialBalance: dec("25")})
	assert.True(t, state.Balance.Equal(dec("25")))
}

func TestTransferEvents_HappyPathDeliveries(t *testing.T) {
	tid, src, tgt := uuid.New(), uuid.New(), uuid.New()

	state, err := TransferStarted{ID: tid, SourceAccountID: src, TargetAccountID: tgt, Amount: dec("10")}.Apply(nil)
	require.NoError(t, err)
	require.Equal(t, 1, state.Deliveries.Len())
	block := state.Deliveries.Unconfirmed[0]
	assert.Equal(t, src.String(), block.Destination)
	assert.IsType(t, BlockMoney{}, block.Message)

	state, err = TransferMoneyBlocked{DeliveryID: block.DeliveryID}.Apply(state)
	require.NoError(t, err)
	require.Equal(t, 1, state.Deliveries.Len())
	deposit := state.Deliveries.Unconfirmed[0]
	assert.Equal(t, tgt.String(), deposit.Destination)
	assert.Equal(t, DepositMoney{DeliveryID: 2, TransferID: tid, SourceAccountID: src, Amount: dec("10")}, deposit.Message)

	state, err = TransferMoneyDeposited{DeliveryID: deposit.DeliveryID}.Apply(state)
	require.NoError(t, err)
	complete := state.Deliveries.Unconfirmed[0]
	assert.Equal(t, src.String(), complete.Destination)
	assert.Equal(t, CompleteTransfer{DeliveryID: 3, TransferID: tid}, complete.Message)

	state, err = TransferCompleted{DeliveryID: complete.DeliveryID}.Apply(state)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, state.Status)
	assert.Zero(t, state.Deliveries.Len())

	_, err = TransferMoneyBlocked{DeliveryID: 3}.Apply(state)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransferEvents_LowBalanceAndUnknownDelivery(t *testing.T) {
	state, err := TransferStarted{ID: uuid.New(), SourceAccountID: uuid.New(), TargetAccountID: uuid.New(), Amount: dec("10")}.Apply(nil)
	require.NoError(t, err)

	_, err = TransferMoneyBlocked{DeliveryID: 99}.Apply(state)
	assert.ErrorIs(t, err, ErrUnknownDelivery)

	failed, err := TransferMoneyBlockFailed{DeliveryID: 1, Status: StatusLowBalance}.Apply(state)
	require.NoError(t, err)
	assert.Equal(t, StatusLowBalance, failed.Status)
	assert.True(t, failed.Status.IsTerminal())

	_, err = TransferStarted{ID: state.ID}.Apply(state)
	assert.ErrorIs(t, err, ErrTransferExists)
	_, err = TransferCompleted{DeliveryID: 1}.Apply(nil)
	assert.ErrorIs(t, err, ErrTransferMissing)
}

func TestTransferState_ReplaysFromEncodedEvents(t *testing.T) {
	tid := uuid.New()
	events := []TransferEvent{
		TransferStarted{ID: tid, SourceAccountID: uuid.New(), TargetAccountID: uuid.New(), Amount: dec("7.25")},
		TransferMoneyBlocked{DeliveryID: 1},
	}

	var live *TransferState
	var replayed *TransferState
	for _, e := range events {
		var err error
		live, err = e.Apply(live)
		require.NoError(t, err)

		name, payload, err := codec.Default.Encode(e)
		require.NoError(t, err)
		decoded, err := codec.Default.Decode(name, payload)
		require.NoError(t, err)
		replayed, err = decoded.(TransferEvent).Apply(replayed)
		require.NoError(t, err)
	}

	want, err := json.Marshal(live)
	require.NoError(t, err)
	got, err := json.Marshal(replayed)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	name, payload, err := codec.Default.Encode(*live)
	require.NoError(t, err)
	restored, err := codec.Default.Decode(name, payload)
	require.NoError(t, err)
	state := restored.(TransferState)
	_, pending := state.Deliveries.Lookup(2)
	assert.True(t, pending)
	assert.IsType(t, DepositMoney{}, state.Deliveries.Unconfirmed[0].Message)
}
