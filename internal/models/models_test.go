package models

import (
	"encoding/json"
	"testing"

	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFromState_UsesWireKeys(t *testing.T) {
	tid := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	src := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	dst := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	body, err := json.Marshal(TransferFromState(domain.TransferState{
		ID:              tid,
		SourceAccountID: src,
		TargetAccountID: dst,
		Amount:          decimal.RequireFromString("100.50"),
		Status:          domain.StatusLowBalance,
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"transfer_id": "11111111-1111-1111-1111-111111111111",
		"source_account_id": "22222222-2222-2222-2222-222222222222",
		"target_account_id": "33333333-3333-3333-3333-333333333333",
		"amount": 100.5,
		"status": "low_balance"
	}`, string(body))
}

func TestAmount_OnlyResponsesUseNumbers(t *testing.T) {
	state := domain.TransferState{ID: uuid.New(), Amount: decimal.RequireFromString("0.10"), Status: domain.StatusCompleted}

	persisted, err := json.Marshal(state)
	require.NoError(t, err)
	assert.Contains(t, string(persisted), `"amount":"0.1"`)

	body, err := json.Marshal(DepositFromState(state))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"amount":0.1`)
	assert.False(t, decimal.MarshalJSONWithoutQuotes)
}

func TestDepositRequest_AcceptsNumberOrString(t *testing.T) {
	var a, b DepositRequest
	require.NoError(t, json.Unmarshal([]byte(`{"transfer_id":"11111111-1111-1111-1111-111111111111","amount":100}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"transfer_id":"11111111-1111-1111-1111-111111111111","amount":"100"}`), &b))
	assert.True(t, a.Amount.Equal(b.Amount))
}

func TestCreateAccountRequest_RejectsInvalidUUID(t *testing.T) {
	var req CreateAccountRequest
	err := json.Unmarshal([]byte(`{"account_id":"not-a-uuid","name":"test"}`), &req)
	assert.Error(t, err)
}
