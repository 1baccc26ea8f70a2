package domain

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountExists     = errors.New("account already created")
	ErrAccountMissing    = errors.New("account not created")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ActiveTransfer is a transfer as seen from one account.
type ActiveTransfer struct {
	ID              uuid.UUID       `json:"id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	// Deposited is set when a transfer between the same account has credited it.
	Deposited bool `json:"deposited,omitempty"`
}

// AccountState is the event-sourced state of an account. A nil *AccountState means
// the account has not been created. Values are never modified in place: events
// return a new state.
type AccountState struct {
	ID                        uuid.UUID                    `json:"id"`
	Name                      string                       `json:"name"`
	Balance                   decimal.Decimal              `json:"balance"`
	CreatedAt                 time.Time                    `json:"created_at"`
	UpdatedAt                 time.Time                    `json:"updated_at"`
	CurrentTransfers          map[uuid.UUID]ActiveTransfer `json:"current_transfers"`
	WatchedCompletedTransfers map[uuid.UUID]ActiveTransfer `json:"watched_completed_transfers"`
}

func (s *AccountState) clone() *AccountState {
	c := *s
	c.CurrentTransfers = maps.Clone(s.CurrentTransfers)
	if c.CurrentTransfers == nil {
		c.CurrentTransfers = make(map[uuid.UUID]ActiveTransfer)
	}
	c.WatchedCompletedTransfers = maps.Clone(s.WatchedCompletedTransfers)
	if c.WatchedCompletedTransfers == nil {
		c.WatchedCompletedTransfers = make(map[uuid.UUID]ActiveTransfer)
	}
	return &c
}

// HasCurrentTransfer reports whether money is blocked on this account for id.
func (s *AccountState) HasCurrentTransfer(id uuid.UUID) bool {
	_, ok := s.CurrentTransfers[id]
	return ok
}

// HasWatchedCompletedTransfer reports whether id has settled on this account.
func (s *AccountState) HasWatchedCompletedTransfer(id uuid.UUID) bool {
	_, ok := s.WatchedCompletedTransfers[id]
	return ok
}

// HasDeposited reports whether id has already credited this account.
func (s *AccountState) HasDeposited(id uuid.UUID) bool {
	if s.HasWatchedCompletedTransfer(id) {
		return true
	}
	t, ok := s.CurrentTransfers[id]
	return ok && t.Deposited
}

// HasSufficientBalance reports whether amount can be blocked.
func (s *AccountState) HasSufficientBalance(amount decimal.Decimal) bool {
	return s.Balance.GreaterThanOrEqual(amount)
}

// BlockedAmount is the total held by transfers leaving this account.
func (s *AccountState) BlockedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.CurrentTransfers {
		total = total.Add(t.Amount)
	}
	return total
}

// AccountEvent is a persisted account event.
type AccountEvent interface {
	Apply(state *AccountState) (*AccountState, error)
}

type AccountCreated struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Time           time.Time       `json:"time"`
}

func (e AccountCreated) Apply(state *AccountState) (*AccountState, error) {
	if state != nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, e.ID)
	}
	return &AccountState{
		ID:                        e.ID,
		Name:                      e.Name,
		Balance:                   e.InitialBalance,
		CreatedAt:                 e.Time,
		UpdatedAt:                 e.Time,
		CurrentTransfers:          make(map[uuid.UUID]ActiveTransfer),
		WatchedCompletedTransfers: make(map[uuid.UUID]ActiveTransfer),
	}, nil
}

// AccountMoneyBlocked debits the account and holds the amount for a transfer.
type AccountMoneyBlocked struct {
	TransferID      uuid.UUID       `json:"transfer_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Time            time.Time       `json:"time"`
}

func (e AccountMoneyBlocked) Apply(state *AccountState) (*AccountState, error) {
	if state == nil {
		return nil, ErrAccountMissing
	}
	if !state.HasSufficientBalance(e.Amount) {
		return nil, fmt.Errorf("%w: block %s of %s", ErrInsufficientFunds, e.Amount, state.Balance)
	}
	if state.HasCurrentTransfer(e.TransferID) || state.HasWatchedCompletedTransfer(e.TransferID) {
		return nil, fmt.Errorf("%w: transfer %s already blocked", ErrInvalidTransition, e.TransferID)
	}
	next := state.clone()
	next.Balance = state.Balance.Sub(e.Amount)
	next.UpdatedAt = e.Time
	next.CurrentTransfers[e.TransferID] = ActiveTransfer{
		ID:              e.TransferID,
		SourceAccountID: state.ID,
		TargetAccountID: e.TargetAccountID,
		Amount:          e.Amount,
	}
	return next, nil
}

// AccountMoneyDeposited credits the account. The transfer is recorded as settled on
// this account so that a repeated deposit for the same transfer is recognized.
type AccountMoneyDeposited struct {
	TransferID      uuid.UUID       `json:"transfer_id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Time            time.Time       `json:"time"`
}

func (e AccountMoneyDeposited) Apply(state *AccountState) (*AccountState, error) {
	if state == nil {
		return nil, ErrAccountMissing
	}
	next := state.clone()
	next.Balance = state.Balance.Add(e.Amount)
	next.UpdatedAt = e.Time
	// a transfer that left this same account stays in current until completed
	if t, ok := next.CurrentTransfers[e.TransferID]; ok {
		t.Deposited = true
		next.CurrentTransfers[e.TransferID] = t
	} else {
		next.WatchedCompletedTransfers[e.TransferID] = ActiveTransfer{
			ID:              e.TransferID,
			SourceAccountID: e.SourceAccountID,
			TargetAccountID: state.ID,
			Amount:          e.Amount,
		}
	}
	return next, nil
}

// AccountTransferCompleted moves a transfer from current to watched-completed.
type AccountTransferCompleted struct {
	TransferID uuid.UUID `json:"transfer_id"`
	Time       time.Time `json:"time"`
}

func (e AccountTransferCompleted) Apply(state *AccountState) (*AccountState, error) {
	if state == nil {
		return nil, ErrAccountMissing
	}
	next := state.clone()
	next.UpdatedAt = e.Time
	if t, ok := next.CurrentTransfers[e.TransferID]; ok {
		delete(next.CurrentTransfers, e.TransferID)
		next.WatchedCompletedTransfers[e.TransferID] = t
	} else {
		next.WatchedCompletedTransfers[e.TransferID] = ActiveTransfer{
			ID:              e.TransferID,
			SourceAccountID: state.ID,
		}
	}
	return next, nil
}
