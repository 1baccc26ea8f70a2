package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/transfer-saga/internal/actor"
	"github.com/ayo6706/transfer-saga/internal/domain"
	"github.com/ayo6706/transfer-saga/internal/observability"
	"go.uber.org/zap"
)

const (
	InvariantNonNegativeBalance = "non_negative_balance"
	InvariantDisjointTransfers  = "disjoint_transfers"
)

// ReconciliationReport summarizes one reconciliation pass.
type ReconciliationReport struct {
	Checked    int
	Violations int
}

// ReconciliationService verifies account invariants on every live account.
type ReconciliationService struct {
	manager actor.Ref
	timeout time.Duration
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(manager actor.Ref, timeout time.Duration) *ReconciliationService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReconciliationService{manager: manager, timeout: timeout}
}

// Run checks that no balance is negative and that no transfer is both blocked
// and settled on the same account.
func (s *ReconciliationService) Run(ctx context.Context) (ReconciliationReport, error) {
	var report ReconciliationReport

	reply, err := askManager(ctx, s.manager, s.timeout, domain.ListAccountsCommand{})
	if err != nil {
		return report, fmt.Errorf("list accounts: %w", err)
	}
	list, ok := reply.(domain.AccountListResponse)
	if !ok {
		return report, replyError(reply)
	}

	for _, id := range list.IDs {
		reply, err := askManager(ctx, s.manager, s.timeout, domain.RetrieveAccountCommand{ID: id})
		if errors.Is(err, ErrRequestTimeout) {
			zap.L().Warn("reconciliation skipped slow account", zap.String("account_id", id.String()))
			continue
		}
		if err != nil {
			return report, err
		}
		snap, ok := reply.(domain.AccountSnapshotResponse)
		if !ok {
			continue
		}
		report.Checked++
		report.Violations += checkAccount(snap.Account)
	}

	if report.Violations > 0 {
		zap.L().Error("CRITICAL: ledger invariant violations detected",
			zap.Int("accounts", report.Checked),
			zap.Int("violations", report.Violations),
		)
		return report, nil
	}
	zap.L().Info("ledger consistent", zap.Int("accounts", report.Checked))
	return report, nil
}

func checkAccount(state domain.AccountState) int {
	violations := 0
	if state.Balance.IsNegative() {
		violations++
		observability.IncrementInvariantViolation(InvariantNonNegativeBalance)
		zap.L().Error("negative balance",
			zap.String("account_id", state.ID.String()),
			zap.String("balance", state.Balance.String()),
		)
	}
	for id := range state.CurrentTransfers {
		if state.HasWatchedCompletedTransfer(id) {
			violations++
			observability.IncrementInvariantViolation(InvariantDisjointTransfers)
			zap.L().Error("transfer both blocked and settled",
				zap.String("account_id", state.ID.String()),
				zap.String("transfer_id", id.String()),
			)
		}
	}
	return violations
}
