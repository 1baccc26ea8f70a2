package domain

import "github.com/ayo6706/transfer-saga/internal/codec"

// Names are part of the persisted format. Do not rename.
func init() {
	codec.Default.Register("account.created", AccountCreated{})
	codec.Default.Register("account.money_blocked", AccountMoneyBlocked{})
	codec.Default.Register("account.money_deposited", AccountMoneyDeposited{})
	codec.Default.Register("account.transfer_completed", AccountTransferCompleted{})
	codec.Default.Register("account.state", AccountState{})

	codec.Default.Register("transfer.started", TransferStarted{})
	codec.Default.Register("transfer.money_blocked", TransferMoneyBlocked{})
	codec.Default.Register("transfer.money_block_failed", TransferMoneyBlockFailed{})
	codec.Default.Register("transfer.money_deposited", TransferMoneyDeposited{})
	codec.Default.Register("transfer.completed", TransferCompleted{})
	codec.Default.Register("transfer.state", TransferState{})

	codec.Default.Register("saga.block_money", BlockMoney{})
	codec.Default.Register("saga.deposit_money", DepositMoney{})
	codec.Default.Register("saga.complete_transfer", CompleteTransfer{})
}
