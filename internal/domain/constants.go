package domain

const (
	// TempAccountName names the ephemeral source account created for a deposit.
	TempAccountName = "bank_temp_account"

	EntityAccount  = "account"
	EntityTransfer = "transfer"
	EntityManager  = "manager"
)

// TransferStatus is the lifecycle status of a transfer.
type TransferStatus string

const (
	StatusInProgress TransferStatus = "in_progress"
	StatusCompleted  TransferStatus = "completed"
	StatusLowBalance TransferStatus = "low_balance"
)

// IsTerminal reports whether no further transition is possible.
func (s TransferStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusLowBalance
}
