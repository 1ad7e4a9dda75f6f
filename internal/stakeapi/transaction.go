package stakeapi

import "time"

// Transaction types
const (
	TxDeposit        = "deposit"
	TxWithdrawal     = "withdrawal"
	TxInterestCredit = "interest_credit"
	TxAdminAdjusted  = "admin_adjusted"
	TxLevelUp        = "level_up"
	TxNewReferral    = "new_referral"
	TxAccountCreated = "account_created"
	TxInfo           = "info"
)

// Transaction statuses. Pending is the only mutable state: an approve or
// decline rewrites it in place exactly once, everything else is terminal.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusDeclined  = "declined"
	StatusCredited  = "credited"
	StatusCompleted = "completed"
	StatusInfo      = "info"
)

// Transaction is one ledger-affecting or informational event. Amount is
// signed: withdrawals are stored negative so the account balance is always
// the sum of amounts whose status counts toward it.
type Transaction struct {
	Txid      string    `json:"txid" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	AccountId uint      `json:"account_id" gorm:"index"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Address   string    `json:"address"` // Withdrawal address snapshot, withdrawals only
	Message   string    `json:"message"`
}

// CountsTowardBalance reports whether this transaction's amount is part of
// the account balance sum.
func (t *Transaction) CountsTowardBalance() bool {
	switch t.Status {
	case StatusApproved, StatusCompleted, StatusCredited:
		return true
	}
	return false
}

// PendingRequest is one entry of the global admin-facing queue. It references
// the pending transaction by id, decoupled from the per-account copy.
type PendingRequest struct {
	CreatedAt time.Time `json:"created_at"`
	Txid      string    `json:"txid" gorm:"primaryKey"`
	AccountId uint      `json:"account_id" gorm:"index"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
}
