package stakeapi

import (
	"fmt"
	"time"
)

// SubmitWithdrawal validates the request and enqueues a pending withdrawal
// carrying a snapshot of the current withdrawal address. The amount is stored
// negative so approved withdrawals subtract from the balance sum.
func (s *Sessions) SubmitWithdrawal(accountId uint, amount float64) (Snapshot, error) {
	if amount <= 0 {
		return Snapshot{}, Validationf("withdrawal amount must be positive")
	}
	amount = RoundFloat(amount, 2)

	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return Snapshot{}, err
	}
	if acc.WithdrawalAddress == "" {
		return Snapshot{}, Validationf("no withdrawal address set")
	}
	if amount > acc.Balance {
		return Snapshot{}, Validationf("amount %.2f exceeds balance %.2f", amount, acc.Balance)
	}
	cfg := s.Config()
	tier := LevelByIndex(acc.Level, cfg.Settings.Levels)
	if amount > tier.WithdrawLimit {
		return Snapshot{}, Validationf("amount %.2f exceeds the tier %d limit of %.2f", amount, tier.Index, tier.WithdrawLimit)
	}
	// One withdrawal per rolling 30-day window. The window is literal days,
	// not calendar months.
	cooldown := time.Duration(cfg.Settings.Limits.WithdrawCooldownDays) * 24 * time.Hour
	if acc.LastWithdrawalAt != nil && time.Since(*acc.LastWithdrawalAt) < cooldown {
		return Snapshot{}, Validationf("only one withdrawal per %d days is allowed", cfg.Settings.Limits.WithdrawCooldownDays)
	}

	tx := appendTx(acc, Transaction{
		Type:    TxWithdrawal,
		Status:  StatusPending,
		Amount:  -amount,
		Address: acc.WithdrawalAddress,
		Message: fmt.Sprintf("Withdrawal of %.2f USDT awaiting review", amount),
	})
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	req := PendingRequest{
		Txid:      tx.Txid,
		CreatedAt: tx.CreatedAt,
		AccountId: accountId,
		Type:      TxWithdrawal,
		Amount:    -amount,
	}
	if err := s.store.EnqueuePending(req); err != nil {
		return Snapshot{}, err
	}
	if s.Notifier != nil {
		s.Notifier.ReviewRequested(req, acc.Email)
	}
	return acc.Snapshot(), nil
}

// ApproveWithdrawal debits the balance and stamps the withdrawal time that
// anchors the next cooldown window.
func (s *Sessions) ApproveWithdrawal(txid string) (Snapshot, error) {
	req, err := s.takePending(txid, TxWithdrawal)
	if err != nil {
		return Snapshot{}, err
	}

	unlock := s.locks.lock(req.AccountId)
	defer unlock()

	acc, err := s.store.GetByID(req.AccountId)
	if err != nil {
		s.restorePending(req)
		return Snapshot{}, err
	}
	tx := findTx(acc, txid)
	if tx == nil {
		return Snapshot{}, ErrNotFound
	}
	if tx.Status != StatusPending {
		return Snapshot{}, &InvariantViolation{Detail: fmt.Sprintf("transaction %s already %s", txid, tx.Status)}
	}
	// The balance may have dropped since submission (interest never lowers
	// it, admin corrections can). Re-check under the lock; the request stays
	// pending so the admin can decline it instead.
	if acc.Balance+tx.Amount < 0 {
		s.restorePending(req)
		return Snapshot{}, Validationf("balance %.2f no longer covers the withdrawal of %.2f", acc.Balance, -tx.Amount)
	}
	tx.Status = StatusApproved
	acc.Balance = RoundFloat(acc.Balance+tx.Amount, 2)
	now := time.Now()
	acc.LastWithdrawalAt = &now
	// Sticky level: the engine runs but a dip never demotes.
	s.maybePromote(acc)
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

// DeclineWithdrawal marks the transaction declined without touching the
// balance or the cooldown window.
func (s *Sessions) DeclineWithdrawal(txid string) (Snapshot, error) {
	req, err := s.takePending(txid, TxWithdrawal)
	if err != nil {
		return Snapshot{}, err
	}
	return s.declinePending(req)
}
