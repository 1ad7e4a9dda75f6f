package stakeapi

import (
	"fmt"
	"log"
	"time"
)

// SubmitDeposit creates a pending deposit transaction, visible in the
// account's feed and in the global admin queue.
func (s *Sessions) SubmitDeposit(accountId uint, amount float64) (Snapshot, error) {
	if amount <= 0 {
		return Snapshot{}, Validationf("deposit amount must be positive")
	}
	amount = RoundFloat(amount, 2)

	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return Snapshot{}, err
	}
	tx := appendTx(acc, Transaction{
		Type:    TxDeposit,
		Status:  StatusPending,
		Amount:  amount,
		Message: fmt.Sprintf("Deposit of %.2f USDT awaiting review", amount),
	})
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	req := PendingRequest{
		Txid:      tx.Txid,
		CreatedAt: tx.CreatedAt,
		AccountId: accountId,
		Type:      TxDeposit,
		Amount:    amount,
	}
	if err := s.store.EnqueuePending(req); err != nil {
		return Snapshot{}, err
	}
	if s.Notifier != nil {
		s.Notifier.ReviewRequested(req, acc.Email)
	}
	return acc.Snapshot(), nil
}

// ApproveDeposit resolves the queue entry, credits the balance and fires the
// level and referral hooks. A second approval of the same id fails with
// ErrNotFound and changes nothing.
func (s *Sessions) ApproveDeposit(txid string) (Snapshot, error) {
	req, err := s.takePending(txid, TxDeposit)
	if err != nil {
		return Snapshot{}, err
	}

	var qualified bool
	var referredBy uint

	unlock := s.locks.lock(req.AccountId)
	acc, err := s.store.GetByID(req.AccountId)
	if err != nil {
		unlock()
		// The per-account copy is still pending; put the queue entry back so
		// the two stay consistent.
		s.restorePending(req)
		return Snapshot{}, err
	}
	tx := findTx(acc, txid)
	if tx == nil {
		unlock()
		return Snapshot{}, ErrNotFound
	}
	if tx.Status != StatusPending {
		unlock()
		return Snapshot{}, &InvariantViolation{Detail: fmt.Sprintf("transaction %s already %s", txid, tx.Status)}
	}
	tx.Status = StatusApproved
	acc.Balance = RoundFloat(acc.Balance+tx.Amount, 2)
	s.maybePromote(acc)

	cfg := s.Config()
	tierOne := LevelByIndex(1, cfg.Settings.Levels)
	if acc.FirstDepositAt == nil && acc.Balance >= tierOne.MinBalance {
		now := time.Now()
		acc.FirstDepositAt = &now
		qualified = true
		referredBy = acc.ReferredBy
		appendTx(acc, Transaction{
			Type:    TxInfo,
			Status:  StatusInfo,
			Message: fmt.Sprintf("Funds are held for %d days from your first deposit", cfg.Settings.Limits.HoldDays),
		})
	}
	if err := s.store.Put(acc); err != nil {
		unlock()
		return Snapshot{}, err
	}
	snap := acc.Snapshot()
	unlock()

	// The referee's own deposit stands regardless of what happens to the
	// referrer side.
	if qualified && referredBy != 0 {
		s.activateReferral(referredBy, req.AccountId, snap.Email)
	}
	return snap, nil
}

// DeclineDeposit marks the transaction declined. The balance is untouched.
func (s *Sessions) DeclineDeposit(txid string) (Snapshot, error) {
	req, err := s.takePending(txid, TxDeposit)
	if err != nil {
		return Snapshot{}, err
	}
	return s.declinePending(req)
}

// takePending atomically removes the queue entry, verifying the operation
// matches the request type. A mismatch re-enqueues the untouched entry.
func (s *Sessions) takePending(txid, wantType string) (PendingRequest, error) {
	req, err := s.store.ResolvePending(txid)
	if err != nil {
		return PendingRequest{}, err
	}
	if req.Type != wantType {
		s.restorePending(req)
		return PendingRequest{}, Validationf("transaction %s is not a %s", txid, wantType)
	}
	return req, nil
}

// restorePending puts a resolved queue entry back when the resolution cannot
// proceed. The entry is briefly absent from the queue between the resolve and
// the restore; the per-account transaction stays pending throughout, so the
// admin can always retry.
func (s *Sessions) restorePending(req PendingRequest) {
	if err := s.store.EnqueuePending(req); err != nil {
		log.Printf("[pending] entry %s not restored: %v", req.Txid, err)
	}
}

func (s *Sessions) declinePending(req PendingRequest) (Snapshot, error) {
	unlock := s.locks.lock(req.AccountId)
	defer unlock()

	acc, err := s.store.GetByID(req.AccountId)
	if err != nil {
		s.restorePending(req)
		return Snapshot{}, err
	}
	tx := findTx(acc, req.Txid)
	if tx == nil {
		return Snapshot{}, ErrNotFound
	}
	if tx.Status != StatusPending {
		return Snapshot{}, &InvariantViolation{Detail: fmt.Sprintf("transaction %s already %s", req.Txid, tx.Status)}
	}
	tx.Status = StatusDeclined
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

func findTx(acc *Account, txid string) *Transaction {
	for i := range acc.Transactions {
		if acc.Transactions[i].Txid == txid {
			return &acc.Transactions[i]
		}
	}
	return nil
}
