package stakeapi

import "fmt"

// AdjustBalance applies a signed admin correction. The delta goes through the
// transaction log like every other balance change.
func (s *Sessions) AdjustBalance(accountId uint, delta float64, reason string) (Snapshot, error) {
	if delta == 0 {
		return Snapshot{}, Validationf("adjustment delta must be non-zero")
	}
	delta = RoundFloat(delta, 2)

	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return Snapshot{}, err
	}
	if acc.Balance+delta < 0 {
		return Snapshot{}, Validationf("adjustment of %.2f would drive the balance below zero", delta)
	}
	if reason == "" {
		reason = "Balance adjusted by admin"
	}
	appendTx(acc, Transaction{
		Type:    TxAdminAdjusted,
		Status:  StatusApproved,
		Amount:  delta,
		Message: reason,
	})
	acc.Balance = RoundFloat(acc.Balance+delta, 2)
	s.maybePromote(acc)
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

// AdjustLevel is the sole path that may lower a level. The override is logged
// as an explicit audited level_up event either way.
func (s *Sessions) AdjustLevel(accountId uint, level uint) (Snapshot, error) {
	levels := s.levels()
	if int(level) >= len(levels) {
		return Snapshot{}, Validationf("level %d is outside the configured tier table", level)
	}

	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return Snapshot{}, err
	}
	acc.Level = level
	appendTx(acc, Transaction{
		Type:    TxLevelUp,
		Status:  StatusInfo,
		Amount:  float64(level),
		Message: fmt.Sprintf("Level set to %d by admin", level),
	})
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

func (s *Sessions) UpdateEmail(accountId uint, email string) (Snapshot, error) {
	if email == "" {
		return Snapshot{}, Validationf("email must not be empty")
	}
	if other, err := s.store.GetByEmail(email); err == nil && other.Id != accountId {
		return Snapshot{}, Validationf("email %s is already registered", email)
	}

	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return Snapshot{}, err
	}
	acc.Email = email
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

func (s *Sessions) UpdateWithdrawalAddress(accountId uint, address string) (Snapshot, error) {
	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return Snapshot{}, err
	}
	acc.WithdrawalAddress = address
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

// Announce posts an admin announcement to one account. It stays unread until
// the presentation layer acknowledges it.
func (s *Sessions) Announce(accountId uint, message string) error {
	if message == "" {
		return Validationf("announcement message must not be empty")
	}
	if _, err := s.store.GetByID(accountId); err != nil {
		return err
	}
	return s.store.PutAnnouncement(&Announcement{
		AccountId: accountId,
		Message:   message,
	})
}
