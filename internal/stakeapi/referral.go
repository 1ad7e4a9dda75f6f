package stakeapi

import "fmt"

// activateReferral credits the referrer side of a referee's first qualifying
// deposit: the direct-referral count goes up by exactly one, the edge flips
// to activated and the referrer gets an informational transaction. The caller
// guarantees idempotence per referee by only invoking this on the
// FirstDepositAt nil -> set transition. A referrer that no longer resolves is
// tolerated silently; the referee's deposit already stands.
func (s *Sessions) activateReferral(referrerId, refereeId uint, refereeEmail string) {
	unlock := s.locks.lock(referrerId, refereeId)
	defer unlock()

	referrer, err := s.store.GetByID(referrerId)
	if err != nil {
		return
	}
	referrer.DirectReferrals++
	appendTx(referrer, Transaction{
		Type:    TxNewReferral,
		Status:  StatusInfo,
		Message: fmt.Sprintf("Referral %s activated with their first deposit", refereeEmail),
	})
	// A bigger team can unlock the next tier.
	s.maybePromote(referrer)
	if err := s.store.Put(referrer); err != nil {
		return
	}
	_ = s.store.PutReferral(&Referral{
		ReferrerId:   referrerId,
		RefereeId:    refereeId,
		RefereeEmail: refereeEmail,
		Activated:    true,
	})
}
