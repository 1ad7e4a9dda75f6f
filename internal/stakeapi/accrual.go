package stakeapi

import (
	"context"
	"fmt"
	"log"
	"time"

	"stakevault/internal/worker"
)

// CreditInterest credits one day of compound interest if a full 24h window
// has elapsed since the later of the last credit and the first deposit.
// Running under the account lock, a re-read of LastInterestAt makes an
// overlapping tick or a racing admin write see a closed window and back off.
func (s *Sessions) CreditInterest(accountId uint) (bool, error) {
	unlock := s.locks.lock(accountId)
	defer unlock()

	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return false, err
	}
	if acc.Level == 0 || acc.FirstDepositAt == nil {
		return false, nil
	}
	windowStart := *acc.FirstDepositAt
	if acc.LastInterestAt != nil && acc.LastInterestAt.After(windowStart) {
		windowStart = *acc.LastInterestAt
	}
	if time.Since(windowStart) < 24*time.Hour {
		return false, nil
	}
	tier := LevelByIndex(acc.Level, s.levels())
	// Compounds on the current balance, so this credit raises the base for
	// the next window.
	amount := RoundFloat(acc.Balance*tier.Rate, 2)
	if amount <= 0 {
		return false, nil
	}
	appendTx(acc, Transaction{
		Type:    TxInterestCredit,
		Status:  StatusCredited,
		Amount:  amount,
		Message: fmt.Sprintf("Daily interest at %.2f%% for tier %d", tier.Rate*100, tier.Index),
	})
	acc.Balance = RoundFloat(acc.Balance+amount, 2)
	now := time.Now()
	acc.LastInterestAt = &now
	s.maybePromote(acc)
	if err := s.store.Put(acc); err != nil {
		return false, err
	}
	return true, nil
}

// Accruer is the periodic interest scheduler. One tick sweeps every account;
// per-account work runs on the pool so a slow account cannot stall the batch,
// and failures are logged and skipped.
type Accruer struct {
	sessions *Sessions
	pool     *worker.Pool
	interval time.Duration
}

func NewAccruer(sessions *Sessions, pool *worker.Pool, interval time.Duration) *Accruer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Accruer{
		sessions: sessions,
		pool:     pool,
		interval: interval,
	}
}

// Run ticks until the context is cancelled. Shutdown just stops scheduling
// further sweeps; an in-flight sweep finishes on the pool.
func (a *Accruer) Run(ctx context.Context) {
	t := time.NewTicker(a.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.Sweep()
		}
	}
}

// Sweep walks every account once, crediting where a window has elapsed.
func (a *Accruer) Sweep() {
	err := a.sessions.store.EachAccountID(func(id uint) error {
		task := func() {
			if _, err := a.sessions.CreditInterest(id); err != nil {
				log.Printf("[accrual] account %d skipped: %v", id, err)
			}
		}
		if a.pool != nil {
			a.pool.Exec(task)
		} else {
			task()
		}
		return nil
	})
	if err != nil {
		log.Printf("[accrual] sweep aborted: %v", err)
	}
}
