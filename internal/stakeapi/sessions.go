package stakeapi

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// CredentialService is the external identity provider. Password hashing and
// verification never happen in this process.
type CredentialService interface {
	// Register stores the credentials and returns an opaque reference.
	Register(email, password string) (string, error)
	Verify(email, password, credentialRef string) error
}

// Notifier receives fire-and-forget admin notices. Implementations must not
// block the mutation path.
type Notifier interface {
	SignedUp(email string)
	ReviewRequested(req PendingRequest, email string)
}

// Sessions is the single entry point for every account mutation: sign-up and
// sign-in, deposit/withdrawal submission, admin resolution and overrides, and
// the interest credit. All writes run under per-account locks so concurrent
// admin approvals and accrual ticks cannot lose updates.
type Sessions struct {
	Identity CredentialService // optional, sign-up/sign-in fail closed without it
	Notifier Notifier          // optional
	Advisor  Advisor           // optional, used by PriorityMessage and TeamAnalysis

	store Store
	locks *accountLocks

	mu  sync.RWMutex
	cfg *AppConfig
}

func NewSessions(store Store, cfg *AppConfig) *Sessions {
	if cfg == nil {
		cfg = DefaultAppConfig()
	}
	return &Sessions{
		store: store,
		locks: newAccountLocks(),
		cfg:   cfg,
	}
}

func (s *Sessions) Config() AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

func (s *Sessions) ReplaceConfig(cfg *AppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *Sessions) levels() []Level {
	return s.Config().Settings.Levels
}

// SignUp creates the account at level 0 with a zero balance. The referral
// code must resolve to an existing account or equal the reserved admin code;
// a resolved referrer gets an inactive referral entry, counting happens only
// at first-deposit activation.
func (s *Sessions) SignUp(email, password, referralCode string) (Snapshot, error) {
	if _, err := s.store.GetByEmail(email); err == nil {
		return Snapshot{}, Validationf("email %s is already registered", email)
	}

	isAdmin := false
	var referrerId uint
	adminCode := os.Getenv("ADMIN_REF_CODE")
	if adminCode != "" && referralCode == adminCode {
		isAdmin = true
	} else {
		referrer, err := s.store.GetByReferralCode(referralCode)
		if err != nil {
			return Snapshot{}, Validationf("referral code %q does not match any account", referralCode)
		}
		referrerId = referrer.Id
	}

	credentialRef := ""
	if s.Identity != nil {
		ref, err := s.Identity.Register(email, password)
		if err != nil {
			return Snapshot{}, err
		}
		credentialRef = ref
	}

	acc := &Account{
		Email:         email,
		CredentialRef: credentialRef,
		IsAdmin:       isAdmin,
		ReferredBy:    referrerId,
		ReferralCode:  newReferralCode(s.store),
	}
	appendTx(acc, Transaction{
		Type:    TxAccountCreated,
		Status:  StatusInfo,
		Message: "Account created",
	})
	if err := s.store.Put(acc); err != nil {
		return Snapshot{}, err
	}

	if referrerId != 0 {
		err := s.store.PutReferral(&Referral{
			ReferrerId:   referrerId,
			RefereeId:    acc.Id,
			RefereeEmail: email,
		})
		if err != nil {
			return Snapshot{}, err
		}
	}
	if s.Notifier != nil {
		s.Notifier.SignedUp(email)
	}
	return acc.Snapshot(), nil
}

// SignIn verifies the credentials against the identity service and returns a
// fresh snapshot. The admin flag rides on the snapshot.
func (s *Sessions) SignIn(email, password string) (Snapshot, error) {
	acc, err := s.store.GetByEmail(email)
	if err != nil {
		return Snapshot{}, err
	}
	if s.Identity == nil {
		return Snapshot{}, errors.New("identity service is not configured")
	}
	if err := s.Identity.Verify(email, password, acc.CredentialRef); err != nil {
		return Snapshot{}, Validationf("invalid credentials")
	}
	return acc.Snapshot(), nil
}

// SignOut exists for the session contract; tokens are stateless and dropped
// client-side.
func (s *Sessions) SignOut(email string) error {
	return nil
}

func (s *Sessions) SnapshotByID(id uint) (Snapshot, error) {
	acc, err := s.store.GetByID(id)
	if err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

func (s *Sessions) SnapshotByEmail(email string) (Snapshot, error) {
	acc, err := s.store.GetByEmail(email)
	if err != nil {
		return Snapshot{}, err
	}
	return acc.Snapshot(), nil
}

func (s *Sessions) PendingRequests() ([]PendingRequest, error) {
	return s.store.PendingRequests()
}

// appendTx assigns id and timestamp and prepends the record; the feed is
// newest-first. Balance is never touched here.
func appendTx(acc *Account, tx Transaction) Transaction {
	tx.Txid = newTxid()
	tx.CreatedAt = time.Now()
	tx.AccountId = acc.Id
	acc.Transactions = append([]Transaction{tx}, acc.Transactions...)
	return tx
}

// maybePromote re-runs the level engine after a balance or referral change.
// Only strict increases apply; demotions happen solely via admin override.
func (s *Sessions) maybePromote(acc *Account) {
	lvl := ComputeLevel(acc.Balance, acc.DirectReferrals, s.levels())
	if lvl > acc.Level {
		acc.Level = lvl
		appendTx(acc, Transaction{
			Type:    TxLevelUp,
			Status:  StatusInfo,
			Amount:  float64(lvl),
			Message: fmt.Sprintf("Level up: tier %d reached", lvl),
		})
	}
}
