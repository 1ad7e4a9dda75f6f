package stakeapi

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentity struct {
	password string
}

func (s *stubIdentity) Register(email, password string) (string, error) {
	s.password = password
	return "cred-" + email, nil
}

func (s *stubIdentity) Verify(email, password, credentialRef string) error {
	if password != s.password {
		return errors.New("mismatch")
	}
	return nil
}

func newTestSessions(t *testing.T) (*Sessions, *MemStore) {
	t.Helper()
	t.Setenv("ADMIN_REF_CODE", "ROOT-CODE")
	store := NewMemStore()
	return NewSessions(store, nil), store
}

// signUpAdmin creates the root admin account via the reserved referral code.
func signUpAdmin(t *testing.T, s *Sessions) Snapshot {
	t.Helper()
	admin, err := s.SignUp("admin@example.com", "secret", "ROOT-CODE")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)
	return admin
}

// signUpUser creates a regular account referred by the given code.
func signUpUser(t *testing.T, s *Sessions, email, code string) Snapshot {
	t.Helper()
	snap, err := s.SignUp(email, "secret", code)
	require.NoError(t, err)
	return snap
}

// depositApproved submits and approves a deposit in one step.
func depositApproved(t *testing.T, s *Sessions, accountId uint, amount float64) Snapshot {
	t.Helper()
	snap, err := s.SubmitDeposit(accountId, amount)
	require.NoError(t, err)
	snap, err = s.ApproveDeposit(snap.Transactions[0].Txid)
	require.NoError(t, err)
	return snap
}

// balanceSum recomputes the balance from the transaction feed the way the
// ledger defines it.
func balanceSum(snap Snapshot) float64 {
	var sum float64
	for i := range snap.Transactions {
		if snap.Transactions[i].CountsTowardBalance() {
			sum += snap.Transactions[i].Amount
		}
	}
	return RoundFloat(sum, 2)
}

func TestSignUpCreatesLevelZeroAccount(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)

	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)
	assert.Equal(t, uint(0), user.Level)
	assert.Equal(t, 0.0, user.Balance)
	assert.False(t, user.IsAdmin)
	assert.Len(t, user.ReferralCode, 8)
	require.Len(t, user.Transactions, 1)
	assert.Equal(t, TxAccountCreated, user.Transactions[0].Type)
	assert.Equal(t, StatusInfo, user.Transactions[0].Status)
}

func TestSignUpRejectsUnknownReferralCode(t *testing.T) {
	s, _ := newTestSessions(t)
	_, err := s.SignUp("alice@example.com", "secret", "NO-SUCH")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	_, err := s.SignUp("alice@example.com", "other", admin.ReferralCode)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSignUpRecordsInactiveReferralEdge(t *testing.T) {
	s, store := newTestSessions(t)
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	edges, err := store.Referrals(admin.Id)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, user.Id, edges[0].RefereeId)
	assert.False(t, edges[0].Activated)

	// Counting happens only at activation.
	snap, err := s.SnapshotByID(admin.Id)
	require.NoError(t, err)
	assert.Equal(t, uint(0), snap.DirectReferrals)
}

func TestConcurrentMutationsNeverLoseUpdates(t *testing.T) {
	s, store := newTestSessions(t)
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)
	depositApproved(t, s, user.Id, 150)
	// Open the first interest window so a credit can race the approvals.
	backdate(t, store, user.Id, 25*time.Hour)

	const deposits = 10
	txids := make([]string, 0, deposits)
	for i := 0; i < deposits; i++ {
		snap, err := s.SubmitDeposit(user.Id, 20)
		require.NoError(t, err)
		txids = append(txids, snap.Transactions[0].Txid)
	}

	// Approvals, interest credits and admin corrections all hit the same
	// account at once; the per-account lock must serialize every
	// read-modify-write so no balance update is lost.
	var wg sync.WaitGroup
	for _, txid := range txids {
		wg.Add(1)
		go func(txid string) {
			defer wg.Done()
			_, err := s.ApproveDeposit(txid)
			assert.NoError(t, err)
		}(txid)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AdjustBalance(user.Id, 10, "promo credit")
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreditInterest(user.Id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := s.SnapshotByID(user.Id)
	require.NoError(t, err)
	// Every mutation went through the ledger exactly once.
	assert.Equal(t, balanceSum(snap), snap.Balance)
	assert.GreaterOrEqual(t, snap.Balance, 150.0+deposits*20+5*10)

	var approved, adjusted, credited int
	for _, tx := range snap.Transactions {
		switch {
		case tx.Type == TxDeposit && tx.Status == StatusApproved:
			approved++
		case tx.Type == TxAdminAdjusted:
			adjusted++
		case tx.Type == TxInterestCredit:
			credited++
		}
	}
	assert.Equal(t, deposits+1, approved)
	assert.Equal(t, 5, adjusted)
	// The 24h window closes after the first credit; overlapping ticks must
	// back off instead of crediting twice.
	assert.Equal(t, 1, credited)
}

func TestSignInVerifiesAgainstIdentityService(t *testing.T) {
	s, _ := newTestSessions(t)
	s.Identity = &stubIdentity{}
	admin := signUpAdmin(t, s)
	signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	snap, err := s.SignIn("alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", snap.Email)

	_, err = s.SignIn("alice@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = s.SignIn("nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrNotFound)
}
