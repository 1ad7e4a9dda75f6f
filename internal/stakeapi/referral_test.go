package stakeapi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralActivatesOnFirstQualifyingDeposit(t *testing.T) {
	s, store := newTestSessions(t)
	admin := signUpAdmin(t, s)
	referrer := signUpUser(t, s, "referrer@example.com", admin.ReferralCode)
	referee := signUpUser(t, s, "referee@example.com", referrer.ReferralCode)

	depositApproved(t, s, referee.Id, 150)

	snap, err := s.SnapshotByID(referrer.Id)
	require.NoError(t, err)
	assert.Equal(t, uint(1), snap.DirectReferrals)
	assert.Equal(t, TxNewReferral, snap.Transactions[0].Type)
	assert.Equal(t, StatusInfo, snap.Transactions[0].Status)
	assert.Contains(t, snap.Transactions[0].Message, "referee@example.com")

	edges, err := store.Referrals(referrer.Id)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Activated)
}

func TestReferralActivatesExactlyOnce(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	referrer := signUpUser(t, s, "referrer@example.com", admin.ReferralCode)
	referee := signUpUser(t, s, "referee@example.com", referrer.ReferralCode)

	depositApproved(t, s, referee.Id, 150)
	depositApproved(t, s, referee.Id, 500)

	snap, err := s.SnapshotByID(referrer.Id)
	require.NoError(t, err)
	assert.Equal(t, uint(1), snap.DirectReferrals)
}

func TestNonQualifyingDepositDoesNotActivate(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	referrer := signUpUser(t, s, "referrer@example.com", admin.ReferralCode)
	referee := signUpUser(t, s, "referee@example.com", referrer.ReferralCode)

	depositApproved(t, s, referee.Id, 50)

	snap, err := s.SnapshotByID(referrer.Id)
	require.NoError(t, err)
	assert.Equal(t, uint(0), snap.DirectReferrals)
}

func TestReferralCanPromoteTheReferrer(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	referrer := signUpUser(t, s, "referrer@example.com", admin.ReferralCode)
	depositApproved(t, s, referrer.Id, 600)

	// Balance qualifies for tier two, the referral count does not yet.
	snap, err := s.SnapshotByID(referrer.Id)
	require.NoError(t, err)
	assert.Equal(t, uint(1), snap.Level)

	for i := 0; i < 3; i++ {
		referee := signUpUser(t, s, fmt.Sprintf("referee%d@example.com", i), referrer.ReferralCode)
		depositApproved(t, s, referee.Id, 150)
	}

	snap, err = s.SnapshotByID(referrer.Id)
	require.NoError(t, err)
	assert.Equal(t, uint(3), snap.DirectReferrals)
	assert.Equal(t, uint(2), snap.Level)
}

func TestDownlineBatchesLargeTeams(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	referrer := signUpUser(t, s, "referrer@example.com", admin.ReferralCode)

	// More direct referees than one lookup batch can carry.
	count := BatchSize + 5
	var lastCode string
	for i := 0; i < count; i++ {
		referee := signUpUser(t, s, fmt.Sprintf("referee%d@example.com", i), referrer.ReferralCode)
		lastCode = referee.ReferralCode
	}
	// One grandchild gives the second level a single entry.
	signUpUser(t, s, "grandchild@example.com", lastCode)

	downline, err := s.Downline(referrer.Id)
	require.NoError(t, err)
	require.Len(t, downline, 3)
	assert.Len(t, downline[0], count)
	assert.Len(t, downline[1], 1)
	assert.Empty(t, downline[2])
}

func TestDownlineUnknownAccount(t *testing.T) {
	s, _ := newTestSessions(t)
	_, err := s.Downline(404)
	assert.ErrorIs(t, err, ErrNotFound)
}
