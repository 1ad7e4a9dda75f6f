package stakeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLevel(t *testing.T) {
	levels := DefaultLevels()
	cases := []struct {
		name      string
		balance   float64
		referrals uint
		want      uint
	}{
		{"empty account", 0, 0, 0},
		{"just under tier one", 99.99, 0, 0},
		{"tier one exact", 100, 0, 1},
		{"balance for two, referrals short", 500, 2, 1},
		{"tier two exact", 500, 3, 2},
		{"referrals for three, balance short", 1999.99, 10, 2},
		{"tier three", 2000, 10, 3},
		{"tier four", 10000, 30, 4},
		{"huge balance, no referrals", 50000, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeLevel(tc.balance, tc.referrals, levels))
		})
	}
}

func TestLevelByIndex(t *testing.T) {
	levels := DefaultLevels()
	assert.Equal(t, 0.01, LevelByIndex(1, levels).Rate)
	assert.Equal(t, Level{}, LevelByIndex(99, levels))
}

func TestLevelUpOnApprovedDeposit(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	snap := depositApproved(t, s, user.Id, 150)
	assert.Equal(t, uint(1), snap.Level)
	assert.Equal(t, 150.0, snap.Balance)

	// The promotion is logged as a level_up event carrying the new index.
	var levelUp *Transaction
	for i := range snap.Transactions {
		if snap.Transactions[i].Type == TxLevelUp {
			levelUp = &snap.Transactions[i]
		}
	}
	require.NotNil(t, levelUp)
	assert.Equal(t, StatusInfo, levelUp.Status)
	assert.Equal(t, 1.0, levelUp.Amount)
	assert.Equal(t, snap.Balance, balanceSum(snap))
}

func TestLevelIsStickyOnBalanceDip(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	depositApproved(t, s, user.Id, 150)
	_, err := s.UpdateWithdrawalAddress(user.Id, "TX9yD4k1")
	require.NoError(t, err)

	snap, err := s.SubmitWithdrawal(user.Id, 120)
	require.NoError(t, err)
	snap, err = s.ApproveWithdrawal(snap.Transactions[0].Txid)
	require.NoError(t, err)

	// Balance is back under the tier threshold, the level stays.
	assert.Equal(t, 30.0, snap.Balance)
	assert.Equal(t, uint(1), snap.Level)
}

func TestAdminOverrideIsTheOnlyDemotionPath(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)
	depositApproved(t, s, user.Id, 150)

	snap, err := s.AdjustLevel(user.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(0), snap.Level)
	assert.Equal(t, TxLevelUp, snap.Transactions[0].Type)
	assert.Equal(t, 0.0, snap.Transactions[0].Amount)

	_, err = s.AdjustLevel(user.Id, 99)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
