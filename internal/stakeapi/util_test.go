package stakeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.52, RoundFloat(1.515, 2))
	assert.Equal(t, 100.0, RoundFloat(99.999, 2))
	assert.Equal(t, -2.35, RoundFloat(-2.345, 2))
	assert.Equal(t, 0.0, RoundFloat(0.001, 2))
}

func TestNewReferralCodeAvoidsCollisions(t *testing.T) {
	store := NewMemStore()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := newReferralCode(store)
		require.Len(t, code, 8)
		require.False(t, seen[code])
		seen[code] = true
		require.NoError(t, store.Put(&Account{
			Email:        codeEmail(i),
			ReferralCode: code,
		}))
	}
}

func codeEmail(i int) string {
	return string(rune('a'+i%26)) + string(rune('a'+i/26)) + "@example.com"
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `deposit of 150\.00 \|approved\|`, EscapeMarkdownV2("deposit of 150.00 |approved|"))
}
