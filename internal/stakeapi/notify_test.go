package stakeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxReviewMessageEscapesDisplayFields(t *testing.T) {
	msg := txReviewMessage(txReviewPayload{
		Txid:      "3f2a1b77-9c0d-4e21-8f6a-0d5b2c9e1a44",
		AccountId: 7,
		Type:      TxWithdrawal,
		Amount:    -150,
		Email:     "alice.w@example.com",
	}, "https://cp.example.com")

	// Display fields carry escaped dashes and dots, urls stay raw.
	assert.Contains(t, msg, `[Transaction: 3f2a1b77\-9c0d\-4e21\-8f6a\-0d5b2c9e1a44]`)
	assert.Contains(t, msg, "(https://cp.example.com/requests/3f2a1b77-9c0d-4e21-8f6a-0d5b2c9e1a44)")
	assert.Contains(t, msg, `alice\.w@example\.com`)
	assert.Contains(t, msg, `\-150\.00`)
}
