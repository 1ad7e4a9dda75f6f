package stakeapi

import (
	"math"
	"strings"

	"github.com/dchest/uniuri"
	"github.com/google/uuid"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func EscapeMarkdownV2(text string) string {
	specialChars := []string{"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func newTxid() string {
	return uuid.New().String()
}

// newReferralCode draws 8-char codes until one is free.
func newReferralCode(store Store) string {
	for {
		code := uniuri.NewLenChars(8, []byte(codeAlphabet))
		if _, err := store.GetByReferralCode(code); err != nil {
			return code
		}
	}
}
