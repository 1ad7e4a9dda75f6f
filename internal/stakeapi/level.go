package stakeapi

// Level is one configuration tier. Tiers are totally ordered by Index and
// never mutated at runtime; admins replace the whole table via app settings.
type Level struct {
	Index         uint    `json:"index"`
	Rate          float64 `json:"rate"` // Daily interest, decimal fraction
	MinBalance    float64 `json:"min_balance"`
	MinReferrals  uint    `json:"min_referrals"`
	WithdrawLimit float64 `json:"withdraw_limit"` // Per withdrawal, 30-day window
}

// DefaultLevels is the built-in tier table. Index 0 is the entry tier and
// earns nothing.
func DefaultLevels() []Level {
	return []Level{
		{Index: 0},
		{Index: 1, Rate: 0.01, MinBalance: 100, MinReferrals: 0, WithdrawLimit: 150},
		{Index: 2, Rate: 0.012, MinBalance: 500, MinReferrals: 3, WithdrawLimit: 500},
		{Index: 3, Rate: 0.015, MinBalance: 2000, MinReferrals: 10, WithdrawLimit: 2000},
		{Index: 4, Rate: 0.02, MinBalance: 10000, MinReferrals: 30, WithdrawLimit: 10000},
	}
}

// ComputeLevel returns the highest tier whose balance and referral thresholds
// are both met, falling back to tier 0. Callers apply the result only on a
// strict increase; levels never decrease automatically.
func ComputeLevel(balance float64, directReferrals uint, levels []Level) uint {
	for i := len(levels) - 1; i > 0; i-- {
		lvl := levels[i]
		if balance >= lvl.MinBalance && directReferrals >= lvl.MinReferrals {
			return lvl.Index
		}
	}
	return 0
}

// LevelByIndex returns the tier for index, or tier 0 if the index is out of
// the configured table.
func LevelByIndex(index uint, levels []Level) Level {
	for _, lvl := range levels {
		if lvl.Index == index {
			return lvl
		}
	}
	return Level{}
}
