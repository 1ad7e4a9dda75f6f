package stakeapi

import (
	"time"

	"gorm.io/gorm"
)

type Account struct {
	Id                uint           `json:"id" gorm:"primarykey"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	Email             string         `gorm:"uniqueIndex;not null" json:"email"`
	CredentialRef     string         `json:"-"` // Opaque reference held by the identity service
	IsAdmin           bool           `json:"is_admin"`
	Balance           float64        `json:"balance"`
	Level             uint           `json:"level"`
	DirectReferrals   uint           `json:"direct_referrals"`
	ReferralCode      string         `gorm:"index" json:"referral_code"`
	ReferredBy        uint           `json:"referred_by"` // Referrer account id, 0 = none
	WithdrawalAddress string         `json:"withdrawal_address"`
	FirstDepositAt    *time.Time     `json:"first_deposit_at"`
	LastInterestAt    *time.Time     `json:"last_interest_at"`
	LastWithdrawalAt  *time.Time     `json:"last_withdrawal_at"`

	// Newest-first. Loaded and persisted together with the account.
	Transactions []Transaction `gorm:"foreignKey:AccountId" json:"transactions"`
}

// Referral is one referrer -> referee edge. Activated flips exactly once, on
// the referee's first qualifying deposit.
type Referral struct {
	CreatedAt    time.Time `json:"created_at"`
	ReferrerId   uint      `json:"referrer_id" gorm:"primaryKey;autoIncrement:false"`
	RefereeId    uint      `json:"referee_id" gorm:"primaryKey;autoIncrement:false"`
	RefereeEmail string    `json:"referee_email"`
	Activated    bool      `json:"activated"`
}

// Announcement is an admin message shown to one account.
type Announcement struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	AccountId uint      `json:"account_id" gorm:"index"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
}

// Snapshot is the read-only view handed to the presentation layer and the
// websocket sync channel. The store stays the single source of truth.
type Snapshot struct {
	Id                uint          `json:"id"`
	Email             string        `json:"email"`
	Balance           float64       `json:"balance"`
	Level             uint          `json:"level"`
	DirectReferrals   uint          `json:"direct_referrals"`
	ReferralCode      string        `json:"referral_code"`
	WithdrawalAddress string        `json:"withdrawal_address"`
	IsAdmin           bool          `json:"is_admin"`
	Transactions      []Transaction `json:"transactions"`
}

func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		Id:                a.Id,
		Email:             a.Email,
		Balance:           a.Balance,
		Level:             a.Level,
		DirectReferrals:   a.DirectReferrals,
		ReferralCode:      a.ReferralCode,
		WithdrawalAddress: a.WithdrawalAddress,
		IsAdmin:           a.IsAdmin,
		Transactions:      a.Transactions,
	}
}
