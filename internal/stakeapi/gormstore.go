package stakeapi

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	err := db.AutoMigrate(
		&Account{},
		&Transaction{},
		&Referral{},
		&PendingRequest{},
		&Announcement{},
	)
	if err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) getAccount(query string, arg interface{}) (*Account, error) {
	var acc Account
	res := s.db.
		Preload("Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where(query, arg).
		First(&acc)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, res.Error
	}
	return &acc, nil
}

func (s *GormStore) GetByID(id uint) (*Account, error) {
	return s.getAccount("id = ?", id)
}

func (s *GormStore) GetByEmail(email string) (*Account, error) {
	return s.getAccount("email = ?", email)
}

func (s *GormStore) GetByReferralCode(code string) (*Account, error) {
	return s.getAccount("referral_code <> '' AND referral_code = ?", code)
}

func (s *GormStore) GetByIDs(ids []uint) ([]Account, error) {
	if len(ids) > BatchSize {
		return nil, Validationf("batch of %d exceeds the %d id limit", len(ids), BatchSize)
	}
	var accounts []Account
	res := s.db.Where("id IN ?", ids).Find(&accounts)
	if res.Error != nil {
		return nil, res.Error
	}
	return accounts, nil
}

func (s *GormStore) Put(acc *Account) error {
	res := s.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(acc)
	return res.Error
}

func (s *GormStore) EachAccountID(fn func(id uint) error) error {
	var ids []uint
	res := s.db.Model(&Account{}).Order("id ASC").Pluck("id", &ids)
	if res.Error != nil {
		return res.Error
	}
	for _, id := range ids {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *GormStore) Referrals(referrerId uint) ([]Referral, error) {
	var edges []Referral
	res := s.db.Where("referrer_id = ?", referrerId).
		Order("created_at DESC").
		Find(&edges)
	if res.Error != nil {
		return nil, res.Error
	}
	return edges, nil
}

func (s *GormStore) PutReferral(ref *Referral) error {
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "referrer_id"}, {Name: "referee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"referee_email", "activated"}),
	}).Create(ref)
	return res.Error
}

func (s *GormStore) EnqueuePending(req PendingRequest) error {
	res := s.db.Create(&req)
	return res.Error
}

func (s *GormStore) ResolvePending(txid string) (PendingRequest, error) {
	var req PendingRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("txid = ?", txid).
			First(&req)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return res.Error
		}
		res = tx.Where("txid = ?", txid).Delete(&PendingRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return PendingRequest{}, err
	}
	return req, nil
}

func (s *GormStore) PendingRequests() ([]PendingRequest, error) {
	var out []PendingRequest
	res := s.db.Order("created_at ASC").Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	return out, nil
}

func (s *GormStore) PutAnnouncement(a *Announcement) error {
	res := s.db.Save(a)
	return res.Error
}

func (s *GormStore) UnreadAnnouncements(accountId uint) ([]Announcement, error) {
	var out []Announcement
	res := s.db.
		Where("account_id = ? AND read = ?", accountId, false).
		Order("created_at DESC").
		Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	return out, nil
}
