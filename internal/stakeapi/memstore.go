package stakeapi

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is the in-memory Store used by tests and local development. It
// keeps the same contract as the gorm store, including atomic pending-queue
// resolution.
type MemStore struct {
	mu            sync.RWMutex
	nextId        uint
	nextAnnounce  uint
	accounts      map[uint]*Account
	byEmail       map[string]uint
	byCode        map[string]uint
	referrals     map[uint][]Referral
	pending       map[string]PendingRequest
	announcements map[uint][]Announcement
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextId:        1,
		nextAnnounce:  1,
		accounts:      map[uint]*Account{},
		byEmail:       map[string]uint{},
		byCode:        map[string]uint{},
		referrals:     map[uint][]Referral{},
		pending:       map[string]PendingRequest{},
		announcements: map[uint][]Announcement{},
	}
}

func (s *MemStore) GetByID(id uint) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(acc), nil
}

func (s *MemStore) GetByEmail(email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(s.accounts[id]), nil
}

func (s *MemStore) GetByReferralCode(code string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(s.accounts[id]), nil
}

func (s *MemStore) GetByIDs(ids []uint) ([]Account, error) {
	if len(ids) > BatchSize {
		return nil, Validationf("batch of %d exceeds the %d id limit", len(ids), BatchSize)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0, len(ids))
	for _, id := range ids {
		if acc, ok := s.accounts[id]; ok {
			out = append(out, *copyAccount(acc))
		}
	}
	return out, nil
}

func (s *MemStore) Put(acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.Id == 0 {
		acc.Id = s.nextId
		s.nextId++
		acc.CreatedAt = time.Now()
	}
	if prev, ok := s.accounts[acc.Id]; ok && prev.Email != acc.Email {
		delete(s.byEmail, prev.Email)
	}
	acc.UpdatedAt = time.Now()
	s.accounts[acc.Id] = copyAccount(acc)
	s.byEmail[acc.Email] = acc.Id
	if acc.ReferralCode != "" {
		s.byCode[acc.ReferralCode] = acc.Id
	}
	return nil
}

func (s *MemStore) EachAccountID(fn func(id uint) error) error {
	s.mu.RLock()
	ids := make([]uint, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStore) Referrals(referrerId uint) ([]Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Referral(nil), s.referrals[referrerId]...), nil
}

func (s *MemStore) PutReferral(ref *Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges := s.referrals[ref.ReferrerId]
	for i := range edges {
		if edges[i].RefereeId == ref.RefereeId {
			if ref.CreatedAt.IsZero() {
				ref.CreatedAt = edges[i].CreatedAt
			}
			edges[i] = *ref
			return nil
		}
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	s.referrals[ref.ReferrerId] = append(edges, *ref)
	return nil
}

func (s *MemStore) EnqueuePending(req PendingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[req.Txid] = req
	return nil
}

func (s *MemStore) ResolvePending(txid string) (PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[txid]
	if !ok {
		return PendingRequest{}, ErrNotFound
	}
	delete(s.pending, txid)
	return req, nil
}

func (s *MemStore) PendingRequests() ([]PendingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PendingRequest, 0, len(s.pending))
	for _, req := range s.pending {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return strings.Compare(out[i].Txid, out[j].Txid) < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) PutAnnouncement(a *Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Id == 0 {
		a.Id = s.nextAnnounce
		s.nextAnnounce++
		a.CreatedAt = time.Now()
	}
	list := s.announcements[a.AccountId]
	for i := range list {
		if list[i].Id == a.Id {
			list[i] = *a
			return nil
		}
	}
	s.announcements[a.AccountId] = append(list, *a)
	return nil
}

func (s *MemStore) UnreadAnnouncements(accountId uint) ([]Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Announcement
	for _, a := range s.announcements[accountId] {
		if !a.Read {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id > out[j].Id
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func copyAccount(acc *Account) *Account {
	cp := *acc
	cp.Transactions = append([]Transaction(nil), acc.Transactions...)
	return &cp
}
