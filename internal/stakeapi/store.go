package stakeapi

// BatchSize caps one batched account lookup. Collaborators needing more ids
// must page through sequential batches.
const BatchSize = 30

// Store is the durable mapping from identity to account state. All mutation
// in the system is read-modify-write through this interface; callers
// serialize writes to the same account (see Sessions locks).
type Store interface {
	GetByID(id uint) (*Account, error)
	GetByEmail(email string) (*Account, error)
	GetByReferralCode(code string) (*Account, error)
	// GetByIDs loads up to BatchSize accounts at once.
	GetByIDs(ids []uint) ([]Account, error)
	// Put is an idempotent full replace of the account and its transactions.
	Put(acc *Account) error
	// EachAccountID walks every account id. Used by the accrual sweep; the
	// callback must not call back into the store under the same account lock.
	EachAccountID(fn func(id uint) error) error

	Referrals(referrerId uint) ([]Referral, error)
	PutReferral(ref *Referral) error

	EnqueuePending(req PendingRequest) error
	// ResolvePending atomically removes the queue entry if it is still
	// present. A missing id reports ErrNotFound; it is never silently
	// ignored, which is what makes concurrent double-approval impossible.
	ResolvePending(txid string) (PendingRequest, error)
	PendingRequests() ([]PendingRequest, error)

	PutAnnouncement(a *Announcement) error
	// UnreadAnnouncements is newest-first.
	UnreadAnnouncements(accountId uint) ([]Announcement, error)
}
