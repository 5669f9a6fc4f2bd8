package halcyon

// AccountRepository owns the durable representation of accounts. Create
// enforces name/mail uniqueness as one critical section; Update applies a
// compare-and-swap against the stored record's etag and fails with
// ErrEtagMismatch when a concurrent writer got there first.
type AccountRepository interface {
	Create(a *Account) error
	FindByID(id ID) (*Account, error)
	FindByName(name string) (*Account, error)
	FindByMail(mail string) (*Account, error)
	FindManyByID(ids []ID) ([]*Account, error)
	Update(a *Account, expectedEtag string) error
}

// FollowRepository owns directed follow edges and the block list. Create
// fails with ErrAlreadyFollowing on a duplicate pair; Delete fails with
// ErrNotFollowing when the edge is absent.
type FollowRepository interface {
	Create(f *AccountFollow) error
	Delete(from, target ID) error
	Exists(from, target ID) (bool, error)
	ListFollowers(id ID, offset, limit int) ([]AccountFollow, error)
	ListFollowing(id ID, offset, limit int) ([]AccountFollow, error)
	Block(from, target ID) error
	Unblock(from, target ID) error
	IsBlocking(from, target ID) (bool, error)
}

// VerifyTokenRepository owns pending mail-verification tokens, at most one
// per account. Store replaces any pending token; FindByAccount returns
// ErrTokenInvalid when none is pending.
type VerifyTokenRepository interface {
	Store(t *VerifyToken) error
	FindByAccount(id ID) (*VerifyToken, error)
	Delete(id ID) error
}

// NotificationDispatcher delivers a verification token to a mail address.
// Delivery is fire-and-forget: callers log failures and never surface them.
type NotificationDispatcher interface {
	Send(mail, token string) error
}
