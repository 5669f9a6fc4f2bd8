package halcyon

import (
	"sort"
	"sync"
)

// The in-memory repositories back tests and single-process deployments.
// They store copies, never the caller's pointers, so a caller mutating a
// loaded account cannot bypass the CAS update path.

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[ID]*Account
}

func NewAccountRepository() AccountRepository {
	return &accountRepository{accounts: map[ID]*Account{}}
}

func (repo *accountRepository) Create(a *Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	// Uniqueness check and insert under one lock: concurrent registrations
	// for the same name yield exactly one success.
	for _, v := range repo.accounts {
		if v.Name == a.Name {
			return ErrNameTaken
		}
		if v.Mail == a.Mail {
			return ErrMailTaken
		}
	}

	c := *a
	repo.accounts[a.ID] = &c
	return nil
}

func (repo *accountRepository) FindByID(id ID) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if a, ok := repo.accounts[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindByName(name string) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, v := range repo.accounts {
		if v.Name == name {
			c := *v
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindByMail(mail string) (*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, v := range repo.accounts {
		if v.Mail == mail {
			c := *v
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (repo *accountRepository) FindManyByID(ids []ID) ([]*Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var found []*Account
	for _, id := range ids {
		if a, ok := repo.accounts[id]; ok {
			c := *a
			found = append(found, &c)
		}
	}
	return found, nil
}

func (repo *accountRepository) Update(a *Account, expectedEtag string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Etag() != expectedEtag {
		return ErrEtagMismatch
	}

	// Mail is mutable, so uniqueness must hold on update too; the
	// service-level pre-check can race, this check under the write lock
	// cannot.
	for id, v := range repo.accounts {
		if id != a.ID && v.Mail == a.Mail {
			return ErrMailTaken
		}
	}

	c := *a
	repo.accounts[a.ID] = &c
	return nil
}

type followPair struct {
	from, target ID
}

type followRepository struct {
	mu     sync.RWMutex
	edges  map[followPair]AccountFollow
	blocks map[followPair]bool
}

func NewFollowRepository() FollowRepository {
	return &followRepository{
		edges:  map[followPair]AccountFollow{},
		blocks: map[followPair]bool{},
	}
}

func (repo *followRepository) Create(f *AccountFollow) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	p := followPair{f.FromID, f.TargetID}
	if _, ok := repo.edges[p]; ok {
		return ErrAlreadyFollowing
	}
	repo.edges[p] = *f
	return nil
}

func (repo *followRepository) Delete(from, target ID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	p := followPair{from, target}
	if _, ok := repo.edges[p]; !ok {
		return ErrNotFollowing
	}
	delete(repo.edges, p)
	return nil
}

func (repo *followRepository) Exists(from, target ID) (bool, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	_, ok := repo.edges[followPair{from, target}]
	return ok, nil
}

func (repo *followRepository) ListFollowers(id ID, offset, limit int) ([]AccountFollow, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var edges []AccountFollow
	for p, e := range repo.edges {
		if p.target == id {
			edges = append(edges, e)
		}
	}
	return pageEdges(edges, offset, limit), nil
}

func (repo *followRepository) ListFollowing(id ID, offset, limit int) ([]AccountFollow, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var edges []AccountFollow
	for p, e := range repo.edges {
		if p.from == id {
			edges = append(edges, e)
		}
	}
	return pageEdges(edges, offset, limit), nil
}

func pageEdges(edges []AccountFollow, offset, limit int) []AccountFollow {
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].CreatedAt.Before(edges[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(edges) {
		return nil
	}
	edges = edges[offset:]
	if limit > 0 && limit < len(edges) {
		edges = edges[:limit]
	}
	return edges
}

func (repo *followRepository) Block(from, target ID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.blocks[followPair{from, target}] = true
	return nil
}

func (repo *followRepository) Unblock(from, target ID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.blocks, followPair{from, target})
	return nil
}

func (repo *followRepository) IsBlocking(from, target ID) (bool, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	return repo.blocks[followPair{from, target}], nil
}

type verifyTokenRepository struct {
	mu     sync.RWMutex
	tokens map[ID]VerifyToken
}

func NewVerifyTokenRepository() VerifyTokenRepository {
	return &verifyTokenRepository{tokens: map[ID]VerifyToken{}}
}

func (repo *verifyTokenRepository) Store(t *VerifyToken) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.tokens[t.AccountID] = *t
	return nil
}

func (repo *verifyTokenRepository) FindByAccount(id ID) (*VerifyToken, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if t, ok := repo.tokens[id]; ok {
		return &t, nil
	}
	return nil, ErrTokenInvalid
}

func (repo *verifyTokenRepository) Delete(id ID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.tokens[id]; !ok {
		return ErrTokenInvalid
	}
	delete(repo.tokens, id)
	return nil
}
