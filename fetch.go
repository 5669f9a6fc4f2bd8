package halcyon

// FollowListEntry is the display record materialized for follower and
// following listings.
type FollowListEntry struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Bio      string `json:"bio"`
}

func (svc *service) FetchByID(id ID) (*Account, error) {
	return svc.accounts.FindByID(id)
}

func (svc *service) FetchByName(name string) (*Account, error) {
	return svc.accounts.FindByName(name)
}

// FetchMany resolves a batch of IDs and reports partial failure explicitly:
// the second return lists the IDs that did not resolve instead of dropping
// them silently.
func (svc *service) FetchMany(ids []ID) ([]*Account, []ID, error) {
	accounts, err := svc.accounts.FindManyByID(ids)
	if err != nil {
		return nil, nil, err
	}

	resolved := make(map[ID]bool, len(accounts))
	for _, a := range accounts {
		resolved[a.ID] = true
	}
	var missing []ID
	for _, id := range ids {
		if !resolved[id] {
			missing = append(missing, id)
		}
	}
	return accounts, missing, nil
}

func (svc *service) FetchFollowers(name string, offset, limit int) ([]FollowListEntry, error) {
	acc, err := svc.accounts.FindByName(name)
	if err != nil {
		return nil, err
	}
	edges, err := svc.follows.ListFollowers(acc.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]ID, len(edges))
	for i, e := range edges {
		ids[i] = e.FromID
	}
	return svc.materialize(ids)
}

func (svc *service) FetchFollowing(name string, offset, limit int) ([]FollowListEntry, error) {
	acc, err := svc.accounts.FindByName(name)
	if err != nil {
		return nil, err
	}
	edges, err := svc.follows.ListFollowing(acc.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]ID, len(edges))
	for i, e := range edges {
		ids[i] = e.TargetID
	}
	return svc.materialize(ids)
}

// materialize joins edge endpoints against the account repository,
// preserving edge order. Endpoints whose account vanished between the edge
// read and the join are omitted from the listing.
func (svc *service) materialize(ids []ID) ([]FollowListEntry, error) {
	accounts, err := svc.accounts.FindManyByID(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[ID]*Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	entries := make([]FollowListEntry, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			continue
		}
		entries = append(entries, FollowListEntry{
			ID:       a.ID,
			Name:     a.Name,
			Nickname: a.Nickname,
			Bio:      a.Bio,
		})
	}
	return entries, nil
}
