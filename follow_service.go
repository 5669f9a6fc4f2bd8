package halcyon

import "time"

// Follow creates the directed edge fromName → targetName. Calling it twice
// is an error, not a no-op; under a concurrent duplicate the loser observes
// ErrAlreadyFollowing from the repository's uniqueness check.
func (svc *service) Follow(fromName, targetName string) error {
	if fromName == targetName {
		return ErrCantFollowSelf
	}

	from, target, err := svc.resolvePair(fromName, targetName)
	if err != nil {
		return err
	}

	blocked, err := svc.follows.IsBlocking(target.ID, from.ID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrFollowingBlocked
	}

	exists, err := svc.follows.Exists(from.ID, target.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyFollowing
	}

	return svc.follows.Create(&AccountFollow{
		FromID:    from.ID,
		TargetID:  target.ID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) Unfollow(fromName, targetName string) error {
	if fromName == targetName {
		return ErrCantUnfollowSelf
	}

	from, target, err := svc.resolvePair(fromName, targetName)
	if err != nil {
		return err
	}
	return svc.follows.Delete(from.ID, target.ID)
}

// Block puts targetName on fromName's block list and severs any existing
// follow edge from the blocked account.
func (svc *service) Block(fromName, targetName string) error {
	from, target, err := svc.resolvePair(fromName, targetName)
	if err != nil {
		return err
	}
	if err := svc.follows.Block(from.ID, target.ID); err != nil {
		return err
	}
	if err := svc.follows.Delete(target.ID, from.ID); err != nil && err != ErrNotFollowing {
		return err
	}
	return nil
}

func (svc *service) Unblock(fromName, targetName string) error {
	from, target, err := svc.resolvePair(fromName, targetName)
	if err != nil {
		return err
	}
	return svc.follows.Unblock(from.ID, target.ID)
}

func (svc *service) resolvePair(fromName, targetName string) (*Account, *Account, error) {
	from, err := svc.accounts.FindByName(fromName)
	if err != nil {
		return nil, nil, err
	}
	target, err := svc.accounts.FindByName(targetName)
	if err != nil {
		return nil, nil, err
	}
	return from, target, nil
}
