package halcyon

import (
	"errors"
	"time"
)

// AccountFollow is a directed edge meaning "FromID follows TargetID".
// Presence is the only state; the pair is unique.
type AccountFollow struct {
	FromID    ID
	TargetID  ID
	CreatedAt time.Time
}

var (
	ErrCantFollowSelf   = errors.New("can't follow yourself")
	ErrCantUnfollowSelf = errors.New("can't unfollow yourself")
	ErrAlreadyFollowing = errors.New("already following account")
	ErrNotFollowing     = errors.New("not following account")
	ErrFollowingBlocked = errors.New("account has blocked you")
)
