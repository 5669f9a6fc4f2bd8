package halcyon

// moderationActor resolves the actor and gates on role. Moderation actions
// also reject self-targeting.
func (svc *service) moderationActor(actorName, targetName string) (*Account, error) {
	actor, err := svc.accounts.FindByName(actorName)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanModerate() || actorName == targetName {
		return nil, ErrPermissionDenied
	}
	return svc.accounts.FindByName(targetName)
}

// SetFreeze marks the target frozen and moves its status to frozen. A
// repeated freeze is an explicit ErrAlreadyFrozen, not a silent no-op.
func (svc *service) SetFreeze(targetName, actorName string) error {
	target, err := svc.moderationActor(actorName, targetName)
	if err != nil {
		return err
	}
	if target.Frozen {
		return ErrAlreadyFrozen
	}
	etag := target.Etag()
	target.Frozen = true
	target.Status = StatusFrozen
	return svc.accounts.Update(target, etag)
}

// UndoFreeze restores the status the account held before freezing: active
// if the mail address was ever verified, notActivated otherwise.
func (svc *service) UndoFreeze(targetName, actorName string) error {
	target, err := svc.moderationActor(actorName, targetName)
	if err != nil {
		return err
	}
	if !target.Frozen {
		return nil
	}
	etag := target.Etag()
	target.Frozen = false
	if target.Activated {
		target.Status = StatusActive
	} else {
		target.Status = StatusNotActivated
	}
	return svc.accounts.Update(target, etag)
}

// SetSilence governs the silenced flag only; status is untouched.
func (svc *service) SetSilence(targetName, actorName string) error {
	target, err := svc.moderationActor(actorName, targetName)
	if err != nil {
		return err
	}
	if target.Silenced {
		return ErrAlreadySilenced
	}
	etag := target.Etag()
	target.Silenced = true
	return svc.accounts.Update(target, etag)
}

func (svc *service) UndoSilence(targetName, actorName string) error {
	target, err := svc.moderationActor(actorName, targetName)
	if err != nil {
		return err
	}
	if !target.Silenced {
		return nil
	}
	etag := target.Etag()
	target.Silenced = false
	return svc.accounts.Update(target, etag)
}
