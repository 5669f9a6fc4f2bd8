package halcyon

import (
	"log"
	"time"
)

// VerifyMail consumes the account's pending token exactly once. The token
// is deleted before the account update; a crash in between leaves a
// notActivated account with no token, which ResendVerification recovers.
func (svc *service) VerifyMail(name, token string) error {
	acc, err := svc.accounts.FindByName(name)
	if err != nil {
		return err
	}

	pending, err := svc.tokens.FindByAccount(acc.ID)
	if err != nil {
		return err
	}
	if pending.Token != token || pending.Mail != acc.Mail || pending.Expired(time.Now().UTC()) {
		return ErrTokenInvalid
	}

	if err := svc.tokens.Delete(acc.ID); err != nil {
		return err
	}

	etag := acc.Etag()
	acc.Activated = true
	if !acc.Frozen {
		acc.Status = StatusActive
	}
	return svc.accounts.Update(acc, etag)
}

// ResendVerification invalidates any pending token and issues a fresh one.
func (svc *service) ResendVerification(name string) error {
	acc, err := svc.accounts.FindByName(name)
	if err != nil {
		return err
	}
	if acc.Activated {
		return ErrAlreadyVerified
	}

	if err := svc.tokens.Delete(acc.ID); err != nil && err != ErrTokenInvalid {
		log.Printf("halcyon: invalidating stale token for %s: %v", acc.Name, err)
	}

	tok := NewVerifyToken(acc.ID, acc.Mail)
	if err := svc.tokens.Store(tok); err != nil {
		return err
	}
	svc.dispatch(acc.Mail, tok.Token)
	return nil
}
