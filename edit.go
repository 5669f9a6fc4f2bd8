package halcyon

import (
	"fmt"
	"strings"
)

// Each editor is a single optimistic-concurrency round trip: load the
// account, compare its recomputed etag to the caller-supplied one, apply
// one field mutation, and persist through the repository's CAS update. The
// caller re-fetches to learn the new etag before a subsequent edit.
//
// Only the account itself may edit its fields; cross-account edits are out
// of scope.
func (svc *service) edit(etag, targetName, actorName string, apply func(*Account) error) error {
	if actorName != targetName {
		return ErrPermissionDenied
	}

	acc, err := svc.accounts.FindByName(targetName)
	if err != nil {
		return err
	}
	if acc.Etag() != etag {
		return ErrEtagMismatch
	}
	if err := apply(acc); err != nil {
		return err
	}
	return svc.accounts.Update(acc, etag)
}

func (svc *service) EditNickname(etag, targetName, nickname, actorName string) error {
	return svc.edit(etag, targetName, actorName, func(a *Account) error {
		return a.SetNickname(nickname)
	})
}

func (svc *service) EditBio(etag, targetName, bio, actorName string) error {
	return svc.edit(etag, targetName, actorName, func(a *Account) error {
		return a.SetBio(bio)
	})
}

func (svc *service) EditPassphrase(etag, targetName, passphrase, actorName string) error {
	return svc.edit(etag, targetName, actorName, func(a *Account) error {
		if len(passphrase) < minPassphraseLen {
			return ErrWeakPassphrase
		}
		hash, err := svc.enc.Hash(passphrase)
		if err != nil {
			return fmt.Errorf("hashing passphrase: %w", err)
		}
		a.PassphraseHash = hash
		return nil
	})
}

func (svc *service) EditMail(etag, targetName, mail, actorName string) error {
	// Normalize before the uniqueness lookup: SetMail stores the trimmed
	// address, so checking the raw input would miss an existing record.
	m := strings.TrimSpace(mail)
	return svc.edit(etag, targetName, actorName, func(a *Account) error {
		if other, _ := svc.accounts.FindByMail(m); other != nil && other.ID != a.ID {
			return ErrMailTaken
		}
		return a.SetMail(m)
	})
}
