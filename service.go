package halcyon

import (
	"fmt"
	"log"
	"time"
)

// Service is the full orchestration surface exposed to the controller.
// Every method returns either a success value or one of the package's
// sentinel errors; unexpected repository failures come back wrapped and
// unclassified.
type Service interface {
	Register(req RegisterRequest) (*Account, error)
	Authenticate(name, passphrase string) (TokenPair, error)

	EditNickname(etag, targetName, nickname, actorName string) error
	EditPassphrase(etag, targetName, passphrase, actorName string) error
	EditMail(etag, targetName, mail, actorName string) error
	EditBio(etag, targetName, bio, actorName string) error

	SetFreeze(targetName, actorName string) error
	UndoFreeze(targetName, actorName string) error
	SetSilence(targetName, actorName string) error
	UndoSilence(targetName, actorName string) error

	Follow(fromName, targetName string) error
	Unfollow(fromName, targetName string) error
	Block(fromName, targetName string) error
	Unblock(fromName, targetName string) error

	VerifyMail(name, token string) error
	ResendVerification(name string) error

	FetchByID(id ID) (*Account, error)
	FetchByName(name string) (*Account, error)
	FetchMany(ids []ID) ([]*Account, []ID, error)
	FetchFollowers(name string, offset, limit int) ([]FollowListEntry, error)
	FetchFollowing(name string, offset, limit int) ([]FollowListEntry, error)
}

type service struct {
	accounts AccountRepository
	follows  FollowRepository
	tokens   VerifyTokenRepository
	ids      IdentityGenerator
	enc      CredentialEncoder
	issuer   AuthTokenIssuer
	notifier NotificationDispatcher
}

func NewService(accounts AccountRepository, follows FollowRepository, tokens VerifyTokenRepository,
	ids IdentityGenerator, enc CredentialEncoder, issuer AuthTokenIssuer, notifier NotificationDispatcher) Service {
	return &service{
		accounts: accounts,
		follows:  follows,
		tokens:   tokens,
		ids:      ids,
		enc:      enc,
		issuer:   issuer,
		notifier: notifier,
	}
}

type RegisterRequest struct {
	Name       string `json:"name"`
	Mail       string `json:"mail"`
	Nickname   string `json:"nickname"`
	Passphrase string `json:"passphrase"`
	Bio        string `json:"bio"`
	Role       Role   `json:"role"`
}

// Register creates a not-yet-activated account, then mints and dispatches a
// verification token. The token write and dispatch run after the account
// write without a transaction; if either fails the account stands and
// ResendVerification recovers.
func (svc *service) Register(req RegisterRequest) (*Account, error) {
	acc, err := NewAccount(req.Name, req.Mail, req.Nickname, req.Bio, req.Role)
	if err != nil {
		return nil, err
	}

	if len(req.Passphrase) < minPassphraseLen {
		return nil, ErrWeakPassphrase
	}

	if err := svc.verifyNotInUse(req.Name, acc.Mail); err != nil {
		return nil, err
	}

	acc.ID = svc.ids.Issue()
	hash, err := svc.enc.Hash(req.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("hashing passphrase: %w", err)
	}
	acc.PassphraseHash = hash
	acc.CreatedAt = time.Now().UTC()

	if err := svc.accounts.Create(acc); err != nil {
		return nil, err
	}

	tok := NewVerifyToken(acc.ID, acc.Mail)
	if err := svc.tokens.Store(tok); err != nil {
		log.Printf("halcyon: storing verification token for %s: %v", acc.Name, err)
		return acc, nil
	}
	svc.dispatch(acc.Mail, tok.Token)

	return acc, nil
}

// verifyNotInUse is a pre-check only; the repository re-checks uniqueness
// atomically inside Create, so concurrent registrations for the same name
// yield exactly one success.
func (svc *service) verifyNotInUse(name, mail string) error {
	if a, _ := svc.accounts.FindByName(name); a != nil {
		return ErrNameTaken
	}
	if a, _ := svc.accounts.FindByMail(mail); a != nil {
		return ErrMailTaken
	}
	return nil
}

func (svc *service) dispatch(mail, token string) {
	if err := svc.notifier.Send(mail, token); err != nil {
		log.Printf("halcyon: dispatching verification mail to %s: %v", mail, err)
	}
}

// Authenticate verifies credentials and mints a token pair. It mutates
// nothing.
func (svc *service) Authenticate(name, passphrase string) (TokenPair, error) {
	acc, err := svc.accounts.FindByName(name)
	if err != nil {
		return TokenPair{}, err
	}
	if !svc.enc.Verify(passphrase, acc.PassphraseHash) {
		return TokenPair{}, ErrAuthenticationFailed
	}
	if acc.Frozen {
		return TokenPair{}, ErrLoginRejected
	}
	return svc.issuer.Mint(acc.ID)
}
