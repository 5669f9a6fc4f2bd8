package halcyon

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type ID string

type Role string

const (
	RoleNormal    Role = "normal"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// CanModerate reports whether the role may perform freeze/silence actions.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

type Status string

const (
	StatusNotActivated Status = "notActivated"
	StatusActive       Status = "active"
	StatusFrozen       Status = "frozen"
)

const (
	maxMailLen       = 254
	maxNicknameLen   = 64
	maxBioLen        = 500
	minPassphraseLen = 8
)

type Account struct {
	ID             ID
	Name           string
	Mail           string
	Nickname       string
	Bio            string
	PassphraseHash string
	Role           Role
	Frozen         bool
	Silenced       bool
	// Activated records that the mail address was verified at least once,
	// so an unfreeze can restore the right status.
	Activated bool
	Status    Status
	CreatedAt time.Time
}

var (
	ErrNotFound             = errors.New("account not found")
	ErrInvalidName          = errors.New("invalid account name")
	ErrReservedName         = errors.New("account name is reserved")
	ErrInvalidMail          = errors.New("invalid mail address")
	ErrNameTaken            = errors.New("account name in use")
	ErrMailTaken            = errors.New("mail address in use")
	ErrWeakPassphrase       = errors.New("passphrase does not meet requirements")
	ErrNicknameTooLong      = fmt.Errorf("nickname cannot be more than %d characters", maxNicknameLen)
	ErrBioTooLong           = fmt.Errorf("bio cannot be more than %d characters", maxBioLen)
	ErrEtagMismatch         = errors.New("account was modified concurrently")
	ErrAuthenticationFailed = errors.New("invalid account name or passphrase")
	ErrLoginRejected        = errors.New("account is frozen")
	ErrPermissionDenied     = errors.New("insufficient permission")
	ErrAlreadyFrozen        = errors.New("account already frozen")
	ErrAlreadySilenced      = errors.New("account already silenced")
)

var nameRegexp = regexp.MustCompile(`^\w{1,30}$`)

var mailRegexp = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// reservedNames are rejected at registration regardless of availability.
var reservedNames = map[string]bool{
	"admin":      true,
	"root":       true,
	"support":    true,
	"moderator":  true,
	"webmaster":  true,
	"postmaster": true,
}

// NewAccount validates name, mail and display fields and returns a new
// not-yet-activated Account. The ID, passphrase hash and creation time are
// assigned by the register service.
func NewAccount(name, mail, nickname, bio string, role Role) (*Account, error) {
	if !nameRegexp.MatchString(name) {
		return nil, ErrInvalidName
	}
	if reservedNames[strings.ToLower(name)] {
		return nil, ErrReservedName
	}

	if role == "" {
		role = RoleNormal
	}

	a := &Account{
		Name:   name,
		Role:   role,
		Status: StatusNotActivated,
	}
	if err := a.SetMail(mail); err != nil {
		return nil, err
	}
	if err := a.SetNickname(nickname); err != nil {
		return nil, err
	}
	if err := a.SetBio(bio); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Account) SetMail(mail string) error {
	m := strings.TrimSpace(mail)
	if len(m) > maxMailLen || !mailRegexp.MatchString(m) {
		return ErrInvalidMail
	}
	a.Mail = m
	return nil
}

func (a *Account) SetNickname(nickname string) error {
	n := strings.TrimSpace(nickname)
	if len(n) > maxNicknameLen {
		return ErrNicknameTooLong
	}
	a.Nickname = n
	return nil
}

func (a *Account) SetBio(bio string) error {
	b := strings.TrimSpace(bio)
	if len(b) > maxBioLen {
		return ErrBioTooLong
	}
	a.Bio = b
	return nil
}

// Etag derives the account's version fingerprint from its mutable fields.
// It is recomputed on every load and after every mutation, never stored as
// an independent counter.
func (a *Account) Etag() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%t\x00%t\x00%t\x00%s",
		a.Mail, a.Nickname, a.Bio, a.PassphraseHash,
		a.Frozen, a.Silenced, a.Activated, a.Status)
	return hex.EncodeToString(h.Sum(nil))
}
