package halcyon

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const verifyTokenTTL = 30 * time.Minute

// VerifyToken is a single-use secret proving control of a mail address,
// bound to one account. It is consumed by VerifyMail and replaced wholesale
// by ResendVerification.
type VerifyToken struct {
	AccountID ID
	Mail      string
	Token     string
	ExpiresAt time.Time
}

var (
	ErrTokenInvalid    = errors.New("verification token invalid")
	ErrAlreadyVerified = errors.New("mail address already verified")
)

func NewVerifyToken(accountID ID, mail string) *VerifyToken {
	return &VerifyToken{
		AccountID: accountID,
		Mail:      mail,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(verifyTokenTTL),
	}
}

func (t *VerifyToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
