package halcyon

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// CredentialEncoder one-way hashes passphrases and verifies them against a
// stored hash. The hash format is opaque to the rest of the core.
type CredentialEncoder interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type bcryptEncoder struct {
	cost int
}

func NewCredentialEncoder() CredentialEncoder {
	return &bcryptEncoder{cost: 12}
}

func (e *bcryptEncoder) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), e.cost)
	if err != nil {
		return "", errors.New("error hashing passphrase")
	}
	return string(hash), nil
}

func (e *bcryptEncoder) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
