package halcyon

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair bundles a short-lived access token with a long-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthTokenIssuer mints signed token pairs for an account ID. The token
// contents are opaque to the services beyond "mint for this account".
type AuthTokenIssuer interface {
	Mint(id ID) (TokenPair, error)
}

type sessionClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"use"`
}

type jwtIssuer struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTIssuer(signingKey []byte) AuthTokenIssuer {
	return &jwtIssuer{
		signingKey: signingKey,
		accessTTL:  15 * time.Minute,
		refreshTTL: 30 * 24 * time.Hour,
	}
}

func (i *jwtIssuer) Mint(id ID) (TokenPair, error) {
	access, err := i.sign(id, "access", i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(id, "refresh", i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *jwtIssuer) sign(id ID, use string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "halcyon",
			Subject:   string(id),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		TokenUse: use,
	})
	return token.SignedString(i.signingKey)
}

// ParseAccessToken returns the account ID carried by a valid access token.
func ParseAccessToken(tokenString string, signingKey []byte) (ID, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.TokenUse != "access" {
		return "", errors.New("invalid access token")
	}
	return ID(claims.Subject), nil
}
