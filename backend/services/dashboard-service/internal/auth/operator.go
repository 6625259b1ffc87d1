package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Authenticator checks the single configured operator and issues tokens.
type Authenticator struct {
	username     string
	passwordHash []byte
	tokens       *TokenService
}

// NewAuthenticator returns authenticator. passwordHash is a bcrypt hash.
func NewAuthenticator(username, passwordHash string, tokens *TokenService) (*Authenticator, error) {
	if username == "" {
		return nil, errors.New("auth: operator username required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.New("auth: operator password hash is not a bcrypt hash")
	}
	return &Authenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
	}, nil
}

// Login verifies credentials and returns a signed token with its expiry.
func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.tokens.GenerateToken(a.username)
}

// HashPassword produces a bcrypt hash for operator configuration.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("auth: empty password")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
