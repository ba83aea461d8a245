package auth

import (
	"errors"

	"github.com/fuswap/backend/internal/utils"
)

// ErrInvalidCredentials is returned when a password does not match
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifier hashes and checks passwords
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// BcryptVerifier is a CredentialVerifier backed by bcrypt
type BcryptVerifier struct {
	Cost int
}

// NewBcryptVerifier returns a verifier using the default cost
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{Cost: utils.PasswordHashCost}
}

// Hash returns the bcrypt hash of password
func (v *BcryptVerifier) Hash(password string) (string, error) {
	return utils.HashPassword(password, v.Cost)
}

// Verify returns ErrInvalidCredentials unless password matches hash
func (v *BcryptVerifier) Verify(hash, password string) error {
	if hash == "" || !utils.CheckPasswordHash(password, hash) {
		return ErrInvalidCredentials
	}
	return nil
}
