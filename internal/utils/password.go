package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost defines the cost for bcrypt password hashing
const PasswordHashCost = 12

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
