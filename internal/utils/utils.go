package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"regexp"
	"strings"
)

const upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonAlnumRegexp = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// GenerateRandomCode returns length characters drawn from A-Z and 0-9
func GenerateRandomCode(length int) string {
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(upperAlnum))))
		if err != nil {
			panic(err)
		}
		result[i] = upperAlnum[n.Int64()]
	}
	return string(result)
}

// GenerateSecureToken returns a hex token carrying n random bytes
func GenerateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IsValidEmail checks the basic shape of an email address
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// StripNonAlnum removes every character outside a-z, A-Z and 0-9
func StripNonAlnum(s string) string {
	return nonAlnumRegexp.ReplaceAllString(s, "")
}
