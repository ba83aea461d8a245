package utils

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// MFAConfig holds configuration for TOTP second factors
type MFAConfig struct {
	Issuer    string
	Period    uint
	Skew      uint
	Digits    otp.Digits
	Algorithm otp.Algorithm
}

// DefaultMFAConfig returns the default MFA configuration
func DefaultMFAConfig() MFAConfig {
	return MFAConfig{
		Issuer:    "FusSwap",
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateTOTPSecret creates a new TOTP key for accountName and returns the
// base32 secret and its otpauth:// URL.
func GenerateTOTPSecret(config MFAConfig, accountName string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Issuer,
		AccountName: accountName,
		Period:      config.Period,
		Digits:      config.Digits,
		Algorithm:   config.Algorithm,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTPCode validates a TOTP code at t
func ValidateTOTPCode(secret, code string, t time.Time, config MFAConfig) bool {
	code = strings.ReplaceAll(code, " ", "")

	valid, err := totp.ValidateCustom(code, secret, t.UTC(), totp.ValidateOpts{
		Period:    config.Period,
		Skew:      config.Skew,
		Digits:    config.Digits,
		Algorithm: config.Algorithm,
	})
	if err != nil {
		return false
	}
	return valid
}
