package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour)
	userID := uuid.New()

	token, err := manager.Generate(userID, "alice@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := manager.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
}

func TestTokenManagerRejectsForeignAndExpiredTokens(t *testing.T) {
	token, err := NewTokenManager("other", time.Hour).Generate(uuid.New(), "a@b.co", true)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", time.Hour).Validate(token.AccessToken)
	assert.Error(t, err)

	expired, err := NewTokenManager("secret", -time.Minute).Generate(uuid.New(), "a@b.co", true)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", time.Hour).Validate(expired.AccessToken)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func TestValidateTOTPCode(t *testing.T) {
	cfg := DefaultMFAConfig()
	secret, url, err := GenerateTOTPSecret(cfg, "admin")
	require.NoError(t, err)
	assert.Contains(t, url, "otpauth://totp/")

	now := time.Now()
	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)

	assert.True(t, ValidateTOTPCode(secret, code, now, cfg))
	assert.False(t, ValidateTOTPCode(secret, code, now.Add(time.Hour), cfg))
}

func TestGenerators(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{5}$`), GenerateRandomCode(5))
	assert.Regexp(t, regexp.MustCompile(`^FUS-\d{8}-[A-Z0-9]{8}$`), GenerateReference("FUS"))

	token, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.Len(t, token, 32)

	assert.Equal(t, "UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkGNjUs77htjOMcEI", StripNonAlnum("UQDa2QRkf7Jj3dYqwRdU7XO6s21WvlvkG-NjUs77htjOMcEI"))
	assert.True(t, IsValidEmail("alice@example.com"))
	assert.False(t, IsValidEmail("alice@example"))
	assert.False(t, IsValidEmail("alice example.com"))
}

func TestFitsDecimal(t *testing.T) {
	tests := []struct {
		value            string
		precision, scale int32
		want             bool
	}{
		{"3.5", 30, 12, true},
		{"0.000000000001", 30, 12, true},
		{"0.0000000000001", 30, 12, false},
		{"999999999999999999.999999999999", 30, 12, true},
		{"1000000000000000000", 30, 12, false},
		{"-2.5", 5, 2, true},
		{"2.125", 5, 2, false},
		{"100", 5, 2, true},
		{"1000", 5, 2, false},
		{"7.5", 10, 4, true},
		{"7.50001", 10, 4, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FitsDecimal(decimal.RequireFromString(tt.value), tt.precision, tt.scale), tt.value)
	}
}
