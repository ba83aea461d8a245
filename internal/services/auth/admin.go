package auth

import (
	"errors"
	"time"

	"github.com/fuswap/backend/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrAdminDisabled = errors.New("admin login is not configured")
	ErrTOTPRequired  = errors.New("one-time code required")
	ErrInvalidTOTP   = errors.New("invalid one-time code")
)

// AdminAuthenticator checks the administrator password and, when a TOTP
// secret is configured, the one-time code.
type AdminAuthenticator struct {
	passwordHash string
	totpSecret   string
	verifier     CredentialVerifier
	mfa          utils.MFAConfig
	now          func() time.Time
	log          *zap.Logger
}

// NewAdminAuthenticator creates an admin authenticator. An empty
// passwordHash disables admin login.
func NewAdminAuthenticator(passwordHash, totpSecret string, verifier CredentialVerifier, log *zap.Logger) *AdminAuthenticator {
	return &AdminAuthenticator{
		passwordHash: passwordHash,
		totpSecret:   totpSecret,
		verifier:     verifier,
		mfa:          utils.DefaultMFAConfig(),
		now:          time.Now,
		log:          log,
	}
}

// TOTPEnabled reports whether a second factor is required
func (a *AdminAuthenticator) TOTPEnabled() bool {
	return a.totpSecret != ""
}

// Login verifies the admin password and one-time code
func (a *AdminAuthenticator) Login(password, code string) error {
	if a.passwordHash == "" {
		return ErrAdminDisabled
	}
	if err := a.verifier.Verify(a.passwordHash, password); err != nil {
		a.log.Warn("admin login rejected", zap.String("reason", "password"))
		return ErrInvalidCredentials
	}
	if !a.TOTPEnabled() {
		return nil
	}
	if code == "" {
		return ErrTOTPRequired
	}
	if !utils.ValidateTOTPCode(a.totpSecret, code, a.now(), a.mfa) {
		a.log.Warn("admin login rejected", zap.String("reason", "totp"))
		return ErrInvalidTOTP
	}
	return nil
}
