package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/services/auth"
	"github.com/fuswap/backend/internal/utils"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrReferralCodeTaken   = errors.New("referral code is already in use")
	ErrInvalidReferralCode = errors.New("referral code must be at least 5 characters of letters, digits or hyphens")
	ErrPasswordTooShort    = fmt.Errorf("password must be at least %d characters", utils.MinPasswordLength)
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidUsername     = errors.New("username must be 1 to 50 characters")
)

const (
	minReferralCodeLength = 5
	maxReferralCodeLength = 64
	referralSuffixLength  = 5
	codeAttempts          = 5
)

var referralCodePattern = regexp.MustCompile(`^[a-zA-Z0-9\-]+$`)

// ValidateReferralCode checks the format of a user-chosen referral code
func ValidateReferralCode(code string) error {
	if len(code) < minReferralCodeLength || len(code) > maxReferralCodeLength || !referralCodePattern.MatchString(code) {
		return ErrInvalidReferralCode
	}
	return nil
}

// GenerateReferralCode builds a code like "ALI-7K3QZ" from a username
func GenerateReferralCode(username string) string {
	prefix := strings.ToUpper(strings.ReplaceAll(slug.Make(username), "-", ""))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "FUS"
	}
	return prefix + "-" + utils.GenerateRandomCode(referralSuffixLength)
}

// RegisterInput holds the fields needed to register a user
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UserService manages registered referrers
type UserService struct {
	db       *gorm.DB
	verifier auth.CredentialVerifier
	log      *zap.Logger
}

// NewUserService creates a user service
func NewUserService(db *gorm.DB, verifier auth.CredentialVerifier, log *zap.Logger) *UserService {
	return &UserService{db: db, verifier: verifier, log: log}
}

// Register validates input and creates a user with a fresh referral code
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" || len(username) > 50 {
		return nil, ErrInvalidUsername
	}
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	taken, err := s.exists(ctx, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	code, err := s.uniqueReferralCode(ctx, username)
	if err != nil {
		return nil, err
	}

	hash, err := s.verifier.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ReferralCode:   code,
		CommissionRate: models.DefaultCommissionRate,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("referral_code", code))
	return user, nil
}

// Authenticate returns the user owning email when password matches
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if err := s.verifier.Verify(user.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}
	return &user, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

// GetByReferralCode returns the owner of a referral code
func (s *UserService) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return s.findOne(ctx, "referral_code = ?", code)
}

// List returns all users, newest first
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// Count returns the number of registered users
func (s *UserService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

// UpdateReferralCode replaces a user's referral code. Past referral
// transactions keep the code they were recorded with.
func (s *UserService) UpdateReferralCode(ctx context.Context, id uuid.UUID, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if err := ValidateReferralCode(code); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ReferralCode == code {
		return user, nil
	}

	taken, err := s.exists(ctx, "referral_code = ? AND id <> ?", code, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrReferralCodeTaken
	}

	if err := s.db.WithContext(ctx).Model(user).Update("referral_code", code).Error; err != nil {
		return nil, fmt.Errorf("error updating referral code: %w", err)
	}
	user.ReferralCode = code
	return user, nil
}

// SetPassword replaces a user's password
func (s *UserService) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	if len(password) < utils.MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := s.verifier.Hash(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("error updating password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &user, nil
}

func (s *UserService) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking users: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) uniqueReferralCode(ctx context.Context, username string) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := GenerateReferralCode(username)
		taken, err := s.exists(ctx, "referral_code = ?", code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrReferralCodeTaken
}
