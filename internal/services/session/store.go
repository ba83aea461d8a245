package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fuswap/backend/internal/ton"
	"github.com/fuswap/backend/internal/utils"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("wallet session not found")

const keyPrefix = "wallet_session:"

// WalletSession ties a browser client to a connected TON wallet. The
// referral code it arrived with is applied to every swap of the session.
type WalletSession struct {
	Token        string    `json:"token"`
	Address      string    `json:"address"`
	ReferralCode string    `json:"referral_code,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// Store keeps wallet sessions in Redis with a sliding TTL
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewStore creates a session store
func NewStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *Store {
	return &Store{client: client, ttl: ttl, log: log}
}

// Open validates address and starts a session for its canonical raw form
func (s *Store) Open(ctx context.Context, address, referralCode string) (*WalletSession, error) {
	address, err := ton.Canonical(address)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	sess := &WalletSession{
		Token:        token,
		Address:      address,
		ReferralCode: referralCode,
		ConnectedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("error saving wallet session: %w", err)
	}

	s.log.Info("wallet session opened", zap.String("wallet", address))
	return sess, nil
}

// Get loads a session and extends its TTL
func (s *Store) Get(ctx context.Context, token string) (*WalletSession, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	payload, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading wallet session: %w", err)
	}

	var sess WalletSession
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("error decoding wallet session: %w", err)
	}

	if err := s.client.Expire(ctx, keyPrefix+token, s.ttl).Err(); err != nil {
		s.log.Warn("failed to extend wallet session", zap.Error(err))
	}
	return &sess, nil
}

// Close ends a session
func (s *Store) Close(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("error closing wallet session: %w", err)
	}
	return nil
}
