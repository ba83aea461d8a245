package exchange

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fuswap/backend/internal/models"
	"github.com/fuswap/backend/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidRate = errors.New("rate must be greater than zero")
	ErrInvalidPair = errors.New("invalid currency pair")
)

// rates are stored as decimal(30,12), on exchange_rates and on the
// snapshot a transfer intent keeps
const (
	ratePrecision = 30
	rateScale     = 12
)

var pairPattern = regexp.MustCompile(`^[A-Z0-9]{2,12}_[A-Z0-9]{2,12}$`)

// RateCache is a read-through cache in front of the rate table
type RateCache interface {
	Get(ctx context.Context, pair string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, pair string, rate decimal.Decimal) error
	Delete(ctx context.Context, pair string) error
}

// RateService resolves and updates administrator-managed pair rates
type RateService struct {
	db       *gorm.DB
	cache    RateCache
	defaults map[string]decimal.Decimal
	log      *zap.Logger
}

// DefaultRates returns the built-in defaults used when a pair has no stored rate
func DefaultRates(tonUSDT, tonFUS decimal.Decimal) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		models.PairTONUSDT: tonUSDT,
		models.PairTONFUS:  tonFUS,
	}
}

// NewRateService creates a rate service. cache may be nil.
func NewRateService(db *gorm.DB, cache RateCache, defaults map[string]decimal.Decimal, log *zap.Logger) *RateService {
	return &RateService{
		db:       db,
		cache:    cache,
		defaults: defaults,
		log:      log,
	}
}

// NormalizePair upper-cases a pair and accepts "/" or "-" as separator
func NormalizePair(pair string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(pair))
	p = strings.NewReplacer("/", "_", "-", "_").Replace(p)
	if !pairPattern.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPair, pair)
	}
	return p, nil
}

// Default returns the built-in rate for pair. Pairs without their own default
// share the TON_USDT default.
func (s *RateService) Default(pair string) decimal.Decimal {
	if rate, ok := s.defaults[pair]; ok {
		return rate
	}
	return s.defaults[models.PairTONUSDT]
}

// Resolve returns the stored rate for pair, or its default when none is stored
func (s *RateService) Resolve(ctx context.Context, pair string) (decimal.Decimal, error) {
	pair, err := NormalizePair(pair)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		rate, ok, err := s.cache.Get(ctx, pair)
		if err != nil {
			s.log.Warn("rate cache read failed", zap.String("pair", pair), zap.Error(err))
		} else if ok {
			return rate, nil
		}
	}

	var record models.ExchangeRate
	err = s.db.WithContext(ctx).Where("pair = ?", pair).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.Default(pair), nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("error loading rate %s: %w", pair, err)
	}
	if !record.Rate.IsPositive() {
		s.log.Error("stored rate is not positive, using default", zap.String("pair", pair), zap.String("rate", record.Rate.String()))
		return s.Default(pair), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, pair, record.Rate); err != nil {
			s.log.Warn("rate cache write failed", zap.String("pair", pair), zap.Error(err))
		}
	}
	return record.Rate, nil
}

// Update stores rate for pair, inserting the row if it does not exist
func (s *RateService) Update(ctx context.Context, pair string, rate decimal.Decimal) (*models.ExchangeRate, error) {
	pair, err := NormalizePair(pair)
	if err != nil {
		return nil, err
	}
	if !rate.IsPositive() {
		return nil, ErrInvalidRate
	}
	if !utils.FitsDecimal(rate, ratePrecision, rateScale) {
		return nil, fmt.Errorf("%w: at most %d decimal places and %d integer digits", ErrInvalidRate, rateScale, ratePrecision-rateScale)
	}

	record := &models.ExchangeRate{
		Pair:      pair,
		Rate:      rate,
		UpdatedAt: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return nil, fmt.Errorf("error saving rate %s: %w", pair, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, pair); err != nil {
			s.log.Warn("rate cache invalidation failed", zap.String("pair", pair), zap.Error(err))
		}
	}

	s.log.Info("exchange rate updated", zap.String("pair", pair), zap.String("rate", rate.String()))
	return record, nil
}

// List returns every stored rate ordered by pair
func (s *RateService) List(ctx context.Context) ([]models.ExchangeRate, error) {
	var rates []models.ExchangeRate
	if err := s.db.WithContext(ctx).Order("pair").Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("error listing rates: %w", err)
	}
	return rates, nil
}

// SeedDefaults inserts the default rates for pairs that have no stored row
func (s *RateService) SeedDefaults(ctx context.Context) error {
	now := time.Now().UTC()
	for pair, rate := range s.defaults {
		record := &models.ExchangeRate{Pair: pair, Rate: rate, UpdatedAt: now}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
		if err != nil {
			return fmt.Errorf("error seeding rate %s: %w", pair, err)
		}
	}
	return nil
}
