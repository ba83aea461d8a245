package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Coin is a TON-ecosystem token as reported by CoinGecko
type Coin struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	Image          string          `json:"image"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	MarketCap      decimal.Decimal `json:"market_cap"`
	PriceChange24h decimal.Decimal `json:"price_change_percentage_24h"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
	Rank           int             `json:"rank"`
}

// Service provides TON-ecosystem market data with an in-memory cache
type Service struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	log        *zap.Logger

	mutex     sync.RWMutex
	coins     []Coin
	fetchedAt time.Time
	now       func() time.Time
}

// NewService creates a market data service against the CoinGecko v3 API
func NewService(baseURL string, cacheTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   cacheTTL,
		log:        log,
		now:        time.Now,
	}
}

// Coins returns the cached coin list, refreshing it when stale. If CoinGecko
// cannot be reached the last good list is served, or the static fallback
// when nothing has been fetched yet.
func (s *Service) Coins(ctx context.Context) ([]Coin, error) {
	s.mutex.RLock()
	coins, fetchedAt := s.coins, s.fetchedAt
	s.mutex.RUnlock()

	if coins != nil && s.now().Sub(fetchedAt) < s.cacheTTL {
		return coins, nil
	}

	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("market data refresh failed", zap.Error(err))
		if coins != nil {
			return coins, nil
		}
		return fallbackCoins(), nil
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.coins, nil
}

// Refresh fetches the TON-ecosystem market list and replaces the cache
func (s *Service) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&category=ton-ecosystem&order=market_cap_desc&per_page=50&page=1&sparkline=false", s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market data API returned status code %d", resp.StatusCode)
	}

	var coins []Coin
	if err := json.NewDecoder(resp.Body).Decode(&coins); err != nil {
		return fmt.Errorf("failed to decode market data response: %w", err)
	}
	for i := range coins {
		coins[i].Rank = i + 1
	}

	s.mutex.Lock()
	s.coins = coins
	s.fetchedAt = s.now()
	s.mutex.Unlock()

	s.log.Debug("market data refreshed", zap.Int("coins", len(coins)))
	return nil
}

func fallbackCoins() []Coin {
	coin := func(id, name, symbol, image, price, mcap, change, volume string, rank int) Coin {
		return Coin{
			ID:             id,
			Name:           name,
			Symbol:         symbol,
			Image:          image,
			CurrentPrice:   decimal.RequireFromString(price),
			MarketCap:      decimal.RequireFromString(mcap),
			PriceChange24h: decimal.RequireFromString(change),
			TotalVolume:    decimal.RequireFromString(volume),
			Rank:           rank,
		}
	}
	return []Coin{
		coin("the-open-network", "Toncoin", "ton", "https://assets.coingecko.com/coins/images/17980/large/ton_symbol.png", "6.12", "21053000000", "2.5", "58000000", 1),
		coin("tegro", "Tegro", "tgr", "https://assets.coingecko.com/coins/images/26631/large/tgr.png", "0.0142", "14200000", "-1.2", "1200000", 2),
		coin("ton-doge", "TON DOGE", "tondoge", "https://assets.coingecko.com/coins/images/29069/large/ton_doge.png", "0.00000352", "8520000", "5.8", "520000", 3),
		coin("notcoin", "Notcoin", "not", "https://assets.coingecko.com/coins/images/31457/large/not.png", "0.0112", "7800000", "-3.4", "420000", 4),
		coin("tonup", "Tonup", "tonup", "https://assets.coingecko.com/coins/images/31458/large/tonup.png", "0.00000124", "6240000", "1.7", "180000", 5),
		coin("ton-token", "TON Token", "ton", "https://assets.coingecko.com/coins/images/31459/large/ton_token.png", "0.0023", "5800000", "0.8", "120000", 6),
	}
}
