// Package rates fetches the street USD/toman price, with a per-day Redis
// cache so upstream is hit at most once per date.
package rates

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"finbot/internal/calendar"
	"finbot/internal/common/database"
	"finbot/internal/common/errors"
	"finbot/internal/common/http"
	"finbot/internal/common/logger"
	"finbot/internal/textnorm"
)

// priceRe picks the first comma-grouped figure out of the source page.
var priceRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+`)

const cacheKeyPrefix = "usd_price:"

type Config struct {
	SourceURL     string
	Timeout       time.Duration
	FallbackPrice decimal.Decimal
}

// Service resolves today's USD price in toman.
type Service struct {
	config *Config
	client *http.Client
	cache  *database.RedisClient
	logger logger.Logger
}

func NewService(config *Config, cache *database.RedisClient, log logger.Logger) *Service {
	return &Service{
		config: config,
		client: http.NewClient(config.Timeout),
		cache:  cache,
		logger: log.With(map[string]interface{}{
			"component": "rates",
		}),
	}
}

// USDPrice returns the cached price for now's date, fetching and caching
// on a miss. Fetch failures fall back to the configured static price so a
// conversion never blocks the conversation.
func (s *Service) USDPrice(ctx context.Context, now time.Time) decimal.Decimal {
	key := cacheKeyPrefix + calendar.Today(now)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			if price, err := decimal.NewFromString(cached); err == nil {
				return price
			}
		}
	}

	price, err := s.fetch(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("rate fetch failed, using fallback", map[string]interface{}{
			"fallback": s.config.FallbackPrice.String(),
		})
		return s.config.FallbackPrice
	}

	if s.cache != nil {
		// key expires at the end of the day with slack for clock skew
		if err := s.cache.Set(ctx, key, price.String(), 26*time.Hour); err != nil {
			s.logger.WithError(err).Warn("rate cache write failed", nil)
		}
	}

	s.logger.Info("usd price refreshed", map[string]interface{}{
		"price": price.String(),
	})
	return price
}

// ToToman converts a dollar amount using today's price.
func (s *Service) ToToman(ctx context.Context, dollars decimal.Decimal, now time.Time) decimal.Decimal {
	return dollars.Mul(s.USDPrice(ctx, now))
}

func (s *Service) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, s.config.SourceURL, nil)
	if err != nil {
		return decimal.Zero, errors.NewRateFetchFailedError(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, errors.NewRateFetchFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return decimal.Zero, errors.NewRateFetchFailedError(fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, errors.NewRateFetchFailedError(err)
	}

	match := priceRe.FindString(textnorm.Digits(string(body)))
	if match == "" {
		return decimal.Zero, errors.NewRateFetchFailedError(fmt.Errorf("no price figure in source page"))
	}

	price, err := decimal.NewFromString(textnorm.StripSeparators(match))
	if err != nil {
		return decimal.Zero, errors.NewRateFetchFailedError(err)
	}
	return price, nil
}
