package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/usecase"
)

// CachedSource wraps a price/rate source with a shared cache so repeated
// holdings queries within the TTL reuse one provider call. Provider errors
// are never cached: an unavailable quote stays a live miss.
type CachedSource struct {
	prices   usecase.PriceSource
	rates    usecase.RateSource
	cache    usecase.Cache
	priceTTL time.Duration
	fxTTL    time.Duration
	log      zerolog.Logger
}

// NewCachedSource creates a new CachedSource.
func NewCachedSource(
	prices usecase.PriceSource,
	rates usecase.RateSource,
	cache usecase.Cache,
	priceTTL, fxTTL time.Duration,
	log zerolog.Logger,
) *CachedSource {
	if priceTTL <= 0 {
		priceTTL = 5 * time.Minute
	}
	if fxTTL <= 0 {
		fxTTL = time.Hour
	}

	return &CachedSource{
		prices:   prices,
		rates:    rates,
		cache:    cache,
		priceTTL: priceTTL,
		fxTTL:    fxTTL,
		log:      log.With().Str("component", "marketdata_cache").Logger(),
	}
}

type cachedQuote struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
}

// CurrentPrice implements usecase.PriceSource.
func (s *CachedSource) CurrentPrice(ctx context.Context, ticker string) (usecase.Quote, error) {
	key := "quote:" + ticker

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached cachedQuote
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return usecase.Quote{
				Ticker:   ticker,
				Price:    cached.Price,
				Currency: cached.Currency,
				Source:   "cache",
			}, nil
		}
	}

	quote, err := s.prices.CurrentPrice(ctx, ticker)
	if err != nil {
		return usecase.Quote{}, err
	}

	s.store(ctx, key, cachedQuote{Price: quote.Price, Currency: quote.Currency, Source: quote.Source}, s.priceTTL)

	return quote, nil
}

// Rate implements usecase.RateSource. The cache key carries the date so a
// historical rate never shadows today's.
func (s *CachedSource) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	key := "fx:" + from + ":" + to + ":" + asOf.Format("2006-01-02")

	if raw, err := s.cache.Get(ctx, key); err == nil {
		if rate, err := decimal.NewFromString(raw); err == nil {
			return rate, nil
		}
	}

	rate, err := s.rates.Rate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.cache.Set(ctx, key, rate.String(), s.fxTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache fx rate")
	}

	return rate, nil
}

func (s *CachedSource) store(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache quote")
	}
}
