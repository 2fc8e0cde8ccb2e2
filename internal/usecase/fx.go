package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
)

// Converter is the Currency Normalizer. It converts monetary values across
// currencies through a rate source; identity conversions never hit the
// source, and a missing rate is surfaced, never defaulted to 1.0.
type Converter struct {
	rates RateSource
}

// NewConverter creates a new Converter.
func NewConverter(rates RateSource) *Converter {
	return &Converter{rates: rates}
}

// Convert converts amount from one currency to another at asOf (zero means
// now). Returns domain.ErrConversionUnavailable when no rate exists.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return amount, nil
	}

	if err := domain.ValidateCurrency(from); err != nil {
		return decimal.Zero, err
	}
	if err := domain.ValidateCurrency(to); err != nil {
		return decimal.Zero, err
	}

	rate, err := c.rates.Rate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrConversionUnavailable, from, to)
	}

	return amount.Mul(rate), nil
}

// RateFor returns the raw rate for a pair, with the same identity and
// failure semantics as Convert.
func (c *Converter) RateFor(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := c.rates.Rate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrConversionUnavailable, from, to)
	}

	return rate, nil
}
