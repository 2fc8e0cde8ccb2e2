package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
	"github.com/iho/folio/internal/usecase/mocks"
)

func TestConverter_Identity(t *testing.T) {
	rates := mocks.NewMockRateSource()
	rates.RateFunc = func(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
		t.Fatal("identity conversion must not call the rate source")
		return decimal.Zero, nil
	}

	conv := usecase.NewConverter(rates)

	amount := decimal.RequireFromString("123.45")
	got, err := conv.Convert(context.Background(), amount, "USD", "USD", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(amount) {
		t.Errorf("expected %s, got %s", amount, got)
	}
}

func TestConverter_Convert(t *testing.T) {
	rates := mocks.NewMockRateSource()
	rates.SetRate("USD", "GBP", decimal.RequireFromString("0.79"))

	conv := usecase.NewConverter(rates)

	got, err := conv.Convert(context.Background(), decimal.NewFromInt(100), "USD", "GBP", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("79")) {
		t.Errorf("expected 79, got %s", got)
	}
}

func TestConverter_RoundTrip(t *testing.T) {
	rates := mocks.NewMockRateSource()
	usdGbp := decimal.RequireFromString("0.789456")
	rates.SetRate("USD", "GBP", usdGbp)
	rates.SetRate("GBP", "USD", decimal.NewFromInt(1).DivRound(usdGbp, 12))

	conv := usecase.NewConverter(rates)
	ctx := context.Background()

	x := decimal.RequireFromString("1234.56")
	there, err := conv.Convert(ctx, x, "USD", "GBP", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := conv.Convert(ctx, there, "GBP", "USD", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Reciprocal rates round-trip within FX precision.
	if back.Sub(x).Abs().GreaterThan(decimal.RequireFromString("0.0001")) {
		t.Errorf("round trip drifted: %s -> %s -> %s", x, there, back)
	}
}

func TestConverter_Unavailable(t *testing.T) {
	conv := usecase.NewConverter(mocks.NewMockRateSource())

	_, err := conv.Convert(context.Background(), decimal.NewFromInt(100), "USD", "JPY", time.Time{})
	if !errors.Is(err, domain.ErrConversionUnavailable) {
		t.Errorf("expected ErrConversionUnavailable, got %v", err)
	}
}

func TestConverter_RejectsUnknownCurrency(t *testing.T) {
	conv := usecase.NewConverter(mocks.NewMockRateSource())

	_, err := conv.Convert(context.Background(), decimal.NewFromInt(1), "USD", "XYZ", time.Time{})
	if !errors.Is(err, domain.ErrInvalidCurrency) {
		t.Errorf("expected ErrInvalidCurrency, got %v", err)
	}
}
