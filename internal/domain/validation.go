package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxTickerLength      = 24
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "DKK": true, "PLN": true, "HKD": true,
}

// Tickers as brokerages report them: letters, digits, and the separators
// Yahoo-style symbols use (BRK.B, RIO.L, BTC-USD, ^GSPC).
var tickerRegex = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=^]*$`)

// ValidateTicker validates a ticker symbol.
func ValidateTicker(ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if ticker == "" {
		return fmt.Errorf("%w: ticker cannot be empty", ErrInvalidTicker)
	}

	if len(ticker) > MaxTickerLength {
		return fmt.Errorf("%w: ticker exceeds %d characters", ErrInvalidTicker, MaxTickerLength)
	}

	if !tickerRegex.MatchString(ticker) {
		return fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}

	return nil
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAccountName validates an account display name.
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccount)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccount, MaxAccountNameLength)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
