package domain

import "errors"

var (
	// Not-found conditions
	ErrAccountNotFound = errors.New("account not found")
	ErrNoHoldings      = errors.New("no holdings snapshot for ticker")

	// Invalid input
	ErrInvalidTicker     = errors.New("invalid ticker symbol")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidQuantity   = errors.New("quantity cannot be negative")
	ErrInvalidVolume     = errors.New("volume cannot be zero")
	ErrInvalidPrice      = errors.New("price cannot be negative")
	ErrInvalidCosts      = errors.New("transaction costs cannot be negative")
	ErrInvalidDate       = errors.New("date is required")
	ErrInvalidSource     = errors.New("unknown transaction source")
	ErrInvalidOption     = errors.New("invalid option contract fields")
	ErrInvalidAccount    = errors.New("invalid account fields")
	ErrMissingExternalID = errors.New("external id is required for snaptrade transactions")

	// Conversion/lookup failures: never defaulted to a number
	ErrPriceUnavailable      = errors.New("price unavailable")
	ErrConversionUnavailable = errors.New("no exchange rate for currency pair")
)
