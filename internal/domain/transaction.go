package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies where a transaction row came from.
type Source string

const (
	SourceSnapTrade Source = "snaptrade"
	SourceManual    Source = "manual"
	SourceImport    Source = "import"
)

// Valid reports whether the source is a recognized value.
func (s Source) Valid() bool {
	switch s {
	case SourceSnapTrade, SourceManual, SourceImport:
		return true
	}
	return false
}

// Transaction is one buy/sell event in the append-only ledger. Volume is
// signed: positive is a buy, negative is a sell. Rows are never edited or
// deleted; corrections are new offsetting rows, a policy left to the caller.
type Transaction struct {
	ID         string
	AccountID  string
	Ticker     string
	TradeDate  time.Time
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Costs      decimal.Decimal
	Currency   string
	Source     Source
	ExternalID *string
	CreatedAt  time.Time
}

// Validate rejects malformed transactions before they reach the ledger.
// A zero volume is meaningless and a negative price is malformed; the sign
// of the volume is otherwise not validated against the price.
func (t *Transaction) Validate() error {
	if err := ValidateTicker(t.Ticker); err != nil {
		return err
	}
	if err := ValidateCurrency(t.Currency); err != nil {
		return err
	}
	if t.Volume.IsZero() {
		return ErrInvalidVolume
	}
	if t.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if t.Costs.IsNegative() {
		return ErrInvalidCosts
	}
	if !t.Source.Valid() {
		return ErrInvalidSource
	}
	if t.Source == SourceSnapTrade && (t.ExternalID == nil || *t.ExternalID == "") {
		return ErrMissingExternalID
	}
	if t.TradeDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsBuy reports whether the transaction adds to the position.
func (t *Transaction) IsBuy() bool {
	return t.Volume.IsPositive()
}
