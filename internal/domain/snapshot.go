package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType is the contract type of an option holding.
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// OptionContract carries the option fields a brokerage reports for an
// option position. All fields are set together or not at all.
type OptionContract struct {
	Type       OptionType
	Strike     decimal.Decimal
	Expiration time.Time
	Underlying string
}

// Snapshot is one dated statement of holdings for an (account, ticker)
// pair, as delivered by a brokerage sync. Snapshots are append-only: a new
// sync inserts a new dated row and never edits a prior one. The latest row
// by SnapshotDate is the authoritative statement of current holdings.
type Snapshot struct {
	ID           string
	AccountID    string
	Ticker       string
	SnapshotDate time.Time
	Quantity     decimal.Decimal
	AvgCost      *decimal.Decimal
	MarketValue  decimal.Decimal
	Currency     string
	Option       *OptionContract
	CreatedAt    time.Time
}

// Validate checks the snapshot fields that the engine owns. SnapshotDate is
// truncated to a calendar day by the caller before validation.
func (s *Snapshot) Validate() error {
	if err := ValidateTicker(s.Ticker); err != nil {
		return err
	}
	if err := ValidateCurrency(s.Currency); err != nil {
		return err
	}
	if s.Quantity.IsNegative() {
		return ErrInvalidQuantity
	}
	if s.AvgCost != nil && s.AvgCost.IsNegative() {
		return ErrInvalidPrice
	}
	if s.Option != nil {
		if s.Option.Type != OptionTypeCall && s.Option.Type != OptionTypePut {
			return ErrInvalidOption
		}
		if s.Option.Underlying == "" {
			return ErrInvalidOption
		}
	}
	return nil
}
