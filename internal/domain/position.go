package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a resolved current holding for one ticker. Quantity,
// MarketValue and Currency come from the latest snapshot. CurrentPrice and
// the fields derived from it are nil when the live price lookup is
// unavailable; a missing price is never reported as zero. When a requested
// currency conversion has no rate, the monetary fields stay in the native
// currency and ConversionUnavailable is set, so a caller spots the mixed
// currency instead of summing it blindly.
type Position struct {
	Ticker                string
	Quantity              decimal.Decimal
	AvgCost               *decimal.Decimal
	CostBasis             *decimal.Decimal
	CurrentPrice          *decimal.Decimal
	CurrentValue          *decimal.Decimal
	MarketValue           decimal.Decimal
	PnL                   *decimal.Decimal
	PnLPct                *decimal.Decimal
	Currency              string
	PriceSource           string
	ConversionUnavailable bool
	Option                *OptionContract
	AsOf                  time.Time
}

// AccountSummary is the per-account slice of a portfolio summary. When an
// account's lookups fail the summary carries Err instead of totals, so a
// portfolio-wide query can return partial results.
type AccountSummary struct {
	AccountID    string
	AccountName  string
	AccountType  AccountType
	Currency     string
	Positions    []Position
	MarketValue  decimal.Decimal
	CurrentValue *decimal.Decimal
	CostBasis    *decimal.Decimal
	PnL          *decimal.Decimal
	Err          string
}

// PortfolioSummary aggregates positions across accounts after currency
// normalization into a single reporting currency.
type PortfolioSummary struct {
	Currency     string
	Accounts     []AccountSummary
	MarketValue  decimal.Decimal
	CurrentValue *decimal.Decimal
	CostBasis    *decimal.Decimal
	PnL          *decimal.Decimal
	FXRates      map[string]decimal.Decimal
	AsOf         time.Time
}

// Discrepancy reports a divergence between what the latest snapshot says an
// account holds and what the transaction ledger implies it holds.
// Gap = SnapshotQuantity - LedgerImpliedQuantity, exactly.
type Discrepancy struct {
	Ticker                string
	SnapshotQuantity      decimal.Decimal
	LedgerImpliedQuantity decimal.Decimal
	Gap                   decimal.Decimal
}
