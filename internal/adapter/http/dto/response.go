package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	BaseCurrency string     `json:"base_currency"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		OwnerID:      a.OwnerID,
		Name:         a.Name,
		Type:         string(a.Type),
		BaseCurrency: a.BaseCurrency,
		LastSyncedAt: a.LastSyncedAt,
		CreatedAt:    a.CreatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// OptionContractResponse describes an option position.
type OptionContractResponse struct {
	Type       string          `json:"type"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration time.Time       `json:"expiration"`
	Underlying string          `json:"underlying"`
}

func optionFromDomain(o *domain.OptionContract) *OptionContractResponse {
	if o == nil {
		return nil
	}

	return &OptionContractResponse{
		Type:       string(o.Type),
		Strike:     o.Strike,
		Expiration: o.Expiration,
		Underlying: o.Underlying,
	}
}

// SnapshotResponse represents a holdings snapshot row.
type SnapshotResponse struct {
	ID           string                  `json:"id"`
	AccountID    string                  `json:"account_id"`
	Ticker       string                  `json:"ticker"`
	SnapshotDate time.Time               `json:"snapshot_date"`
	Quantity     decimal.Decimal         `json:"quantity"`
	AvgCost      *decimal.Decimal        `json:"avg_cost,omitempty"`
	MarketValue  decimal.Decimal         `json:"market_value"`
	Currency     string                  `json:"currency"`
	Option       *OptionContractResponse `json:"option,omitempty"`
	Created      bool                    `json:"created"`
	CreatedAt    time.Time               `json:"created_at"`
}

// SnapshotFromDomain converts a domain snapshot to a response. created
// reports whether this write appended a new row or hit an existing one.
func SnapshotFromDomain(s *domain.Snapshot, created bool) *SnapshotResponse {
	return &SnapshotResponse{
		ID:           s.ID,
		AccountID:    s.AccountID,
		Ticker:       s.Ticker,
		SnapshotDate: s.SnapshotDate,
		Quantity:     s.Quantity,
		AvgCost:      s.AvgCost,
		MarketValue:  s.MarketValue,
		Currency:     s.Currency,
		Option:       optionFromDomain(s.Option),
		Created:      created,
		CreatedAt:    s.CreatedAt,
	}
}

// SnapshotsFromDomain converts snapshot history rows.
func SnapshotsFromDomain(snapshots []*domain.Snapshot) []*SnapshotResponse {
	result := make([]*SnapshotResponse, len(snapshots))
	for i, s := range snapshots {
		result[i] = SnapshotFromDomain(s, true)
	}
	return result
}

// TransactionResponse represents a ledger row.
type TransactionResponse struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	Ticker     string          `json:"ticker"`
	TradeDate  time.Time       `json:"trade_date"`
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	Costs      decimal.Decimal `json:"costs"`
	Currency   string          `json:"currency"`
	Source     string          `json:"source"`
	ExternalID *string         `json:"external_id,omitempty"`
	Created    bool            `json:"created"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction, created bool) *TransactionResponse {
	return &TransactionResponse{
		ID:         t.ID,
		AccountID:  t.AccountID,
		Ticker:     t.Ticker,
		TradeDate:  t.TradeDate,
		Price:      t.Price,
		Volume:     t.Volume,
		Costs:      t.Costs,
		Currency:   t.Currency,
		Source:     string(t.Source),
		ExternalID: t.ExternalID,
		Created:    created,
		CreatedAt:  t.CreatedAt,
	}
}

// TransactionsFromDomain converts ledger rows to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t, true)
	}
	return result
}

// SyncBatchResponse reports what a sync delivery changed.
type SyncBatchResponse struct {
	SnapshotsRecorded    int `json:"snapshots_recorded"`
	SnapshotsDeduped     int `json:"snapshots_deduped"`
	TransactionsRecorded int `json:"transactions_recorded"`
	TransactionsDeduped  int `json:"transactions_deduped"`
}

// SyncBatchFromUseCase converts a batch result to a response.
func SyncBatchFromUseCase(r *usecase.SyncBatchResult) *SyncBatchResponse {
	return &SyncBatchResponse{
		SnapshotsRecorded:    r.SnapshotsRecorded,
		SnapshotsDeduped:     r.SnapshotsDeduped,
		TransactionsRecorded: r.TransactionsRecorded,
		TransactionsDeduped:  r.TransactionsDeduped,
	}
}

// PositionResponse represents a resolved position. The priced fields are
// null when the live quote was unavailable; market_value always carries
// the last snapshot value.
type PositionResponse struct {
	Ticker       string                  `json:"ticker"`
	Quantity     decimal.Decimal         `json:"quantity"`
	AvgCost      *decimal.Decimal        `json:"avg_cost,omitempty"`
	CostBasis    *decimal.Decimal        `json:"cost_basis,omitempty"`
	CurrentPrice *decimal.Decimal        `json:"current_price,omitempty"`
	CurrentValue *decimal.Decimal        `json:"current_value,omitempty"`
	MarketValue  decimal.Decimal         `json:"market_value"`
	PnL          *decimal.Decimal        `json:"pnl,omitempty"`
	PnLPct       *decimal.Decimal        `json:"pnl_pct,omitempty"`
	Currency     string                  `json:"currency"`
	PriceSource  string                  `json:"price_source"`
	// Set when a requested conversion had no rate and the monetary
	// fields remain in the native currency.
	ConversionUnavailable bool                    `json:"conversion_unavailable,omitempty"`
	Option                *OptionContractResponse `json:"option,omitempty"`
	AsOf                  time.Time               `json:"as_of"`
}

// PositionFromDomain converts a domain position to a response.
func PositionFromDomain(p domain.Position) PositionResponse {
	return PositionResponse{
		Ticker:                p.Ticker,
		Quantity:              p.Quantity,
		AvgCost:               p.AvgCost,
		CostBasis:             p.CostBasis,
		CurrentPrice:          p.CurrentPrice,
		CurrentValue:          p.CurrentValue,
		MarketValue:           p.MarketValue,
		PnL:                   p.PnL,
		PnLPct:                p.PnLPct,
		Currency:              p.Currency,
		PriceSource:           p.PriceSource,
		ConversionUnavailable: p.ConversionUnavailable,
		Option:                optionFromDomain(p.Option),
		AsOf:                  p.AsOf,
	}
}

// PositionsFromDomain converts resolved positions.
func PositionsFromDomain(positions []domain.Position) []PositionResponse {
	result := make([]PositionResponse, len(positions))
	for i, p := range positions {
		result[i] = PositionFromDomain(p)
	}
	return result
}

// AccountSummaryResponse is one account's slice of a portfolio summary.
type AccountSummaryResponse struct {
	AccountID    string             `json:"account_id"`
	AccountName  string             `json:"account_name"`
	AccountType  string             `json:"account_type"`
	Currency     string             `json:"currency"`
	Positions    []PositionResponse `json:"positions,omitempty"`
	MarketValue  decimal.Decimal    `json:"market_value"`
	CurrentValue *decimal.Decimal   `json:"current_value,omitempty"`
	CostBasis    *decimal.Decimal   `json:"cost_basis,omitempty"`
	PnL          *decimal.Decimal   `json:"pnl,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// PortfolioSummaryResponse aggregates accounts in one reporting currency.
type PortfolioSummaryResponse struct {
	Currency     string                     `json:"currency"`
	Accounts     []AccountSummaryResponse   `json:"accounts"`
	MarketValue  decimal.Decimal            `json:"market_value"`
	CurrentValue *decimal.Decimal           `json:"current_value,omitempty"`
	CostBasis    *decimal.Decimal           `json:"cost_basis,omitempty"`
	PnL          *decimal.Decimal           `json:"pnl,omitempty"`
	FXRates      map[string]decimal.Decimal `json:"fx_rates_used,omitempty"`
	AsOf         time.Time                  `json:"as_of"`
}

// SummaryFromDomain converts a portfolio summary to a response.
func SummaryFromDomain(s *domain.PortfolioSummary) *PortfolioSummaryResponse {
	accounts := make([]AccountSummaryResponse, len(s.Accounts))
	for i, a := range s.Accounts {
		accounts[i] = AccountSummaryResponse{
			AccountID:    a.AccountID,
			AccountName:  a.AccountName,
			AccountType:  string(a.AccountType),
			Currency:     a.Currency,
			Positions:    PositionsFromDomain(a.Positions),
			MarketValue:  a.MarketValue,
			CurrentValue: a.CurrentValue,
			CostBasis:    a.CostBasis,
			PnL:          a.PnL,
			Error:        a.Err,
		}
	}

	return &PortfolioSummaryResponse{
		Currency:     s.Currency,
		Accounts:     accounts,
		MarketValue:  s.MarketValue,
		CurrentValue: s.CurrentValue,
		CostBasis:    s.CostBasis,
		PnL:          s.PnL,
		FXRates:      s.FXRates,
		AsOf:         s.AsOf,
	}
}

// DiscrepancyResponse reports one snapshot/ledger divergence.
type DiscrepancyResponse struct {
	Ticker                string          `json:"ticker"`
	SnapshotQuantity      decimal.Decimal `json:"snapshot_quantity"`
	LedgerImpliedQuantity decimal.Decimal `json:"ledger_implied_quantity"`
	Gap                   decimal.Decimal `json:"gap"`
}

// ReconcileResponse is the outcome of one reconciliation run.
type ReconcileResponse struct {
	AccountID      string                `json:"account_id"`
	TickersChecked int                   `json:"tickers_checked"`
	Discrepancies  []DiscrepancyResponse `json:"discrepancies"`
	Tolerance      decimal.Decimal       `json:"tolerance"`
	CheckedAt      time.Time             `json:"checked_at"`
}

// ReconcileFromUseCase converts a reconcile report to a response.
func ReconcileFromUseCase(r *usecase.ReconcileReport) *ReconcileResponse {
	discrepancies := make([]DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = DiscrepancyResponse{
			Ticker:                d.Ticker,
			SnapshotQuantity:      d.SnapshotQuantity,
			LedgerImpliedQuantity: d.LedgerImpliedQuantity,
			Gap:                   d.Gap,
		}
	}

	return &ReconcileResponse{
		AccountID:      r.AccountID,
		TickersChecked: r.TickersChecked,
		Discrepancies:  discrepancies,
		Tolerance:      r.Tolerance,
		CheckedAt:      r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
