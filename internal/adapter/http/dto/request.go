package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	BaseCurrency string `json:"base_currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Type:         domain.AccountType(r.Type),
		BaseCurrency: r.BaseCurrency,
	}
}

// OptionContractRequest describes an option position in a snapshot row.
type OptionContractRequest struct {
	Type       string          `json:"type"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration time.Time       `json:"expiration"`
	Underlying string          `json:"underlying"`
}

func (r *OptionContractRequest) toDomain() *domain.OptionContract {
	if r == nil {
		return nil
	}

	return &domain.OptionContract{
		Type:       domain.OptionType(r.Type),
		Strike:     r.Strike,
		Expiration: r.Expiration,
		Underlying: r.Underlying,
	}
}

// RecordSnapshotRequest represents one holdings row in a sync delivery.
type RecordSnapshotRequest struct {
	Ticker       string                 `json:"ticker"`
	SnapshotDate time.Time              `json:"snapshot_date"`
	Quantity     decimal.Decimal        `json:"quantity"`
	AvgCost      *decimal.Decimal       `json:"avg_cost,omitempty"`
	MarketValue  decimal.Decimal        `json:"market_value"`
	Currency     string                 `json:"currency"`
	Option       *OptionContractRequest `json:"option,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordSnapshotRequest) ToUseCaseInput(accountID string) usecase.RecordSnapshotInput {
	return usecase.RecordSnapshotInput{
		AccountID:    accountID,
		Ticker:       r.Ticker,
		SnapshotDate: r.SnapshotDate,
		Quantity:     r.Quantity,
		AvgCost:      r.AvgCost,
		MarketValue:  r.MarketValue,
		Currency:     r.Currency,
		Option:       r.Option.toDomain(),
	}
}

// RecordTransactionRequest represents one buy/sell event. Volume is
// signed: positive buys, negative sells.
type RecordTransactionRequest struct {
	Ticker     string          `json:"ticker"`
	TradeDate  time.Time       `json:"trade_date"`
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	Costs      decimal.Decimal `json:"costs"`
	Currency   string          `json:"currency"`
	Source     string          `json:"source"`
	ExternalID *string         `json:"external_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordTransactionRequest) ToUseCaseInput(accountID string) usecase.RecordTransactionInput {
	return usecase.RecordTransactionInput{
		AccountID:  accountID,
		Ticker:     r.Ticker,
		TradeDate:  r.TradeDate,
		Price:      r.Price,
		Volume:     r.Volume,
		Costs:      r.Costs,
		Currency:   r.Currency,
		Source:     domain.Source(r.Source),
		ExternalID: r.ExternalID,
	}
}

// SyncBatchRequest represents a full sync delivery for one account.
type SyncBatchRequest struct {
	SyncedAt     time.Time                  `json:"synced_at"`
	Snapshots    []RecordSnapshotRequest    `json:"snapshots"`
	Transactions []RecordTransactionRequest `json:"transactions"`
}

// ToUseCaseInput converts to use case input.
func (r *SyncBatchRequest) ToUseCaseInput(accountID string) usecase.RecordSyncBatchInput {
	snapshots := make([]usecase.RecordSnapshotInput, len(r.Snapshots))
	for i := range r.Snapshots {
		snapshots[i] = r.Snapshots[i].ToUseCaseInput(accountID)
	}

	transactions := make([]usecase.RecordTransactionInput, len(r.Transactions))
	for i := range r.Transactions {
		transactions[i] = r.Transactions[i].ToUseCaseInput(accountID)
	}

	return usecase.RecordSyncBatchInput{
		AccountID:    accountID,
		SyncedAt:     r.SyncedAt,
		Snapshots:    snapshots,
		Transactions: transactions,
	}
}

// ReconcileRequest represents a reconciliation trigger. Tolerance, when
// set, overrides the configured quantity tolerance for this run.
type ReconcileRequest struct {
	AsOf      time.Time        `json:"as_of,omitempty"`
	Tolerance *decimal.Decimal `json:"tolerance,omitempty"`
}
