package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
	TouchLastSynced(ctx context.Context, tx Transaction, id string, syncedAt time.Time) error
}

// SnapshotRepository defines data access for holdings snapshots. Inserts
// are append-only: a write for an existing (account, ticker, date) key
// returns the prior row with created=false instead of creating a second one.
type SnapshotRepository interface {
	Insert(ctx context.Context, tx Transaction, snapshot *domain.Snapshot) (*domain.Snapshot, bool, error)
	Latest(ctx context.Context, accountID, ticker string, asOf time.Time) (*domain.Snapshot, error)
	AllLatest(ctx context.Context, accountID string, asOf time.Time) (map[string]*domain.Snapshot, error)
	ListByTicker(ctx context.Context, accountID, ticker string, limit, offset int) ([]*domain.Snapshot, error)
}

// TransactionRepository defines data access for the transaction ledger.
// Insert returns the prior row with created=false when the (account,
// external id) pair already exists for a snaptrade-sourced row.
type TransactionRepository interface {
	Insert(ctx context.Context, tx Transaction, txn *domain.Transaction) (*domain.Transaction, bool, error)
	ListByAccount(ctx context.Context, accountID string, ticker string, limit, offset int) ([]*domain.Transaction, error)
	ListAllByTicker(ctx context.Context, accountID, ticker string) ([]*domain.Transaction, error)
	Tickers(ctx context.Context, accountID string) ([]string, error)
}

// PriceSource provides the current price of a ticker. Callers treat a
// lookup failure as "unavailable", never as zero.
type PriceSource interface {
	CurrentPrice(ctx context.Context, ticker string) (Quote, error)
}

// Quote is a priced ticker as reported by the market-data provider.
type Quote struct {
	Ticker   string
	Price    decimal.Decimal
	Currency string
	Source   string
}

// RateSource provides FX rates. Rate returns domain.ErrConversionUnavailable
// when no rate exists for the pair/date.
type RateSource interface {
	Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient write conflicts with bounded
// attempts before surfacing the error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations for the market-data adapters.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage for the HTTP layer.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
