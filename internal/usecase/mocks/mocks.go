package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc          func(ctx context.Context, account *domain.Account) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Account, error)
	ListFunc            func(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
	TouchLastSyncedFunc func(ctx context.Context, tx usecase.Transaction, id string, syncedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ownerID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if ownerID == "" || acc.OwnerID == ownerID {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) TouchLastSynced(ctx context.Context, tx usecase.Transaction, id string, syncedAt time.Time) error {
	if m.TouchLastSyncedFunc != nil {
		return m.TouchLastSyncedFunc(ctx, tx, id, syncedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.LastSyncedAt = &syncedAt
		return nil
	}
	return domain.ErrAccountNotFound
}

// MockSnapshotRepository is an in-memory SnapshotRepository keyed like the
// real relation: unique (account, ticker, date).
type MockSnapshotRepository struct {
	mu   sync.RWMutex
	rows []*domain.Snapshot

	InsertFunc    func(ctx context.Context, tx usecase.Transaction, snapshot *domain.Snapshot) (*domain.Snapshot, bool, error)
	LatestFunc    func(ctx context.Context, accountID, ticker string, asOf time.Time) (*domain.Snapshot, error)
	AllLatestFunc func(ctx context.Context, accountID string, asOf time.Time) (map[string]*domain.Snapshot, error)
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{}
}

func (m *MockSnapshotRepository) Insert(ctx context.Context, tx usecase.Transaction, snapshot *domain.Snapshot) (*domain.Snapshot, bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.AccountID == snapshot.AccountID && row.Ticker == snapshot.Ticker && row.SnapshotDate.Equal(snapshot.SnapshotDate) {
			return row, false, nil
		}
	}
	m.rows = append(m.rows, snapshot)
	return snapshot, true, nil
}

func (m *MockSnapshotRepository) Latest(ctx context.Context, accountID, ticker string, asOf time.Time) (*domain.Snapshot, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, accountID, ticker, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *domain.Snapshot
	for _, row := range m.rows {
		if row.AccountID != accountID || row.Ticker != ticker || row.SnapshotDate.After(asOf) {
			continue
		}
		if best == nil || row.SnapshotDate.After(best.SnapshotDate) {
			best = row
		}
	}
	if best == nil {
		return nil, domain.ErrNoHoldings
	}
	return best, nil
}

func (m *MockSnapshotRepository) AllLatest(ctx context.Context, accountID string, asOf time.Time) (map[string]*domain.Snapshot, error) {
	if m.AllLatestFunc != nil {
		return m.AllLatestFunc(ctx, accountID, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := make(map[string]*domain.Snapshot)
	for _, row := range m.rows {
		if row.AccountID != accountID || row.SnapshotDate.After(asOf) {
			continue
		}
		if cur, ok := latest[row.Ticker]; !ok || row.SnapshotDate.After(cur.SnapshotDate) {
			latest[row.Ticker] = row
		}
	}
	return latest, nil
}

func (m *MockSnapshotRepository) ListByTicker(ctx context.Context, accountID, ticker string, limit, offset int) ([]*domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []*domain.Snapshot
	for _, row := range m.rows {
		if row.AccountID == accountID && row.Ticker == ticker {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SnapshotDate.After(rows[j].SnapshotDate) })
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

// MockTransactionRepository is an in-memory TransactionRepository with the
// same snaptrade external-id dedup semantics as the real one.
type MockTransactionRepository struct {
	mu   sync.Mutex
	rows []*domain.Transaction

	InsertFunc          func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (*domain.Transaction, bool, error)
	ListAllByTickerFunc func(ctx context.Context, accountID, ticker string) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Insert(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (*domain.Transaction, bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn.Source == domain.SourceSnapTrade && txn.ExternalID != nil {
		for _, row := range m.rows {
			if row.AccountID == txn.AccountID && row.Source == domain.SourceSnapTrade &&
				row.ExternalID != nil && *row.ExternalID == *txn.ExternalID {
				return row, false, nil
			}
		}
	}
	m.rows = append(m.rows, txn)
	return txn, true, nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, ticker string, limit, offset int) ([]*domain.Transaction, error) {
	all, err := m.listOrdered(accountID, ticker)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockTransactionRepository) ListAllByTicker(ctx context.Context, accountID, ticker string) ([]*domain.Transaction, error) {
	if m.ListAllByTickerFunc != nil {
		return m.ListAllByTickerFunc(ctx, accountID, ticker)
	}
	return m.listOrdered(accountID, ticker)
}

func (m *MockTransactionRepository) Tickers(ctx context.Context, accountID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var tickers []string
	for _, row := range m.rows {
		if row.AccountID == accountID && !seen[row.Ticker] {
			seen[row.Ticker] = true
			tickers = append(tickers, row.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (m *MockTransactionRepository) listOrdered(accountID, ticker string) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []*domain.Transaction
	for _, row := range m.rows {
		if row.AccountID != accountID {
			continue
		}
		if ticker != "" && row.Ticker != ticker {
			continue
		}
		rows = append(rows, row)
	}
	// Trade date, then insertion (ULID) order for same-date ties.
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TradeDate.Equal(rows[j].TradeDate) {
			return rows[i].TradeDate.Before(rows[j].TradeDate)
		}
		return strings.Compare(rows[i].ID, rows[j].ID) < 0
	})
	return rows, nil
}

// MockTransaction is a no-op database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockTransactionManager hands out no-op transactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockRetrier runs the operation once with no backoff.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu           sync.Mutex
	counter      int
	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	// Zero-padded so lexicographic order matches insertion order, like ULIDs.
	return fmt.Sprintf("id-%08d", m.counter)
}

// MockPriceSource serves prices from a fixed table.
type MockPriceSource struct {
	mu     sync.RWMutex
	prices map[string]usecase.Quote

	CurrentPriceFunc func(ctx context.Context, ticker string) (usecase.Quote, error)
}

func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{prices: make(map[string]usecase.Quote)}
}

func (m *MockPriceSource) SetPrice(ticker string, price decimal.Decimal, currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[ticker] = usecase.Quote{Ticker: ticker, Price: price, Currency: currency, Source: "mock"}
}

func (m *MockPriceSource) CurrentPrice(ctx context.Context, ticker string) (usecase.Quote, error) {
	if m.CurrentPriceFunc != nil {
		return m.CurrentPriceFunc(ctx, ticker)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if q, ok := m.prices[ticker]; ok {
		return q, nil
	}
	return usecase.Quote{}, domain.ErrPriceUnavailable
}

// MockRateSource serves FX rates from a fixed table keyed "FROM_TO".
type MockRateSource struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal

	RateFunc func(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
}

func NewMockRateSource() *MockRateSource {
	return &MockRateSource{rates: make(map[string]decimal.Decimal)}
}

func (m *MockRateSource) SetRate(from, to string, rate decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[from+"_"+to] = rate
}

func (m *MockRateSource) Rate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	if m.RateFunc != nil {
		return m.RateFunc(ctx, from, to, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rate, ok := m.rates[from+"_"+to]; ok {
		return rate, nil
	}
	return decimal.Zero, domain.ErrConversionUnavailable
}
