package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/infrastructure/metrics"
)

// LedgerUseCase is the Transaction Ledger: an append-only, deduplicated
// log of buy/sell events, independent of the snapshot log. The ledger never
// infers transactions from snapshots or vice versa.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	ledgerRepo  TransactionRepository
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	ledgerRepo TransactionRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		retrier:     retrier,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// RecordTransactionInput represents one buy/sell event. Volume is signed:
// positive buys, negative sells.
type RecordTransactionInput struct {
	AccountID  string
	Ticker     string
	TradeDate  time.Time
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Costs      decimal.Decimal
	Currency   string
	Source     domain.Source
	ExternalID *string
}

func (in RecordTransactionInput) toTransaction(id string, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:         id,
		AccountID:  in.AccountID,
		Ticker:     strings.ToUpper(strings.TrimSpace(in.Ticker)),
		TradeDate:  in.TradeDate.UTC(),
		Price:      in.Price,
		Volume:     in.Volume,
		Costs:      in.Costs,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		Source:     in.Source,
		ExternalID: in.ExternalID,
		CreatedAt:  now,
	}
}

// RecordTransaction appends one ledger row. When the source is snaptrade
// and the external id already exists for the account, the call is a no-op
// returning the prior row with created=false; retried sync deliveries
// therefore converge to exactly one stored row.
func (uc *LedgerUseCase) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*domain.Transaction, bool, error) {
	txn := input.toTransaction(uc.idGen.Generate(), time.Now().UTC())
	if err := txn.Validate(); err != nil {
		return nil, false, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, txn.AccountID); err != nil {
		return nil, false, err
	}

	var (
		stored  *domain.Transaction
		created bool
	)

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		stored, created, err = uc.ledgerRepo.Insert(ctx, tx, txn)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, false, err
	}

	if uc.metrics != nil {
		if created {
			uc.metrics.TransactionsRecorded.Inc()
		} else {
			uc.metrics.TransactionsDeduped.Inc()
		}
	}

	return stored, created, nil
}

// ListTransactionsInput represents input for listing ledger rows.
type ListTransactionsInput struct {
	AccountID string
	Ticker    string
	Limit     int
	Offset    int
}

// Transactions lists ledger rows for an account, optionally filtered by
// ticker, ordered by trade date then insertion order.
func (uc *LedgerUseCase) Transactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))

	return uc.ledgerRepo.ListByAccount(ctx, input.AccountID, ticker, limit, offset)
}

// ImpliedQuantity is the exact sum of signed volumes for a ticker,
// accumulated in trade order. Decimal accumulation keeps the sum exact
// across thousands of fractional lots.
func (uc *LedgerUseCase) ImpliedQuantity(ctx context.Context, accountID, ticker string) (decimal.Decimal, error) {
	txns, err := uc.ledgerRepo.ListAllByTicker(ctx, accountID, strings.ToUpper(strings.TrimSpace(ticker)))
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Volume)
	}

	return total, nil
}
