package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/infrastructure/metrics"
)

// SnapshotUseCase is the Snapshot Store: an append-only log of per-account
// holdings statements. The latest row per (account, ticker) is the
// authoritative statement of current holdings.
type SnapshotUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	snapshotRepo SnapshotRepository
	ledgerRepo   TransactionRepository
	retrier      Retrier
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewSnapshotUseCase creates a new SnapshotUseCase.
func NewSnapshotUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	snapshotRepo SnapshotRepository,
	ledgerRepo TransactionRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *SnapshotUseCase {
	return &SnapshotUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		ledgerRepo:   ledgerRepo,
		retrier:      retrier,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// RecordSnapshotInput is one sync-delivered holdings tuple.
type RecordSnapshotInput struct {
	AccountID    string
	Ticker       string
	SnapshotDate time.Time
	Quantity     decimal.Decimal
	AvgCost      *decimal.Decimal
	MarketValue  decimal.Decimal
	Currency     string
	Option       *domain.OptionContract
}

func (in RecordSnapshotInput) toSnapshot(id string, now time.Time) *domain.Snapshot {
	return &domain.Snapshot{
		ID:           id,
		AccountID:    in.AccountID,
		Ticker:       strings.ToUpper(strings.TrimSpace(in.Ticker)),
		SnapshotDate: in.SnapshotDate.UTC().Truncate(24 * time.Hour),
		Quantity:     in.Quantity,
		AvgCost:      in.AvgCost,
		MarketValue:  in.MarketValue,
		Currency:     strings.ToUpper(strings.TrimSpace(in.Currency)),
		Option:       in.Option,
		CreatedAt:    now,
	}
}

// RecordSnapshot appends one snapshot row. A write for an existing
// (account, ticker, date) key is idempotent: the prior row is returned and
// created is false.
func (uc *SnapshotUseCase) RecordSnapshot(ctx context.Context, input RecordSnapshotInput) (*domain.Snapshot, bool, error) {
	snapshot := input.toSnapshot(uc.idGen.Generate(), time.Now().UTC())
	if err := snapshot.Validate(); err != nil {
		return nil, false, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, snapshot.AccountID); err != nil {
		return nil, false, err
	}

	var (
		stored  *domain.Snapshot
		created bool
	)

	err := uc.retrier.Retry(ctx, func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		stored, created, err = uc.snapshotRepo.Insert(ctx, tx, snapshot)
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
			uc.metrics.SnapshotsRecorded.Inc()
		} else {
			uc.metrics.SnapshotsDeduped.Inc()
		}
	}

	return stored, created, nil
}

// RecordSyncBatchInput is a full sync delivery for one account: the
// holdings statement plus any brokerage-reported transactions.
type RecordSyncBatchInput struct {
	AccountID    string
	SyncedAt     time.Time
	Snapshots    []RecordSnapshotInput
	Transactions []RecordTransactionInput
}

// SyncBatchResult reports what a sync delivery actually changed.
type SyncBatchResult struct {
	SnapshotsRecorded    int
	SnapshotsDeduped     int
	TransactionsRecorded int
	TransactionsDeduped  int
}

// RecordSyncBatch records a sync delivery atomically: all snapshot rows,
// all transaction rows, and the account's last-sync timestamp commit
// together or not at all. Duplicate rows are skipped, not errors.
func (uc *SnapshotUseCase) RecordSyncBatch(ctx context.Context, input RecordSyncBatchInput) (*SyncBatchResult, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	syncedAt := input.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = now
	}

	// Validate everything before touching the store.
	snapshots := make([]*domain.Snapshot, 0, len(input.Snapshots))
	for _, si := range input.Snapshots {
		si.AccountID = input.AccountID
		s := si.toSnapshot(uc.idGen.Generate(), now)
		if err := s.Validate(); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	txns := make([]*domain.Transaction, 0, len(input.Transactions))
	for _, ti := range input.Transactions {
		ti.AccountID = input.AccountID
		txn := ti.toTransaction(uc.idGen.Generate(), now)
		if err := txn.Validate(); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	var result SyncBatchResult

	err := uc.retrier.Retry(ctx, func() error {
		result = SyncBatchResult{}

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, s := range snapshots {
			_, created, err := uc.snapshotRepo.Insert(ctx, tx, s)
			if err != nil {
				return err
			}
			if created {
				result.SnapshotsRecorded++
			} else {
				result.SnapshotsDeduped++
			}
		}

		for _, txn := range txns {
			_, created, err := uc.ledgerRepo.Insert(ctx, tx, txn)
			if err != nil {
				return err
			}
			if created {
				result.TransactionsRecorded++
			} else {
				result.TransactionsDeduped++
			}
		}

		if err := uc.accountRepo.TouchLastSynced(ctx, tx, input.AccountID, syncedAt); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.SyncBatches.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SyncBatches.WithLabelValues("ok").Inc()
		uc.metrics.SyncBatchDuration.Observe(time.Since(now).Seconds())
		uc.metrics.SnapshotsRecorded.Add(float64(result.SnapshotsRecorded))
		uc.metrics.SnapshotsDeduped.Add(float64(result.SnapshotsDeduped))
		uc.metrics.TransactionsRecorded.Add(float64(result.TransactionsRecorded))
		uc.metrics.TransactionsDeduped.Add(float64(result.TransactionsDeduped))
	}

	return &result, nil
}

// LatestSnapshot returns the snapshot with the maximum date not exceeding
// asOf. A ticker that was never snapshotted yields domain.ErrNoHoldings,
// which is distinct from a zero-quantity holding.
func (uc *SnapshotUseCase) LatestSnapshot(ctx context.Context, accountID, ticker string, asOf time.Time) (*domain.Snapshot, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	return uc.snapshotRepo.Latest(ctx, accountID, strings.ToUpper(strings.TrimSpace(ticker)), asOf)
}

// AllLatest returns the latest snapshot per ticker for an account.
func (uc *SnapshotUseCase) AllLatest(ctx context.Context, accountID string, asOf time.Time) (map[string]*domain.Snapshot, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	return uc.snapshotRepo.AllLatest(ctx, accountID, asOf)
}

// History lists the snapshot series for one ticker, newest first.
func (uc *SnapshotUseCase) History(ctx context.Context, accountID, ticker string, limit, offset int) ([]*domain.Snapshot, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.snapshotRepo.ListByTicker(ctx, accountID, strings.ToUpper(strings.TrimSpace(ticker)), limit, offset)
}
