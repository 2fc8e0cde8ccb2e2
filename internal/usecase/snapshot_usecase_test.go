package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
	"github.com/iho/folio/internal/usecase/mocks"
)

func newSnapshotFixture(t *testing.T) (*usecase.SnapshotUseCase, *mocks.MockAccountRepository, *mocks.MockTransactionRepository) {
	t.Helper()

	accountRepo := mocks.NewMockAccountRepository()
	ledgerRepo := mocks.NewMockTransactionRepository()

	accountRepo.Create(context.Background(), &domain.Account{
		ID:           "acc-1",
		OwnerID:      "owner-1",
		Name:         "Brokerage",
		Type:         domain.AccountTypeSynced,
		BaseCurrency: "USD",
	})

	uc := usecase.NewSnapshotUseCase(
		mocks.NewMockTransactionManager(),
		accountRepo,
		mocks.NewMockSnapshotRepository(),
		ledgerRepo,
		mocks.NewMockRetrier(),
		mocks.NewMockIDGenerator(),
		nil,
	)

	return uc, accountRepo, ledgerRepo
}

func snapInput(ticker string, d time.Time, qty int64) usecase.RecordSnapshotInput {
	return usecase.RecordSnapshotInput{
		AccountID:    "acc-1",
		Ticker:       ticker,
		SnapshotDate: d,
		Quantity:     decimal.NewFromInt(qty),
		MarketValue:  decimal.NewFromInt(qty * 100),
		Currency:     "USD",
	}
}

func TestSnapshotUseCase_RecordSnapshot_Idempotent(t *testing.T) {
	uc, _, _ := newSnapshotFixture(t)
	ctx := context.Background()

	first, created, err := uc.RecordSnapshot(ctx, snapInput("AAPL", day(1), 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("first write should create a row")
	}

	second, created, err := uc.RecordSnapshot(ctx, snapInput("AAPL", day(1), 10))
	if err != nil {
		t.Fatalf("duplicate write must not error: %v", err)
	}
	if created {
		t.Error("duplicate write must not create a second row")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate write must return the prior row, got %s want %s", second.ID, first.ID)
	}
}

func TestSnapshotUseCase_LatestSnapshot_Ordering(t *testing.T) {
	uc, _, _ := newSnapshotFixture(t)
	ctx := context.Background()

	for _, d := range []int{1, 5, 9} {
		if _, _, err := uc.RecordSnapshot(ctx, snapInput("AAPL", day(d), int64(d))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	tests := []struct {
		asOf     time.Time
		wantDate time.Time
	}{
		{day(1), day(1)},
		{day(4), day(1)},
		{day(5), day(5)},
		{day(8), day(5)},
		{day(30), day(9)},
	}

	var prev time.Time
	for _, tt := range tests {
		snap, err := uc.LatestSnapshot(ctx, "acc-1", "AAPL", tt.asOf)
		if err != nil {
			t.Fatalf("asOf %v: unexpected error: %v", tt.asOf, err)
		}
		if !snap.SnapshotDate.Equal(tt.wantDate) {
			t.Errorf("asOf %v: got %v, want %v", tt.asOf, snap.SnapshotDate, tt.wantDate)
		}
		// Monotonically increasing asOf selects a non-decreasing date.
		if snap.SnapshotDate.Before(prev) {
			t.Errorf("selected date regressed: %v before %v", snap.SnapshotDate, prev)
		}
		prev = snap.SnapshotDate
	}
}

func TestSnapshotUseCase_LatestSnapshot_NoHoldings(t *testing.T) {
	uc, _, _ := newSnapshotFixture(t)
	ctx := context.Background()

	// A never-snapshotted ticker is NotFound.
	_, err := uc.LatestSnapshot(ctx, "acc-1", "TSLA", day(10))
	if !errors.Is(err, domain.ErrNoHoldings) {
		t.Errorf("expected ErrNoHoldings, got %v", err)
	}

	// A zero-quantity row is a real holding statement, not NotFound.
	if _, _, err := uc.RecordSnapshot(ctx, snapInput("TSLA", day(1), 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := uc.LatestSnapshot(ctx, "acc-1", "TSLA", day(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Quantity.IsZero() {
		t.Errorf("expected zero quantity, got %s", snap.Quantity)
	}
}

func TestSnapshotUseCase_RecordSnapshot_AsOfExcludesFuture(t *testing.T) {
	uc, _, _ := newSnapshotFixture(t)
	ctx := context.Background()

	if _, _, err := uc.RecordSnapshot(ctx, snapInput("AAPL", day(20), 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := uc.LatestSnapshot(ctx, "acc-1", "AAPL", day(10))
	if !errors.Is(err, domain.ErrNoHoldings) {
		t.Errorf("future-dated snapshot must not be visible, got %v", err)
	}
}

func TestSnapshotUseCase_RecordSyncBatch(t *testing.T) {
	uc, accountRepo, ledgerRepo := newSnapshotFixture(t)
	ctx := context.Background()

	extA := "evt-a"
	batch := usecase.RecordSyncBatchInput{
		AccountID: "acc-1",
		SyncedAt:  day(6),
		Snapshots: []usecase.RecordSnapshotInput{
			snapInput("AAPL", day(5), 10),
			snapInput("MSFT", day(5), 4),
		},
		Transactions: []usecase.RecordTransactionInput{
			{
				Ticker: "AAPL", TradeDate: day(3),
				Price: decimal.NewFromInt(180), Volume: decimal.NewFromInt(10),
				Currency: "USD", Source: domain.SourceSnapTrade, ExternalID: &extA,
			},
		},
	}

	result, err := uc.RecordSyncBatch(ctx, batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SnapshotsRecorded != 2 || result.TransactionsRecorded != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	// Redelivering the whole batch dedupes everything.
	result, err = uc.RecordSyncBatch(ctx, batch)
	if err != nil {
		t.Fatalf("redelivery must not error: %v", err)
	}
	if result.SnapshotsRecorded != 0 || result.SnapshotsDeduped != 2 {
		t.Errorf("snapshots not deduped: %+v", result)
	}
	if result.TransactionsRecorded != 0 || result.TransactionsDeduped != 1 {
		t.Errorf("transactions not deduped: %+v", result)
	}

	rows, err := ledgerRepo.ListAllByTicker(ctx, "acc-1", "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 ledger row after redelivery, got %d", len(rows))
	}

	account, err := accountRepo.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.LastSyncedAt == nil || !account.LastSyncedAt.Equal(day(6)) {
		t.Error("last-sync timestamp not updated")
	}
}
