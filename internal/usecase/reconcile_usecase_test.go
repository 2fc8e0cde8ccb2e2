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

type reconcileFixture struct {
	uc           *usecase.ReconcileUseCase
	snapshotRepo *mocks.MockSnapshotRepository
	ledgerRepo   *mocks.MockTransactionRepository
}

func newReconcileFixture(t *testing.T, tolerance decimal.Decimal) *reconcileFixture {
	t.Helper()

	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Create(context.Background(), &domain.Account{
		ID: "acc-1", OwnerID: "owner-1", Name: "Brokerage",
		Type: domain.AccountTypeSynced, BaseCurrency: "USD",
	})

	f := &reconcileFixture{
		snapshotRepo: mocks.NewMockSnapshotRepository(),
		ledgerRepo:   mocks.NewMockTransactionRepository(),
	}
	f.uc = usecase.NewReconcileUseCase(accountRepo, f.snapshotRepo, f.ledgerRepo, tolerance, nil)

	return f
}

func (f *reconcileFixture) seedSnapshot(t *testing.T, ticker string, d time.Time, qty string) {
	t.Helper()

	_, _, err := f.snapshotRepo.Insert(context.Background(), nil, &domain.Snapshot{
		ID:           ticker + d.Format("20060102"),
		AccountID:    "acc-1",
		Ticker:       ticker,
		SnapshotDate: d,
		Quantity:     decimal.RequireFromString(qty),
		MarketValue:  decimal.Zero,
		Currency:     "USD",
	})
	if err != nil {
		t.Fatalf("snapshot insert failed: %v", err)
	}
}

func (f *reconcileFixture) seedTransaction(t *testing.T, id, ticker string, d time.Time, volume string) {
	t.Helper()

	ext := "ext-" + id
	_, _, err := f.ledgerRepo.Insert(context.Background(), nil, &domain.Transaction{
		ID:         id,
		AccountID:  "acc-1",
		Ticker:     ticker,
		TradeDate:  d,
		Price:      decimal.NewFromInt(100),
		Volume:     decimal.RequireFromString(volume),
		Currency:   "USD",
		Source:     domain.SourceSnapTrade,
		ExternalID: &ext,
	})
	if err != nil {
		t.Fatalf("transaction insert failed: %v", err)
	}
}

func TestReconcileUseCase_Agreement(t *testing.T) {
	f := newReconcileFixture(t, decimal.Zero)

	// Snapshot says 6, ledger implies 10 - 4 = 6: nothing to report.
	f.seedSnapshot(t, "AAPL", day(10), "6")
	f.seedTransaction(t, "t1", "AAPL", day(1), "10")
	f.seedTransaction(t, "t2", "AAPL", day(5), "-4")

	report, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TickersChecked != 1 {
		t.Errorf("expected 1 ticker checked, got %d", report.TickersChecked)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("expected no discrepancies, got %+v", report.Discrepancies)
	}
}

func TestReconcileUseCase_SnapshotWithoutLedger(t *testing.T) {
	f := newReconcileFixture(t, decimal.Zero)

	// Snapshot holds 10 but no transaction was ever recorded.
	f.seedSnapshot(t, "MSFT", day(1), "10")

	report, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d", len(report.Discrepancies))
	}

	disc := report.Discrepancies[0]
	if disc.Ticker != "MSFT" {
		t.Errorf("expected ticker MSFT, got %s", disc.Ticker)
	}
	if !disc.SnapshotQuantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected snapshot quantity 10, got %s", disc.SnapshotQuantity)
	}
	if !disc.LedgerImpliedQuantity.IsZero() {
		t.Errorf("expected implied quantity 0, got %s", disc.LedgerImpliedQuantity)
	}
	if !disc.Gap.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected gap 10, got %s", disc.Gap)
	}
}

func TestReconcileUseCase_LedgerWithoutSnapshot(t *testing.T) {
	f := newReconcileFixture(t, decimal.Zero)

	// Transactions exist but the position never appeared in a snapshot;
	// the ticker is still checked, against a snapshot quantity of zero.
	f.seedTransaction(t, "t1", "TSLA", day(2), "3")

	report, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TickersChecked != 1 {
		t.Fatalf("expected ledger-only ticker to be checked, got %d", report.TickersChecked)
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d", len(report.Discrepancies))
	}

	disc := report.Discrepancies[0]
	if !disc.Gap.Equal(decimal.NewFromInt(-3)) {
		t.Errorf("expected gap -3, got %s", disc.Gap)
	}
}

func TestReconcileUseCase_Tolerance(t *testing.T) {
	f := newReconcileFixture(t, decimal.Zero) // falls back to the default 1e-6

	// Inside tolerance: |gap| = 5e-7.
	f.seedSnapshot(t, "VOO", day(1), "10.0000005")
	f.seedTransaction(t, "t1", "VOO", day(1), "10")

	// Outside tolerance: |gap| = 2e-6.
	f.seedSnapshot(t, "VTI", day(1), "10.000002")
	f.seedTransaction(t, "t2", "VTI", day(1), "10")

	report, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{AccountID: "acc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TickersChecked != 2 {
		t.Errorf("expected 2 tickers checked, got %d", report.TickersChecked)
	}
	if len(report.Discrepancies) != 1 {
		t.Fatalf("expected only the out-of-tolerance gap, got %+v", report.Discrepancies)
	}
	if report.Discrepancies[0].Ticker != "VTI" {
		t.Errorf("expected VTI flagged, got %s", report.Discrepancies[0].Ticker)
	}
	if !report.Discrepancies[0].Gap.Equal(decimal.RequireFromString("0.000002")) {
		t.Errorf("gap must be exact, got %s", report.Discrepancies[0].Gap)
	}
}

func TestReconcileUseCase_ToleranceOverride(t *testing.T) {
	f := newReconcileFixture(t, decimal.Zero)

	f.seedSnapshot(t, "AAPL", day(1), "10.5")
	f.seedTransaction(t, "t1", "AAPL", day(1), "10")

	override := decimal.NewFromInt(1)
	report, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{
		AccountID: "acc-1",
		Tolerance: &override,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("gap 0.5 is inside the overridden tolerance 1, got %+v", report.Discrepancies)
	}
	if !report.Tolerance.Equal(override) {
		t.Errorf("report should carry the effective tolerance, got %s", report.Tolerance)
	}
}

func TestReconcileUseCase_AccountNotFound(t *testing.T) {
	f := newReconcileFixture(t, decimal.Zero)

	_, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{AccountID: "ghost"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
