package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/infrastructure/metrics"
)

// DefaultTolerance absorbs fractional-share rounding when comparing
// snapshot and ledger quantities.
var DefaultTolerance = decimal.New(1, -6)

// ReconcileUseCase is the Reconciliation Engine: it compares what the
// latest snapshots say an account holds against what the transaction
// ledger implies, and reports divergence. It never repairs either log;
// no transaction is ever inferred from a snapshot.
type ReconcileUseCase struct {
	accountRepo  AccountRepository
	snapshotRepo SnapshotRepository
	ledgerRepo   TransactionRepository
	tolerance    decimal.Decimal
	metrics      *metrics.Metrics
}

// NewReconcileUseCase creates a new ReconcileUseCase. A non-positive
// tolerance falls back to DefaultTolerance.
func NewReconcileUseCase(
	accountRepo AccountRepository,
	snapshotRepo SnapshotRepository,
	ledgerRepo TransactionRepository,
	tolerance decimal.Decimal,
	metrics *metrics.Metrics,
) *ReconcileUseCase {
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}

	return &ReconcileUseCase{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		ledgerRepo:   ledgerRepo,
		tolerance:    tolerance,
		metrics:      metrics,
	}
}

// ReconcileInput represents input for reconciling one account.
type ReconcileInput struct {
	AccountID string
	AsOf      time.Time
	// Tolerance overrides the configured tolerance when positive.
	Tolerance *decimal.Decimal
}

// ReconcileReport is the outcome of one reconciliation run.
type ReconcileReport struct {
	AccountID      string
	TickersChecked int
	Discrepancies  []domain.Discrepancy
	Tolerance      decimal.Decimal
	CheckedAt      time.Time
}

// Reconcile checks every ticker appearing in either log. A ticker present
// only in transactions is still checked against a snapshot quantity of
// zero, and vice versa. A discrepancy is reported iff |gap| exceeds the
// tolerance, with gap = snapshotQuantity - ledgerImpliedQuantity exactly.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileReport, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	tolerance := uc.tolerance
	if input.Tolerance != nil && input.Tolerance.IsPositive() {
		tolerance = *input.Tolerance
	}

	latest, err := uc.snapshotRepo.AllLatest(ctx, input.AccountID, asOf)
	if err != nil {
		return nil, err
	}

	ledgerTickers, err := uc.ledgerRepo.Tickers(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	// Union of tickers from both sources.
	seen := make(map[string]bool, len(latest)+len(ledgerTickers))
	var tickers []string
	for ticker := range latest {
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}
	for _, ticker := range ledgerTickers {
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)

	start := time.Now().UTC()
	report := &ReconcileReport{
		AccountID:      input.AccountID,
		TickersChecked: len(tickers),
		Tolerance:      tolerance,
		CheckedAt:      start,
	}

	for _, ticker := range tickers {
		snapshotQty := decimal.Zero
		if snap, ok := latest[ticker]; ok {
			snapshotQty = snap.Quantity
		}

		txns, err := uc.ledgerRepo.ListAllByTicker(ctx, input.AccountID, ticker)
		if err != nil {
			return nil, err
		}

		impliedQty := decimal.Zero
		for _, txn := range txns {
			impliedQty = impliedQty.Add(txn.Volume)
		}

		gap := snapshotQty.Sub(impliedQty)
		if gap.Abs().GreaterThan(tolerance) {
			report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
				Ticker:                ticker,
				SnapshotQuantity:      snapshotQty,
				LedgerImpliedQuantity: impliedQty,
				Gap:                   gap,
			})
		}
	}

	if uc.metrics != nil {
		uc.metrics.ReconcileRuns.Inc()
		uc.metrics.ReconcileDiscrepancies.Add(float64(len(report.Discrepancies)))
		uc.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}

	return report, nil
}
