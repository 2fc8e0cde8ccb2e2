package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/infrastructure/metrics"
)

// PositionUseCase is the Position Resolver: it derives current positions
// and valuation from the latest snapshots plus a live-price lookup, and
// falls back to the transaction ledger for cost basis when a snapshot
// carries no average cost.
type PositionUseCase struct {
	accountRepo  AccountRepository
	snapshotRepo SnapshotRepository
	ledgerRepo   TransactionRepository
	prices       PriceSource
	converter    *Converter
	method       CostBasisMethod
	priceTimeout time.Duration
	metrics      *metrics.Metrics
}

// NewPositionUseCase creates a new PositionUseCase.
func NewPositionUseCase(
	accountRepo AccountRepository,
	snapshotRepo SnapshotRepository,
	ledgerRepo TransactionRepository,
	prices PriceSource,
	converter *Converter,
	method CostBasisMethod,
	priceTimeout time.Duration,
	metrics *metrics.Metrics,
) *PositionUseCase {
	if priceTimeout <= 0 {
		priceTimeout = 5 * time.Second
	}

	return &PositionUseCase{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		ledgerRepo:   ledgerRepo,
		prices:       prices,
		converter:    converter,
		method:       method,
		priceTimeout: priceTimeout,
		metrics:      metrics,
	}
}

// GetHoldingsInput represents input for resolving an account's positions.
type GetHoldingsInput struct {
	AccountID string
	AsOf      time.Time
	// Currency, when set, normalizes every monetary field into this
	// currency. Empty means native position currencies.
	Currency string
}

// GetHoldings resolves the account's current positions from the latest
// snapshots. Price lookups fail soft: a position whose price is unavailable
// is still listed with its last-known snapshot value, and its
// CurrentPrice/CurrentValue/PnL stay nil rather than defaulting to zero.
func (uc *PositionUseCase) GetHoldings(ctx context.Context, input GetHoldingsInput) ([]domain.Position, error) {
	if uc.metrics != nil {
		uc.metrics.HoldingsQueries.Inc()
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	latest, err := uc.snapshotRepo.AllLatest(ctx, input.AccountID, asOf)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(latest))
	for ticker := range latest {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	positions := make([]domain.Position, 0, len(tickers))
	for _, ticker := range tickers {
		pos, err := uc.resolvePosition(ctx, latest[ticker], asOf)
		if err != nil {
			return nil, err
		}

		if input.Currency != "" && input.Currency != pos.Currency {
			converted, convErr := uc.convertPosition(ctx, pos, input.Currency, asOf)
			if convErr == nil {
				pos = converted
			} else {
				// A missing rate degrades to native-currency fields; the
				// position is never dropped and never scaled by a fake
				// rate, and the marker tells the caller not to sum it.
				pos.ConversionUnavailable = true
			}
		}

		positions = append(positions, pos)
	}

	return positions, nil
}

// resolvePosition builds one position from its latest snapshot, the price
// lookup, and (when the snapshot has no avg cost) the transaction ledger.
func (uc *PositionUseCase) resolvePosition(ctx context.Context, snap *domain.Snapshot, asOf time.Time) (domain.Position, error) {
	pos := domain.Position{
		Ticker:      snap.Ticker,
		Quantity:    snap.Quantity,
		AvgCost:     snap.AvgCost,
		MarketValue: snap.MarketValue,
		Currency:    snap.Currency,
		Option:      snap.Option,
		PriceSource: "snapshot",
		AsOf:        asOf,
	}

	// Cost basis: snapshot avg cost wins; the ledger is the fallback.
	if snap.AvgCost != nil {
		basis := snap.Quantity.Mul(*snap.AvgCost)
		pos.CostBasis = &basis
	} else {
		txns, err := uc.ledgerRepo.ListAllByTicker(ctx, snap.AccountID, snap.Ticker)
		if err != nil {
			return domain.Position{}, err
		}
		if len(txns) > 0 {
			_, basis := CostBasisFromLedger(txns, uc.method)
			pos.CostBasis = &basis
		}
	}

	priceCtx, cancel := context.WithTimeout(ctx, uc.priceTimeout)
	start := time.Now()
	quote, err := uc.prices.CurrentPrice(priceCtx, snap.Ticker)
	cancel()
	if uc.metrics != nil {
		uc.metrics.PriceLookupTime.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		// Fail soft: unavailable price leaves the live fields unset.
		if uc.metrics != nil {
			uc.metrics.PriceLookups.WithLabelValues("unavailable").Inc()
		}
		return pos, nil
	}
	if uc.metrics != nil {
		uc.metrics.PriceLookups.WithLabelValues("ok").Inc()
	}

	price := quote.Price
	pos.CurrentPrice = &price
	pos.PriceSource = quote.Source

	value := snap.Quantity.Mul(price)
	pos.CurrentValue = &value

	if pos.CostBasis != nil {
		pnl := value.Sub(*pos.CostBasis)
		pos.PnL = &pnl

		if pos.CostBasis.IsPositive() {
			pct := pnl.Div(*pos.CostBasis).Mul(decimal.NewFromInt(100))
			pos.PnLPct = &pct
		}
	}

	return pos, nil
}

// convertPosition passes every monetary field through the Currency
// Normalizer. PnLPct is a ratio and is left untouched.
func (uc *PositionUseCase) convertPosition(ctx context.Context, pos domain.Position, currency string, asOf time.Time) (domain.Position, error) {
	rate, err := uc.converter.RateFor(ctx, pos.Currency, currency, asOf)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.FXLookups.WithLabelValues("unavailable").Inc()
		}
		return domain.Position{}, err
	}
	if uc.metrics != nil {
		uc.metrics.FXLookups.WithLabelValues("ok").Inc()
	}

	mul := func(d *decimal.Decimal) *decimal.Decimal {
		if d == nil {
			return nil
		}
		v := d.Mul(rate)
		return &v
	}

	pos.MarketValue = pos.MarketValue.Mul(rate)
	pos.AvgCost = mul(pos.AvgCost)
	pos.CostBasis = mul(pos.CostBasis)
	pos.CurrentPrice = mul(pos.CurrentPrice)
	pos.CurrentValue = mul(pos.CurrentValue)
	pos.PnL = mul(pos.PnL)
	pos.Currency = currency

	return pos, nil
}

// GetPortfolioSummaryInput represents input for a portfolio-wide summary.
type GetPortfolioSummaryInput struct {
	OwnerID    string
	AccountIDs []string
	Currency   string
	AsOf       time.Time
}

// GetPortfolioSummary aggregates positions across accounts after currency
// normalization. An account whose lookups or conversions fail contributes
// an error entry instead of failing the whole query, so long multi-account
// queries return partial results.
func (uc *PositionUseCase) GetPortfolioSummary(ctx context.Context, input GetPortfolioSummaryInput) (*domain.PortfolioSummary, error) {
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	accounts, err := uc.summaryAccounts(ctx, input)
	if err != nil {
		return nil, err
	}

	summary := &domain.PortfolioSummary{
		Currency:    input.Currency,
		MarketValue: decimal.Zero,
		FXRates:     make(map[string]decimal.Decimal),
		AsOf:        asOf,
	}

	var (
		grandValue decimal.Decimal
		grandBasis decimal.Decimal
		hasValue   bool
		hasBasis   bool
	)

	for _, account := range accounts {
		acctSummary := uc.summarizeAccount(ctx, account, input.Currency, asOf, summary.FXRates)
		summary.Accounts = append(summary.Accounts, acctSummary)

		if acctSummary.Err != "" {
			if uc.metrics != nil {
				uc.metrics.SummaryPartials.Inc()
			}
			continue
		}

		summary.MarketValue = summary.MarketValue.Add(acctSummary.MarketValue)
		if acctSummary.CurrentValue != nil {
			grandValue = grandValue.Add(*acctSummary.CurrentValue)
			hasValue = true
		}
		if acctSummary.CostBasis != nil {
			grandBasis = grandBasis.Add(*acctSummary.CostBasis)
			hasBasis = true
		}
	}

	if hasValue {
		summary.CurrentValue = &grandValue
	}
	if hasBasis {
		summary.CostBasis = &grandBasis
	}
	if hasValue && hasBasis {
		pnl := grandValue.Sub(grandBasis)
		summary.PnL = &pnl
	}

	return summary, nil
}

func (uc *PositionUseCase) summaryAccounts(ctx context.Context, input GetPortfolioSummaryInput) ([]*domain.Account, error) {
	if len(input.AccountIDs) == 0 {
		limit, offset := domain.ValidatePagination(1000, 0)
		return uc.accountRepo.List(ctx, input.OwnerID, limit, offset)
	}

	accounts := make([]*domain.Account, 0, len(input.AccountIDs))
	for _, id := range input.AccountIDs {
		account, err := uc.accountRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// summarizeAccount resolves one account's positions and folds them into a
// single-currency subtotal. Errors are captured on the summary entry.
func (uc *PositionUseCase) summarizeAccount(
	ctx context.Context,
	account *domain.Account,
	currency string,
	asOf time.Time,
	fxRates map[string]decimal.Decimal,
) domain.AccountSummary {
	acctSummary := domain.AccountSummary{
		AccountID:   account.ID,
		AccountName: account.Name,
		AccountType: account.Type,
		Currency:    currency,
		MarketValue: decimal.Zero,
	}

	positions, err := uc.GetHoldings(ctx, GetHoldingsInput{AccountID: account.ID, AsOf: asOf})
	if err != nil {
		acctSummary.Err = err.Error()
		return acctSummary
	}

	var (
		value    decimal.Decimal
		basis    decimal.Decimal
		hasValue bool
		hasBasis bool
	)

	for _, pos := range positions {
		rate, err := uc.converter.RateFor(ctx, pos.Currency, currency, asOf)
		if err != nil {
			acctSummary.Err = err.Error()
			return acctSummary
		}
		if pos.Currency != currency {
			fxRates[pos.Currency+"_"+currency] = rate
		}

		converted, err := uc.convertPosition(ctx, pos, currency, asOf)
		if err != nil {
			acctSummary.Err = err.Error()
			return acctSummary
		}

		acctSummary.Positions = append(acctSummary.Positions, converted)
		acctSummary.MarketValue = acctSummary.MarketValue.Add(converted.MarketValue)

		if converted.CurrentValue != nil {
			value = value.Add(*converted.CurrentValue)
			hasValue = true
		}
		if converted.CostBasis != nil {
			basis = basis.Add(*converted.CostBasis)
			hasBasis = true
		}
	}

	if hasValue {
		acctSummary.CurrentValue = &value
	}
	if hasBasis {
		acctSummary.CostBasis = &basis
	}
	if hasValue && hasBasis {
		pnl := value.Sub(basis)
		acctSummary.PnL = &pnl
	}

	return acctSummary
}
