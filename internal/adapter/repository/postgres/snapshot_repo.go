package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// SnapshotRepository implements usecase.SnapshotRepository. The relation is
// append-only: rows are never updated or deleted, and the unique key
// (account_id, ticker, snapshot_date) makes redelivered writes no-ops.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `id, account_id, ticker, snapshot_date, quantity, avg_cost,
		market_value, currency, option_type, option_strike, option_expiration,
		option_underlying, created_at`

// Insert appends a snapshot row. When the (account, ticker, date) key
// already exists the prior row wins: it is returned with created=false and
// the relation is untouched.
func (r *SnapshotRepository) Insert(ctx context.Context, tx usecase.Transaction, snapshot *domain.Snapshot) (*domain.Snapshot, bool, error) {
	q := r.querier(tx)

	var (
		optType       pgtype.Text
		optStrike     pgtype.Numeric
		optExpiration pgtype.Date
		optUnderlying pgtype.Text
	)
	if opt := snapshot.Option; opt != nil {
		optType = pgtype.Text{String: string(opt.Type), Valid: true}
		optStrike = decimalToNumeric(opt.Strike)
		optExpiration = timeToPgDate(opt.Expiration)
		optUnderlying = pgtype.Text{String: opt.Underlying, Valid: true}
	}

	row := q.QueryRow(ctx, `
		INSERT INTO holdings_snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_id, ticker, snapshot_date) DO NOTHING
		RETURNING id`,
		snapshot.ID,
		snapshot.AccountID,
		snapshot.Ticker,
		timeToPgDate(snapshot.SnapshotDate),
		decimalToNumeric(snapshot.Quantity),
		decimalPtrToNumeric(snapshot.AvgCost),
		decimalToNumeric(snapshot.MarketValue),
		snapshot.Currency,
		optType,
		optStrike,
		optExpiration,
		optUnderlying,
		timeToPgTimestamptz(snapshot.CreatedAt),
	)

	var insertedID string
	err := row.Scan(&insertedID)
	if err == nil {
		return snapshot, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: hand back the row that got there first.
	existing, err := r.get(ctx, q, snapshot.AccountID, snapshot.Ticker, snapshot.SnapshotDate)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

// Latest returns the most recent snapshot for a ticker at or before asOf.
func (r *SnapshotRepository) Latest(ctx context.Context, accountID, ticker string, asOf time.Time) (*domain.Snapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM holdings_snapshots
		WHERE account_id = $1 AND ticker = $2 AND snapshot_date <= $3
		ORDER BY snapshot_date DESC
		LIMIT 1`,
		accountID, ticker, timeToPgDate(asOf),
	)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoHoldings
		}

		return nil, err
	}

	return snapshot, nil
}

// AllLatest returns the latest snapshot per ticker at or before asOf,
// keyed by ticker.
func (r *SnapshotRepository) AllLatest(ctx context.Context, accountID string, asOf time.Time) (map[string]*domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (ticker) `+snapshotColumns+`
		FROM holdings_snapshots
		WHERE account_id = $1 AND snapshot_date <= $2
		ORDER BY ticker, snapshot_date DESC`,
		accountID, timeToPgDate(asOf),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[string]*domain.Snapshot)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		latest[snapshot.Ticker] = snapshot
	}

	return latest, rows.Err()
}

// ListByTicker lists a ticker's snapshot history, newest first.
func (r *SnapshotRepository) ListByTicker(ctx context.Context, accountID, ticker string, limit, offset int) ([]*domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM holdings_snapshots
		WHERE account_id = $1 AND ticker = $2
		ORDER BY snapshot_date DESC
		LIMIT $3 OFFSET $4`,
		accountID, ticker, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

func (r *SnapshotRepository) get(ctx context.Context, q querier, accountID, ticker string, date time.Time) (*domain.Snapshot, error) {
	row := q.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM holdings_snapshots
		WHERE account_id = $1 AND ticker = $2 AND snapshot_date = $3`,
		accountID, ticker, timeToPgDate(date),
	)

	return scanSnapshot(row)
}

func (r *SnapshotRepository) querier(tx usecase.Transaction) querier {
	if tx != nil {
		return tx.(*Tx).PgxTx()
	}

	return r.pool
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var (
		snapshot      domain.Snapshot
		snapshotDate  pgtype.Date
		quantity      pgtype.Numeric
		avgCost       pgtype.Numeric
		marketValue   pgtype.Numeric
		optType       pgtype.Text
		optStrike     pgtype.Numeric
		optExpiration pgtype.Date
		optUnderlying pgtype.Text
		createdAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&snapshot.ID,
		&snapshot.AccountID,
		&snapshot.Ticker,
		&snapshotDate,
		&quantity,
		&avgCost,
		&marketValue,
		&snapshot.Currency,
		&optType,
		&optStrike,
		&optExpiration,
		&optUnderlying,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	snapshot.SnapshotDate = snapshotDate.Time
	snapshot.Quantity = numericToDecimal(quantity)
	snapshot.AvgCost = numericToDecimalPtr(avgCost)
	snapshot.MarketValue = numericToDecimal(marketValue)
	snapshot.CreatedAt = createdAt.Time

	if optType.Valid {
		snapshot.Option = &domain.OptionContract{
			Type:       domain.OptionType(optType.String),
			Strike:     numericToDecimal(optStrike),
			Expiration: optExpiration.Time,
			Underlying: optUnderlying.String,
		}
	}

	return &snapshot, nil
}
