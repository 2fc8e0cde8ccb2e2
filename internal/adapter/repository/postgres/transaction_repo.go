package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository over the
// append-only ledger relation. Provider-sourced rows are deduplicated by a
// partial unique index on (account_id, external_id).
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, account_id, ticker, trade_date, price, volume,
		costs, currency, source, external_id, created_at`

// Insert appends a transaction. A redelivered provider row (same account
// and external id) returns the original row with created=false.
func (r *TransactionRepository) Insert(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) (*domain.Transaction, bool, error) {
	q := r.querier(tx)

	row := q.QueryRow(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id, external_id) WHERE source = 'snaptrade' DO NOTHING
		RETURNING id`,
		txn.ID,
		txn.AccountID,
		txn.Ticker,
		timeToPgDate(txn.TradeDate),
		decimalToNumeric(txn.Price),
		decimalToNumeric(txn.Volume),
		decimalToNumeric(txn.Costs),
		txn.Currency,
		string(txn.Source),
		stringPtrToText(txn.ExternalID),
		timeToPgTimestamptz(txn.CreatedAt),
	)

	var insertedID string
	err := row.Scan(&insertedID)
	if err == nil {
		return txn, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.getByExternalID(ctx, q, txn.AccountID, *txn.ExternalID)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

// ListByAccount lists transactions, optionally filtered by ticker, in
// trade-date order with the insertion-ordered id as tiebreak.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, ticker string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1 AND ($2 = '' OR ticker = $2)
		ORDER BY trade_date, id
		LIMIT $3 OFFSET $4`,
		accountID, ticker, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListAllByTicker returns the ticker's full history in replay order. The
// implied quantity is a sum over every row, so this query never paginates.
func (r *TransactionRepository) ListAllByTicker(ctx context.Context, accountID, ticker string) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1 AND ticker = $2
		ORDER BY trade_date, id`,
		accountID, ticker,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Tickers returns the distinct tickers the account has ever traded.
func (r *TransactionRepository) Tickers(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ticker
		FROM transactions
		WHERE account_id = $1
		ORDER BY ticker`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, err
		}
		tickers = append(tickers, ticker)
	}

	return tickers, rows.Err()
}

func (r *TransactionRepository) getByExternalID(ctx context.Context, q querier, accountID, externalID string) (*domain.Transaction, error) {
	row := q.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1 AND external_id = $2 AND source = 'snaptrade'`,
		accountID, externalID,
	)

	return scanTransaction(row)
}

func (r *TransactionRepository) querier(tx usecase.Transaction) querier {
	if tx != nil {
		return tx.(*Tx).PgxTx()
	}

	return r.pool
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn        domain.Transaction
		tradeDate  pgtype.Date
		price      pgtype.Numeric
		volume     pgtype.Numeric
		costs      pgtype.Numeric
		source     string
		externalID pgtype.Text
		createdAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Ticker,
		&tradeDate,
		&price,
		&volume,
		&costs,
		&txn.Currency,
		&source,
		&externalID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	txn.TradeDate = tradeDate.Time
	txn.Price = numericToDecimal(price)
	txn.Volume = numericToDecimal(volume)
	txn.Costs = numericToDecimal(costs)
	txn.Source = domain.Source(source)
	txn.ExternalID = textToStringPtr(externalID)
	txn.CreatedAt = createdAt.Time

	return &txn, nil
}
