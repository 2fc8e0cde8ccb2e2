package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/folio/internal/domain"
	"github.com/iho/folio/internal/usecase"
)

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx, so the
// same statement can run pooled or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, owner_id, name, type, base_currency, last_synced_at, created_at`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, owner_id, name, type, base_currency, last_synced_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID,
		account.OwnerID,
		account.Name,
		string(account.Type),
		account.BaseCurrency,
		timePtrToPgTimestamptz(account.LastSyncedAt),
		timeToPgTimestamptz(account.CreatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`,
		id,
	)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// List lists accounts, optionally filtered by owner, with pagination.
func (r *AccountRepository) List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY id
		LIMIT $2 OFFSET $3`,
		ownerID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// TouchLastSynced stamps the account's last successful sync, inside the
// same transaction as the batch that produced it.
func (r *AccountRepository) TouchLastSynced(ctx context.Context, tx usecase.Transaction, id string, syncedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `
		UPDATE accounts
		SET last_synced_at = $2
		WHERE id = $1`,
		id, timeToPgTimestamptz(syncedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account      domain.Account
		accountType  string
		lastSyncedAt pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Name,
		&accountType,
		&account.BaseCurrency,
		&lastSyncedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = domain.AccountType(accountType)
	account.LastSyncedAt = pgTimestamptzToTimePtr(lastSyncedAt)
	account.CreatedAt = createdAt.Time

	return &account, nil
}
