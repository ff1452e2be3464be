package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/shared"
)

// Repository encapsulates DB operations for accounts.
type Repository interface {
	Get(ctx context.Context, id int64) (Account, error)
	List(ctx context.Context, entityID int64) ([]Account, error)
	// CategoryType resolves the account type of a category row.
	CategoryType(ctx context.Context, id int64) (AccountType, error)
	Insert(ctx context.Context, account Account) (Account, error)
	// ClosingBalance sums ledger debits minus credits posted to the account
	// up to and including asOf.
	ClosingBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error)
	// TypeBalances sums ledger debits minus credits per account of the given
	// types between the dates, keyed by account id.
	TypeBalances(ctx context.Context, entityID int64, types []AccountType, from, to time.Time) ([]Balance, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, entity_id, name, type, currency_id, category_id, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.EntityID, &a.Name, &a.Type, &a.CurrencyID, &a.CategoryID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, entityID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE entity_id=$1 ORDER BY name`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) CategoryType(ctx context.Context, id int64) (AccountType, error) {
	var t AccountType
	err := r.db.QueryRow(ctx, `SELECT account_type FROM categories WHERE id=$1`, id).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrCategoryNotFound
		}
		return "", err
	}
	return t, nil
}

func (r *repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (entity_id, name, type, currency_id, category_id)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`,
		account.EntityID, account.Name, account.Type, account.CurrencyID, account.CategoryID)
	if err := row.Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return Account{}, err
	}
	return account, nil
}

func (r *repository) ClosingBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	var sum string
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN l.entry_type='DEBIT' THEN l.amount ELSE -l.amount END), 0)::text
FROM ledger_entries l
JOIN transactions t ON t.id = l.transaction_id
WHERE l.post_account_id=$1 AND t.transaction_date <= $2 AND t.deleted_at IS NULL`, accountID, asOf).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
}

func (r *repository) TypeBalances(ctx context.Context, entityID int64, types []AccountType, from, to time.Time) ([]Balance, error) {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	rows, err := r.db.Query(ctx, `SELECT a.id, COALESCE(SUM(CASE WHEN l.entry_type='DEBIT' THEN l.amount ELSE -l.amount END), 0)::text
FROM accounts a
JOIN ledger_entries l ON l.post_account_id = a.id
JOIN transactions t ON t.id = l.transaction_id
WHERE a.entity_id=$1 AND a.type = ANY($2)
  AND t.transaction_date BETWEEN $3 AND $4 AND t.deleted_at IS NULL
GROUP BY a.id`, entityID, names, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Balance
	for rows.Next() {
		var b Balance
		var sum string
		if err := rows.Scan(&b.AccountID, &sum); err != nil {
			return nil, err
		}
		if b.Amount, err = decimal.NewFromString(sum); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
