package taxes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id int64) (Tax, error) {
	var t Tax
	var rate string
	err := r.db.QueryRow(ctx, `SELECT id, entity_id, name, code, rate::text, COALESCE(account_id, 0), created_at, updated_at
FROM taxes WHERE id=$1`, id).Scan(&t.ID, &t.EntityID, &t.Name, &t.Code, &rate, &t.AccountID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tax{}, shared.ErrTaxNotFound
		}
		return Tax{}, err
	}
	if t.Rate, err = decimal.NewFromString(rate); err != nil {
		return Tax{}, err
	}
	return t, nil
}

func (r *repository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.db.QueryRow(ctx, `SELECT id, entity_id, name, type, currency_id, category_id, created_at, updated_at
FROM accounts WHERE id=$1`, id).Scan(&a.ID, &a.EntityID, &a.Name, &a.Type, &a.CurrencyID, &a.CategoryID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, tax Tax) (Tax, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO taxes (entity_id, name, code, rate, account_id)
VALUES ($1,$2,$3,$4,NULLIF($5,0)) RETURNING id, created_at, updated_at`,
		tax.EntityID, tax.Name, tax.Code, tax.Rate.String(), tax.AccountID)
	if err := row.Scan(&tax.ID, &tax.CreatedAt, &tax.UpdatedAt); err != nil {
		return Tax{}, err
	}
	return tax, nil
}
