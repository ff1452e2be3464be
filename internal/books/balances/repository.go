package balances

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/shared"
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
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

func (r *repository) GetOpenPeriod(ctx context.Context, entityID int64) (periods.ReportingPeriod, error) {
	var p periods.ReportingPeriod
	err := r.db.QueryRow(ctx, `SELECT id, entity_id, calendar_year, period_count, status, created_at, updated_at
FROM reporting_periods WHERE entity_id=$1 AND status='OPEN'`, entityID).
		Scan(&p.ID, &p.EntityID, &p.CalendarYear, &p.PeriodCount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.ReportingPeriod{}, shared.ErrMissingReportingPeriod
		}
		return periods.ReportingPeriod{}, err
	}
	return p, nil
}

func (r *repository) Insert(ctx context.Context, balance Balance) (Balance, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO balances
(entity_id, account_id, reporting_period_id, transaction_date, transaction_no, transaction_type, amount, credited, currency_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`,
		balance.EntityID, balance.AccountID, balance.ReportingPeriodID, balance.TransactionDate,
		balance.TransactionNo, balance.TransactionType, balance.Amount.String(), balance.Credited, balance.CurrencyID)
	if err := row.Scan(&balance.ID, &balance.CreatedAt, &balance.UpdatedAt); err != nil {
		return Balance{}, err
	}
	return balance, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID int64) ([]Balance, error) {
	rows, err := r.db.Query(ctx, `SELECT id, entity_id, account_id, reporting_period_id, transaction_date,
transaction_no, transaction_type, amount::text, credited, currency_id, created_at, updated_at
FROM balances WHERE account_id=$1 ORDER BY id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Balance
	for rows.Next() {
		var b Balance
		var amount string
		if err := rows.Scan(&b.ID, &b.EntityID, &b.AccountID, &b.ReportingPeriodID, &b.TransactionDate,
			&b.TransactionNo, &b.TransactionType, &amount, &b.Credited, &b.CurrencyID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
