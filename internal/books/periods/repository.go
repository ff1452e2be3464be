package periods

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microbooks/microbooks/internal/books/shared"
)

// Repository encapsulates DB operations for reporting periods.
type Repository interface {
	GetByYear(ctx context.Context, entityID int64, year int) (ReportingPeriod, error)
	List(ctx context.Context, entityID int64) ([]ReportingPeriod, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes period operations available within a transaction.
type TxRepository interface {
	ListForUpdate(ctx context.Context, entityID int64) ([]ReportingPeriod, error)
	GetForUpdate(ctx context.Context, id int64) (ReportingPeriod, error)
	Insert(ctx context.Context, period ReportingPeriod) (ReportingPeriod, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, entity_id, calendar_year, period_count, status, created_at, updated_at`

func scanPeriod(row pgx.Row) (ReportingPeriod, error) {
	var p ReportingPeriod
	err := row.Scan(&p.ID, &p.EntityID, &p.CalendarYear, &p.PeriodCount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) GetByYear(ctx context.Context, entityID int64, year int) (ReportingPeriod, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+`
FROM reporting_periods WHERE entity_id=$1 AND calendar_year=$2`, entityID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReportingPeriod{}, shared.ErrMissingReportingPeriod
		}
		return ReportingPeriod{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, entityID int64) ([]ReportingPeriod, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+`
FROM reporting_periods WHERE entity_id=$1 ORDER BY calendar_year ASC`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReportingPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListForUpdate(ctx context.Context, entityID int64) ([]ReportingPeriod, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+periodColumns+`
FROM reporting_periods WHERE entity_id=$1 ORDER BY calendar_year ASC FOR UPDATE`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReportingPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (ReportingPeriod, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+`
FROM reporting_periods WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReportingPeriod{}, shared.ErrPeriodNotFound
		}
		return ReportingPeriod{}, err
	}
	return p, nil
}

func (r *txRepository) Insert(ctx context.Context, period ReportingPeriod) (ReportingPeriod, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO reporting_periods (entity_id, calendar_year, period_count, status)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`, period.EntityID, period.CalendarYear, period.PeriodCount, period.Status)
	if err := row.Scan(&period.ID, &period.CreatedAt, &period.UpdatedAt); err != nil {
		return ReportingPeriod{}, err
	}
	return period, nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE reporting_periods SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrPeriodNotFound
	}
	return nil
}
