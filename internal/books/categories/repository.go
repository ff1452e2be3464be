package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/microbooks/microbooks/internal/books/shared"
)

// Repository encapsulates DB operations for categories.
type Repository interface {
	Get(ctx context.Context, id int64) (Category, error)
	List(ctx context.Context, entityID int64) ([]Category, error)
	Insert(ctx context.Context, category Category) (Category, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const categoryColumns = `id, entity_id, name, account_type, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.EntityID, &c.Name, &c.AccountType, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrCategoryNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, entityID int64) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE entity_id=$1 ORDER BY name`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, category Category) (Category, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO categories (entity_id, name, account_type)
VALUES ($1,$2,$3) RETURNING id, created_at, updated_at`,
		category.EntityID, category.Name, category.AccountType)
	if err := row.Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return Category{}, err
	}
	return category, nil
}
