package assignments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/shared"
	"github.com/microbooks/microbooks/internal/books/transactions"
)

// Repository encapsulates DB operations for assignments.
type Repository interface {
	Get(ctx context.Context, id int64) (Assignment, error)
	ListByAssigned(ctx context.Context, assignedID int64) ([]Assignment, error)
	GetTransaction(ctx context.Context, id int64) (transactions.Transaction, error)
	SumByAssigned(ctx context.Context, assignedID int64) (decimal.Decimal, error)
	SumByAssigning(ctx context.Context, assigningID int64) (decimal.Decimal, error)
	Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within a store transaction. The
// transaction rows are read FOR UPDATE so two concurrent clearances against
// the same balance serialize instead of both reading a stale outstanding
// amount.
type TxRepository interface {
	GetTransactionForUpdate(ctx context.Context, id int64) (transactions.Transaction, error)
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error)
	// SumByAssigned totals clearance amounts recorded against the assigned
	// transaction, optionally excluding one assignment row.
	SumByAssigned(ctx context.Context, assignedID, excludeID int64) (decimal.Decimal, error)
	// SumByAssigning totals clearance amounts already drawn from the
	// assigning transaction, optionally excluding one assignment row.
	SumByAssigning(ctx context.Context, assigningID, excludeID int64) (decimal.Decimal, error)
	ExistsAsAssigned(ctx context.Context, transactionID int64) (bool, error)
	ExistsAsAssigning(ctx context.Context, transactionID int64) (bool, error)
	GetForUpdate(ctx context.Context, id int64) (Assignment, error)
	Insert(ctx context.Context, a Assignment) (Assignment, error)
	UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   *pgxpool.Pool
	txns transactions.Repository
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db, txns: transactions.NewRepository(db)}
}

const assignmentColumns = `id, entity_id, assigning_transaction_id, assigned_transaction_id, amount::text, created_at, updated_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var amount string
	err := row.Scan(&a.ID, &a.EntityID, &a.AssigningID, &a.AssignedID, &amount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Assignment{}, err
	}
	if a.Amount, err = decimal.NewFromString(amount); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func (r *repository) ListByAssigned(ctx context.Context, assignedID int64) ([]Assignment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assignmentColumns+`
FROM assignments WHERE assigned_transaction_id=$1 ORDER BY id ASC`, assignedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) GetTransaction(ctx context.Context, id int64) (transactions.Transaction, error) {
	return r.txns.Get(ctx, id)
}

func (r *repository) SumByAssigned(ctx context.Context, assignedID int64) (decimal.Decimal, error) {
	return sumAssignments(ctx, r.db, `assigned_transaction_id`, assignedID, 0)
}

func (r *repository) SumByAssigning(ctx context.Context, assigningID int64) (decimal.Decimal, error) {
	return sumAssignments(ctx, r.db, `assigning_transaction_id`, assigningID, 0)
}

func (r *repository) Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error) {
	return contribution(ctx, r.db, transactionID, accountID)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumAssignments(ctx context.Context, q queryer, column string, transactionID, excludeID int64) (decimal.Decimal, error) {
	var sum string
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text FROM assignments
WHERE `+column+`=$1 AND id <> $2`, transactionID, excludeID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
}

func contribution(ctx context.Context, q queryer, transactionID, accountID int64) (decimal.Decimal, error) {
	var sum string
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN entry_type='DEBIT' THEN amount ELSE -amount END), 0)::text
FROM ledger_entries WHERE transaction_id=$1 AND post_account_id=$2`, transactionID, accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
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

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (transactions.Transaction, error) {
	var t transactions.Transaction
	var mainAmount string
	err := r.tx.QueryRow(ctx, `SELECT t.id, t.entity_id, t.transaction_date, COALESCE(t.transaction_no, ''), t.transaction_type,
t.narration, COALESCE(t.reference, ''), t.main_account_amount::text, t.credited, t.compound,
t.currency_id, t.account_id, t.deleted_at, t.created_at, t.updated_at,
EXISTS (SELECT 1 FROM ledger_entries l WHERE l.transaction_id = t.id)
FROM transactions t WHERE t.id=$1 AND t.deleted_at IS NULL FOR UPDATE OF t`, id).
		Scan(&t.ID, &t.EntityID, &t.TransactionDate, &t.TransactionNo, &t.TransactionType,
			&t.Narration, &t.Reference, &mainAmount, &t.Credited, &t.Compound,
			&t.CurrencyID, &t.AccountID, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt, &t.Posted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transactions.Transaction{}, shared.ErrTransactionNotFound
		}
		return transactions.Transaction{}, err
	}
	if t.MainAccountAmount, err = decimal.NewFromString(mainAmount); err != nil {
		return transactions.Transaction{}, err
	}
	return t, nil
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, entity_id, name, type, currency_id, category_id, created_at, updated_at
FROM accounts WHERE id=$1`, id).Scan(&a.ID, &a.EntityID, &a.Name, &a.Type, &a.CurrencyID, &a.CategoryID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error) {
	return contribution(ctx, r.tx, transactionID, accountID)
}

func (r *txRepository) SumByAssigned(ctx context.Context, assignedID, excludeID int64) (decimal.Decimal, error) {
	return sumAssignments(ctx, r.tx, `assigned_transaction_id`, assignedID, excludeID)
}

func (r *txRepository) SumByAssigning(ctx context.Context, assigningID, excludeID int64) (decimal.Decimal, error) {
	return sumAssignments(ctx, r.tx, `assigning_transaction_id`, assigningID, excludeID)
}

func (r *txRepository) ExistsAsAssigned(ctx context.Context, transactionID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM assignments WHERE assigned_transaction_id=$1)`, transactionID).Scan(&exists)
	return exists, err
}

func (r *txRepository) ExistsAsAssigning(ctx context.Context, transactionID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM assignments WHERE assigning_transaction_id=$1)`, transactionID).Scan(&exists)
	return exists, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx, `SELECT `+assignmentColumns+`
FROM assignments WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func (r *txRepository) Insert(ctx context.Context, a Assignment) (Assignment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO assignments (entity_id, assigning_transaction_id, assigned_transaction_id, amount)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		a.EntityID, a.AssigningID, a.AssignedID, a.Amount.String())
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (r *txRepository) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE assignments SET amount=$2, updated_at=NOW() WHERE id=$1`, id, amount.String())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAssignmentNotFound
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM assignments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAssignmentNotFound
	}
	return nil
}
