package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/ledger"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/shared"
	"github.com/microbooks/microbooks/internal/books/taxes"
)

// Repository encapsulates DB operations for transactions. Mutations run
// through WithTx so validation and writes share one consistent snapshot.
type Repository interface {
	Get(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context, entityID int64) ([]Transaction, error)
	GetLineItem(ctx context.Context, id int64) (LineItem, error)
	InsertLineItem(ctx context.Context, li LineItem) (LineItem, error)
	Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations available within a store transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Transaction, error)
	Insert(ctx context.Context, txn Transaction) (Transaction, error)
	Update(ctx context.Context, txn Transaction) error
	SoftDelete(ctx context.Context, id int64) error

	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	GetPeriodByDate(ctx context.Context, entityID int64, date time.Time) (periods.ReportingPeriod, error)
	// NextSequence atomically increments and returns the per entity, per
	// type, per period document counter.
	NextSequence(ctx context.Context, entityID int64, t config.TransactionType, periodID int64) (int64, error)

	GetLineItemForUpdate(ctx context.Context, id int64) (LineItem, error)
	ListLineItems(ctx context.Context, transactionID int64) ([]LineItem, error)
	SetLineItemTransaction(ctx context.Context, lineItemID int64, transactionID int64) error
	ClearLineItemTransaction(ctx context.Context, lineItemID int64) error
	SetLineItemCredited(ctx context.Context, lineItemID int64, credited bool) error

	GetTax(ctx context.Context, id int64) (taxes.Tax, error)
	InsertLedgerEntries(ctx context.Context, entries []ledger.Entry) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const txnColumns = `t.id, t.entity_id, t.transaction_date, COALESCE(t.transaction_no, ''), t.transaction_type,
t.narration, COALESCE(t.reference, ''), t.main_account_amount::text, t.credited, t.compound,
t.currency_id, t.account_id, t.deleted_at, t.created_at, t.updated_at,
EXISTS (SELECT 1 FROM ledger_entries l WHERE l.transaction_id = t.id)`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var mainAmount string
	err := row.Scan(&t.ID, &t.EntityID, &t.TransactionDate, &t.TransactionNo, &t.TransactionType,
		&t.Narration, &t.Reference, &mainAmount, &t.Credited, &t.Compound,
		&t.CurrencyID, &t.AccountID, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt, &t.Posted)
	if err != nil {
		return Transaction{}, err
	}
	if t.MainAccountAmount, err = decimal.NewFromString(mainAmount); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

const lineItemColumns = `li.id, li.entity_id, COALESCE(li.transaction_id, 0), li.account_id,
li.amount::text, li.quantity::text, li.tax_id, li.tax_inclusive, li.credited, li.narration,
li.created_at, li.updated_at, COALESCE(tx.rate, 0)::text, COALESCE(tx.account_id, 0)`

func scanLineItem(row pgx.Row) (LineItem, error) {
	var li LineItem
	var amount, quantity, rate string
	err := row.Scan(&li.ID, &li.EntityID, &li.TransactionID, &li.AccountID,
		&amount, &quantity, &li.TaxID, &li.TaxInclusive, &li.Credited, &li.Narration,
		&li.CreatedAt, &li.UpdatedAt, &rate, &li.TaxAccountID)
	if err != nil {
		return LineItem{}, err
	}
	if li.Amount, err = decimal.NewFromString(amount); err != nil {
		return LineItem{}, err
	}
	if li.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return LineItem{}, err
	}
	if li.TaxRate, err = decimal.NewFromString(rate); err != nil {
		return LineItem{}, err
	}
	return li, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Transaction, error) {
	return getTransaction(ctx, r.db, id, "")
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getTransaction(ctx context.Context, q queryer, id int64, lock string) (Transaction, error) {
	t, err := scanTransaction(q.QueryRow(ctx, `SELECT `+txnColumns+`
FROM transactions t WHERE t.id=$1 AND t.deleted_at IS NULL`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	t.LineItems, err = listLineItems(ctx, q, id)
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func listLineItems(ctx context.Context, q queryer, transactionID int64) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT `+lineItemColumns+`
FROM line_items li LEFT JOIN taxes tx ON tx.id = li.tax_id
WHERE li.transaction_id=$1 ORDER BY li.id ASC`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, entityID int64) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT `+txnColumns+`
FROM transactions t WHERE t.entity_id=$1 AND t.deleted_at IS NULL ORDER BY t.transaction_date DESC, t.id DESC`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) GetLineItem(ctx context.Context, id int64) (LineItem, error) {
	li, err := scanLineItem(r.db.QueryRow(ctx, `SELECT `+lineItemColumns+`
FROM line_items li LEFT JOIN taxes tx ON tx.id = li.tax_id WHERE li.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LineItem{}, shared.ErrLineItemNotFound
		}
		return LineItem{}, err
	}
	return li, nil
}

func (r *repository) InsertLineItem(ctx context.Context, li LineItem) (LineItem, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO line_items (entity_id, account_id, amount, quantity, tax_id, tax_inclusive, credited, narration)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`,
		li.EntityID, li.AccountID, li.Amount.String(), li.Quantity.String(), li.TaxID, li.TaxInclusive, li.Credited, li.Narration)
	if err := row.Scan(&li.ID, &li.CreatedAt, &li.UpdatedAt); err != nil {
		return LineItem{}, err
	}
	return li, nil
}

func (r *repository) Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error) {
	return contribution(ctx, r.db, transactionID, accountID)
}

func contribution(ctx context.Context, q queryer, transactionID, accountID int64) (decimal.Decimal, error) {
	// Debit and credit sums are applied unconditionally.
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

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Transaction, error) {
	return getTransaction(ctx, r.tx, id, " FOR UPDATE OF t")
}

func (r *txRepository) Insert(ctx context.Context, txn Transaction) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions
(entity_id, transaction_date, transaction_no, transaction_type, narration, reference, main_account_amount, credited, compound, currency_id, account_id)
VALUES ($1,$2,NULLIF($3,''),$4,$5,NULLIF($6,''),$7,$8,$9,$10,$11) RETURNING id, created_at, updated_at`,
		txn.EntityID, txn.TransactionDate, txn.TransactionNo, txn.TransactionType, txn.Narration, txn.Reference,
		txn.MainAccountAmount.String(), txn.Credited, txn.Compound, txn.CurrencyID, txn.AccountID)
	if err := row.Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) Update(ctx context.Context, txn Transaction) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET
transaction_date=$2, transaction_no=NULLIF($3,''), narration=$4, reference=NULLIF($5,''),
main_account_amount=$6, credited=$7, compound=$8, currency_id=$9, account_id=$10, updated_at=NOW()
WHERE id=$1 AND deleted_at IS NULL`,
		txn.ID, txn.TransactionDate, txn.TransactionNo, txn.Narration, txn.Reference,
		txn.MainAccountAmount.String(), txn.Credited, txn.Compound, txn.CurrencyID, txn.AccountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

func (r *txRepository) SoftDelete(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET deleted_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
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

func (r *txRepository) GetPeriodByDate(ctx context.Context, entityID int64, date time.Time) (periods.ReportingPeriod, error) {
	var p periods.ReportingPeriod
	err := r.tx.QueryRow(ctx, `SELECT id, entity_id, calendar_year, period_count, status, created_at, updated_at
FROM reporting_periods WHERE entity_id=$1 AND calendar_year=$2`, entityID, date.Year()).
		Scan(&p.ID, &p.EntityID, &p.CalendarYear, &p.PeriodCount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.ReportingPeriod{}, shared.ErrMissingReportingPeriod
		}
		return periods.ReportingPeriod{}, err
	}
	return p, nil
}

func (r *txRepository) NextSequence(ctx context.Context, entityID int64, t config.TransactionType, periodID int64) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transaction_no_sequences (entity_id, transaction_type, period_id, seq)
VALUES ($1,$2,$3,1)
ON CONFLICT (entity_id, transaction_type, period_id)
DO UPDATE SET seq = transaction_no_sequences.seq + 1
RETURNING seq`, entityID, t, periodID).Scan(&seq)
	return seq, err
}

func (r *txRepository) GetLineItemForUpdate(ctx context.Context, id int64) (LineItem, error) {
	li, err := scanLineItem(r.tx.QueryRow(ctx, `SELECT `+lineItemColumns+`
FROM line_items li LEFT JOIN taxes tx ON tx.id = li.tax_id WHERE li.id=$1 FOR UPDATE OF li`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LineItem{}, shared.ErrLineItemNotFound
		}
		return LineItem{}, err
	}
	return li, nil
}

func (r *txRepository) ListLineItems(ctx context.Context, transactionID int64) ([]LineItem, error) {
	return listLineItems(ctx, r.tx, transactionID)
}

func (r *txRepository) SetLineItemTransaction(ctx context.Context, lineItemID int64, transactionID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE line_items SET transaction_id=$2, updated_at=NOW() WHERE id=$1 AND transaction_id IS NULL`, lineItemID, transactionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrLineItemNotFound
	}
	return nil
}

func (r *txRepository) ClearLineItemTransaction(ctx context.Context, lineItemID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE line_items SET transaction_id=NULL, updated_at=NOW() WHERE id=$1`, lineItemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrLineItemNotFound
	}
	return nil
}

func (r *txRepository) SetLineItemCredited(ctx context.Context, lineItemID int64, credited bool) error {
	_, err := r.tx.Exec(ctx, `UPDATE line_items SET credited=$2, updated_at=NOW() WHERE id=$1`, lineItemID, credited)
	return err
}

func (r *txRepository) GetTax(ctx context.Context, id int64) (taxes.Tax, error) {
	var t taxes.Tax
	var rate string
	err := r.tx.QueryRow(ctx, `SELECT id, entity_id, name, code, rate::text, COALESCE(account_id, 0), created_at, updated_at
FROM taxes WHERE id=$1`, id).Scan(&t.ID, &t.EntityID, &t.Name, &t.Code, &rate, &t.AccountID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return taxes.Tax{}, shared.ErrTaxNotFound
		}
		return taxes.Tax{}, err
	}
	if t.Rate, err = decimal.NewFromString(rate); err != nil {
		return taxes.Tax{}, err
	}
	return t, nil
}

func (r *txRepository) InsertLedgerEntries(ctx context.Context, entries []ledger.Entry) error {
	for _, e := range entries {
		if _, err := r.tx.Exec(ctx, `INSERT INTO ledger_entries (entity_id, transaction_id, posting_id, post_account_id, currency_id, entry_type, amount)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, e.EntityID, e.TransactionID, e.PostingID, e.PostAccountID, e.CurrencyID, e.EntryType, e.Amount.String()); err != nil {
			return err
		}
	}
	return nil
}
