package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/ledger"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/shared"
	internalShared "github.com/microbooks/microbooks/internal/shared"
)

// AuditPort records posting and deletion events.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// MetricsPort counts posted transactions and ledger entries.
type MetricsPort interface {
	TransactionPosted(transactionType string, entries int)
}

// Service runs the transaction lifecycle: created unposted, validated on
// every persist, posted once, immutable afterwards.
type Service struct {
	repo    Repository
	cfg     *config.Config
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
}

// NewService returns a transaction service. audit and metrics may be nil.
func NewService(repo Repository, cfg *config.Config, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, cfg: cfg, audit: audit, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get fetches a transaction with its line items and posted flag.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// List returns the entity's transactions, newest first.
func (s *Service) List(ctx context.Context, entityID int64) ([]Transaction, error) {
	return s.repo.List(ctx, entityID)
}

// Create validates and inserts an unposted transaction. The transaction
// number is assigned here, from the per entity, per type, per period counter,
// inside the same store transaction as the insert.
func (s *Service) Create(ctx context.Context, txn Transaction) (Transaction, error) {
	spec, err := s.spec(txn.TransactionType)
	if err != nil {
		return Transaction{}, err
	}
	txn.Credited = spec.Credited
	txn.Compound = spec.Compound && txn.Compound
	var created Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.validate(ctx, tx, &txn, spec); err != nil {
			return err
		}
		created, err = tx.Insert(ctx, txn)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return created, nil
}

// Update revalidates and persists a still unposted transaction. The
// transaction type is immutable once persisted.
func (s *Service) Update(ctx context.Context, txn Transaction) (Transaction, error) {
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, txn.ID)
		if err != nil {
			return err
		}
		if current.TransactionType != txn.TransactionType {
			return shared.ErrInvalidTransactionType
		}
		spec, err := s.spec(txn.TransactionType)
		if err != nil {
			return err
		}
		txn.EntityID = current.EntityID
		txn.TransactionNo = current.TransactionNo
		txn.Credited = current.Credited
		txn.Compound = current.Compound
		txn.Posted = current.Posted
		txn.LineItems = current.LineItems
		if err := s.validate(ctx, tx, &txn, spec); err != nil {
			return err
		}
		if err := tx.Update(ctx, txn); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// CreateLineItem persists a detached line item so it can be attached.
func (s *Service) CreateLineItem(ctx context.Context, li LineItem) (LineItem, error) {
	if li.Amount.IsNegative() {
		return LineItem{}, fmt.Errorf("%w: line item amount", shared.ErrNegativeValue)
	}
	if li.Quantity.IsNegative() {
		return LineItem{}, fmt.Errorf("%w: line item quantity", shared.ErrNegativeValue)
	}
	if li.Quantity.IsZero() {
		li.Quantity = decimal.NewFromInt(1)
	}
	return s.repo.InsertLineItem(ctx, li)
}

// AttachLineItem adds a persisted line item to an unposted transaction. For
// non compound transactions the line item is forced onto the opposite side
// of the main account.
func (s *Service) AttachLineItem(ctx context.Context, transactionID, lineItemID int64) error {
	if lineItemID == 0 {
		return shared.ErrLineItemNotPersisted
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.IsPosted() {
			return fmt.Errorf("%w: cannot add line items", shared.ErrPostedTransaction)
		}
		li, err := tx.GetLineItemForUpdate(ctx, lineItemID)
		if err != nil {
			return err
		}
		spec, err := s.spec(txn.TransactionType)
		if err != nil {
			return err
		}
		if err := s.checkLineItem(txn, li, spec); err != nil {
			return err
		}
		liAccount, err := tx.GetAccount(ctx, li.AccountID)
		if err != nil {
			return err
		}
		if !allowedType(spec.LineItemAccountTypes, liAccount.Type) {
			return fmt.Errorf("%w: %s line item account must be one of %v, got %s",
				shared.ErrInvalidLineItemAccount, spec.Label, spec.LineItemAccountTypes, liAccount.Type)
		}
		if !txn.Compound && li.Credited == txn.Credited {
			if err := tx.SetLineItemCredited(ctx, li.ID, !txn.Credited); err != nil {
				return err
			}
		}
		return tx.SetLineItemTransaction(ctx, li.ID, txn.ID)
	})
}

// DetachLineItem removes a line item from an unposted transaction.
func (s *Service) DetachLineItem(ctx context.Context, transactionID, lineItemID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.IsPosted() {
			return fmt.Errorf("%w: cannot remove line items", shared.ErrPostedTransaction)
		}
		li, err := tx.GetLineItemForUpdate(ctx, lineItemID)
		if err != nil {
			return err
		}
		if li.TransactionID != txn.ID {
			return shared.ErrLineItemNotFound
		}
		return tx.ClearLineItemTransaction(ctx, li.ID)
	})
}

// Post validates the transaction one final time, builds the balanced ledger
// entry batch and writes it. All writes share one store transaction: either
// every entry lands or none do. A posted transaction can never be posted
// again because validation rejects it.
func (s *Service) Post(ctx context.Context, id int64) (Transaction, error) {
	var posted Transaction
	var entryCount int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		spec, err := s.spec(txn.TransactionType)
		if err != nil {
			return err
		}
		if err := s.validate(ctx, tx, &txn, spec); err != nil {
			return err
		}
		if len(txn.LineItems) == 0 {
			return shared.ErrMissingLineItem
		}
		if txn.Compound && txn.MainAccountAmount.IsZero() {
			return shared.ErrMissingMainAccountAmount
		}
		entries, err := ledger.Build(txn.posting())
		if err != nil {
			return err
		}
		// Flush pending mutations (assigned number, resolved currency)
		// before the entries reference the row.
		if err := tx.Update(ctx, txn); err != nil {
			return err
		}
		if err := tx.InsertLedgerEntries(ctx, entries); err != nil {
			return err
		}
		txn.Posted = true
		posted = txn
		entryCount = len(entries)
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	if s.metrics != nil {
		s.metrics.TransactionPosted(string(posted.TransactionType), entryCount)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			Action:   "transaction.post",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", posted.ID),
			Meta: map[string]any{
				"transaction_no":   posted.TransactionNo,
				"transaction_type": string(posted.TransactionType),
				"amount":           posted.Amount().String(),
			},
			At: s.now(),
		})
	}
	return posted, nil
}

// Delete soft deletes an unposted transaction. Posted transactions are never
// deletable; create a reversing entry instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		txn, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if txn.IsPosted() {
			return fmt.Errorf("%w: cannot delete", shared.ErrPostedTransaction)
		}
		for _, li := range txn.LineItems {
			if err := tx.ClearLineItemTransaction(ctx, li.ID); err != nil {
				return err
			}
		}
		return tx.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			Action:   "transaction.delete",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", id),
			At:       s.now(),
		})
	}
	return nil
}

// Contribution returns the net amount (debit minus credit) the transaction
// posted to the account.
func (s *Service) Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error) {
	return s.repo.Contribution(ctx, transactionID, accountID)
}

func (s *Service) spec(t config.TransactionType) (config.TypeSpec, error) {
	spec := s.cfg.Spec(t)
	if spec.Label == "" {
		return config.TypeSpec{}, fmt.Errorf("%w: %q", shared.ErrUnknownTransactionType, t)
	}
	return spec, nil
}

// validate enforces the recording rules before any persist. The order is
// load bearing: immutability first, then account, then period gating, then
// numbering, then line items.
func (s *Service) validate(ctx context.Context, tx TxRepository, txn *Transaction, spec config.TypeSpec) error {
	if txn.IsPosted() {
		return fmt.Errorf("%w: transaction %s", shared.ErrPostedTransaction, txn.TransactionNo)
	}

	account, err := tx.GetAccount(ctx, txn.AccountID)
	if err != nil {
		return err
	}
	if !allowedType(spec.MainAccountTypes, account.Type) {
		return fmt.Errorf("%w: %s main account must be one of %v, got %s",
			shared.ErrInvalidMainAccount, spec.Label, spec.MainAccountTypes, account.Type)
	}
	txn.CurrencyID = account.CurrencyID

	period, err := tx.GetPeriodByDate(ctx, txn.EntityID, txn.TransactionDate)
	if err != nil {
		if errors.Is(err, shared.ErrMissingReportingPeriod) {
			return fmt.Errorf("%w: entity %d year %d", shared.ErrMissingReportingPeriod, txn.EntityID, txn.TransactionDate.Year())
		}
		return err
	}
	switch period.Status {
	case periods.StatusClosed:
		return fmt.Errorf("%w: %d", shared.ErrClosedReportingPeriod, period.CalendarYear)
	case periods.StatusAdjusting:
		if txn.TransactionType != config.TypeJournalEntry {
			return fmt.Errorf("%w: %d", shared.ErrAdjustingReportingPeriod, period.CalendarYear)
		}
	}
	if txn.TransactionDate.Equal(period.Interval().Start) {
		return shared.ErrInvalidTransactionDate
	}

	if txn.TransactionNo == "" {
		seq, err := tx.NextSequence(ctx, txn.EntityID, txn.TransactionType, period.ID)
		if err != nil {
			return err
		}
		txn.TransactionNo = fmt.Sprintf("%s%02d/%04d", spec.NoPrefix, period.PeriodCount, seq)
	}

	for _, li := range txn.LineItems {
		if err := s.checkLineItem(*txn, li, spec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkLineItem(txn Transaction, li LineItem, spec config.TypeSpec) error {
	if li.AccountID == txn.AccountID {
		return fmt.Errorf("%w: line item %d", shared.ErrRedundantTransaction, li.ID)
	}
	if li.TaxID != nil && !spec.Taxable {
		return fmt.Errorf("%w: %s", shared.ErrInvalidTaxCharge, spec.Label)
	}
	return nil
}

func allowedType(allowed []accounts.AccountType, t accounts.AccountType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}
