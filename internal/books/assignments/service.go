package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/ledger"
	"github.com/microbooks/microbooks/internal/books/shared"
	"github.com/microbooks/microbooks/internal/books/transactions"
	internalShared "github.com/microbooks/microbooks/internal/shared"
)

// AuditPort records clearance events.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// MetricsPort counts recorded clearances.
type MetricsPort interface {
	AssignmentRecorded(amount decimal.Decimal)
}

// Service records and adjusts clearances between posted transactions. Every
// mutation revalidates the full precondition chain against row locked
// balances so no assignment can overdraw either side.
type Service struct {
	repo    Repository
	cfg     *config.Config
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
}

// NewService returns an assignment service. audit and metrics may be nil.
func NewService(repo Repository, cfg *config.Config, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, cfg: cfg, audit: audit, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get fetches an assignment by id.
func (s *Service) Get(ctx context.Context, id int64) (Assignment, error) {
	return s.repo.Get(ctx, id)
}

// ListByAssigned returns the clearances recorded against a transaction.
func (s *Service) ListByAssigned(ctx context.Context, assignedID int64) ([]Assignment, error) {
	return s.repo.ListByAssigned(ctx, assignedID)
}

// Create records a clearance of assigned by assigning. When amount is nil
// the clearance defaults to min(outstanding(assigned), available(assigning)).
func (s *Service) Create(ctx context.Context, entityID, assigningID, assignedID int64, amount *decimal.Decimal) (Assignment, error) {
	if assigningID == assignedID {
		return Assignment{}, shared.ErrSelfClearance
	}
	var created Assignment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		assigning, assigned, err := lockPair(ctx, tx, assigningID, assignedID)
		if err != nil {
			return err
		}
		if err := s.checkPair(ctx, tx, assigning, assigned); err != nil {
			return err
		}
		outstanding, available, err := s.balances(ctx, tx, assigning, assigned, 0)
		if err != nil {
			return err
		}
		if !outstanding.IsPositive() {
			return fmt.Errorf("%w: transaction %s", shared.ErrOverclearance, assigned.TransactionNo)
		}
		resolved := minDecimal(outstanding, available)
		if amount != nil {
			resolved = *amount
		}
		if err := checkAmount(resolved, outstanding, available, assigning.TransactionNo, assigned.TransactionNo); err != nil {
			return err
		}
		created, err = tx.Insert(ctx, Assignment{
			EntityID:    entityID,
			AssigningID: assigningID,
			AssignedID:  assignedID,
			Amount:      resolved,
		})
		return err
	})
	if err != nil {
		return Assignment{}, err
	}
	if s.metrics != nil {
		s.metrics.AssignmentRecorded(created.Amount)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			Action:   "assignment.create",
			Entity:   "assignment",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta: map[string]any{
				"assigning_transaction_id": assigningID,
				"assigned_transaction_id":  assignedID,
				"amount":                   created.Amount.String(),
			},
			At: s.now(),
		})
	}
	return created, nil
}

// UpdateAmount adjusts a recorded clearance, re-running the pair
// preconditions and revalidating both balances with the assignment's own
// amount excluded from the prior sums.
func (s *Service) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal) (Assignment, error) {
	var updated Assignment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		assigning, assigned, err := lockPair(ctx, tx, current.AssigningID, current.AssignedID)
		if err != nil {
			return err
		}
		if err := s.checkPair(ctx, tx, assigning, assigned); err != nil {
			return err
		}
		outstanding, available, err := s.balances(ctx, tx, assigning, assigned, current.ID)
		if err != nil {
			return err
		}
		if err := checkAmount(amount, outstanding, available, assigning.TransactionNo, assigned.TransactionNo); err != nil {
			return err
		}
		if err := tx.UpdateAmount(ctx, id, amount); err != nil {
			return err
		}
		updated = current
		updated.Amount = amount
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	return updated, nil
}

// Delete removes a clearance, restoring both transactions' balances.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
}

// Outstanding returns the uncleared portion of the transaction's posted
// amount on its main account.
func (s *Service) Outstanding(ctx context.Context, transactionID int64) (decimal.Decimal, error) {
	txn, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	contribution, err := s.repo.Contribution(ctx, txn.ID, txn.AccountID)
	if err != nil {
		return decimal.Zero, err
	}
	cleared, err := s.repo.SumByAssigned(ctx, txn.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return contribution.Abs().Sub(cleared), nil
}

// Available returns the unassigned portion of the transaction's posted
// amount on its main account.
func (s *Service) Available(ctx context.Context, transactionID int64) (decimal.Decimal, error) {
	txn, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return decimal.Zero, err
	}
	contribution, err := s.repo.Contribution(ctx, txn.ID, txn.AccountID)
	if err != nil {
		return decimal.Zero, err
	}
	drawn, err := s.repo.SumByAssigning(ctx, txn.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return contribution.Abs().Sub(drawn), nil
}

// lockPair loads both transactions FOR UPDATE in id order so two concurrent
// clearances over the same pair cannot deadlock.
func lockPair(ctx context.Context, tx TxRepository, assigningID, assignedID int64) (transactions.Transaction, transactions.Transaction, error) {
	firstID, secondID := assigningID, assignedID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := tx.GetTransactionForUpdate(ctx, firstID)
	if err != nil {
		return transactions.Transaction{}, transactions.Transaction{}, err
	}
	second, err := tx.GetTransactionForUpdate(ctx, secondID)
	if err != nil {
		return transactions.Transaction{}, transactions.Transaction{}, err
	}
	if first.ID == assigningID {
		return first, second, nil
	}
	return second, first, nil
}

// checkPair runs the clearance preconditions in their specified order.
func (s *Service) checkPair(ctx context.Context, tx TxRepository, assigning, assigned transactions.Transaction) error {
	if !assigning.IsPosted() || !assigned.IsPosted() {
		return shared.ErrUnpostedAssignment
	}
	if assigning.Compound || assigned.Compound {
		return shared.ErrCompoundTransactionAssignment
	}
	if assigning.AccountID != assigned.AccountID {
		return shared.ErrInvalidAssignmentAccount
	}
	if !s.cfg.ClearableBy(assigned.TransactionType, assigning.TransactionType) {
		return fmt.Errorf("%w: %s cannot clear %s", shared.ErrUnassignableTransaction,
			assigning.TransactionType, assigned.TransactionType)
	}
	if !s.cfg.CanClear(assigning.TransactionType, assigned.TransactionType) {
		return fmt.Errorf("%w: %s cannot be cleared by %s", shared.ErrUnclearableTransaction,
			assigned.TransactionType, assigning.TransactionType)
	}
	account, err := tx.GetAccount(ctx, assigning.AccountID)
	if err != nil {
		return err
	}
	entryType := ledger.EntryTypeFor(assigning.Credited)
	if entryType != s.cfg.ReducingEntryType(account.Type) {
		return fmt.Errorf("%w: %s entry on %s account", shared.ErrInvalidClearanceEntryType, entryType, account.Type)
	}
	assigningWasAssigned, err := tx.ExistsAsAssigned(ctx, assigning.ID)
	if err != nil {
		return err
	}
	assignedWasAssigning, err := tx.ExistsAsAssigning(ctx, assigned.ID)
	if err != nil {
		return err
	}
	if assigningWasAssigned || assignedWasAssigning {
		return shared.ErrMixedAssignment
	}
	return nil
}

// balances recomputes both sides from the locked rows.
func (s *Service) balances(ctx context.Context, tx TxRepository, assigning, assigned transactions.Transaction, excludeID int64) (outstanding, available decimal.Decimal, err error) {
	assignedContribution, err := tx.Contribution(ctx, assigned.ID, assigned.AccountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	cleared, err := tx.SumByAssigned(ctx, assigned.ID, excludeID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	assigningContribution, err := tx.Contribution(ctx, assigning.ID, assigning.AccountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	drawn, err := tx.SumByAssigning(ctx, assigning.ID, excludeID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return assignedContribution.Abs().Sub(cleared), assigningContribution.Abs().Sub(drawn), nil
}

func checkAmount(amount, outstanding, available decimal.Decimal, assigningNo, assignedNo string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: assignment amount", shared.ErrNegativeValue)
	}
	if amount.GreaterThan(available) {
		return fmt.Errorf("%w: transaction %s has %s available, %s requested",
			shared.ErrInsufficientBalance, assigningNo, available, amount)
	}
	if amount.GreaterThan(outstanding) {
		return fmt.Errorf("%w: transaction %s has %s outstanding, %s requested",
			shared.ErrOverclearance, assignedNo, outstanding, amount)
	}
	return nil
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
