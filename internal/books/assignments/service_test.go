package assignments

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/shared"
	"github.com/microbooks/microbooks/internal/books/transactions"
	internalShared "github.com/microbooks/microbooks/internal/shared"
)

// stubAssignStore backs both repository interfaces with in-memory state.
// Contributions are keyed by transaction id because the service always asks
// for a transaction's contribution to its own main account.
type stubAssignStore struct {
	nextID        int64
	txns          map[int64]transactions.Transaction
	accounts      map[int64]accounts.Account
	contributions map[int64]decimal.Decimal
	assignments   map[int64]Assignment
}

func (s *stubAssignStore) sumByAssigned(assignedID, excludeID int64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.assignments {
		if a.AssignedID == assignedID && a.ID != excludeID {
			total = total.Add(a.Amount)
		}
	}
	return total
}

func (s *stubAssignStore) sumByAssigning(assigningID, excludeID int64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.assignments {
		if a.AssigningID == assigningID && a.ID != excludeID {
			total = total.Add(a.Amount)
		}
	}
	return total
}

type stubAssignRepo struct {
	store *stubAssignStore
}

func (r *stubAssignRepo) Get(ctx context.Context, id int64) (Assignment, error) {
	a, ok := r.store.assignments[id]
	if !ok {
		return Assignment{}, shared.ErrAssignmentNotFound
	}
	return a, nil
}

func (r *stubAssignRepo) ListByAssigned(ctx context.Context, assignedID int64) ([]Assignment, error) {
	var out []Assignment
	for _, a := range r.store.assignments {
		if a.AssignedID == assignedID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAssignRepo) GetTransaction(ctx context.Context, id int64) (transactions.Transaction, error) {
	txn, ok := r.store.txns[id]
	if !ok {
		return transactions.Transaction{}, shared.ErrTransactionNotFound
	}
	return txn, nil
}

func (r *stubAssignRepo) SumByAssigned(ctx context.Context, assignedID int64) (decimal.Decimal, error) {
	return r.store.sumByAssigned(assignedID, 0), nil
}

func (r *stubAssignRepo) SumByAssigning(ctx context.Context, assigningID int64) (decimal.Decimal, error) {
	return r.store.sumByAssigning(assigningID, 0), nil
}

func (r *stubAssignRepo) Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error) {
	return r.store.contributions[transactionID], nil
}

func (r *stubAssignRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &stubAssignTx{store: r.store})
}

type stubAssignTx struct {
	store *stubAssignStore
}

func (t *stubAssignTx) GetTransactionForUpdate(ctx context.Context, id int64) (transactions.Transaction, error) {
	txn, ok := t.store.txns[id]
	if !ok {
		return transactions.Transaction{}, shared.ErrTransactionNotFound
	}
	return txn, nil
}

func (t *stubAssignTx) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := t.store.accounts[id]
	if !ok {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (t *stubAssignTx) Contribution(ctx context.Context, transactionID, accountID int64) (decimal.Decimal, error) {
	return t.store.contributions[transactionID], nil
}

func (t *stubAssignTx) SumByAssigned(ctx context.Context, assignedID, excludeID int64) (decimal.Decimal, error) {
	return t.store.sumByAssigned(assignedID, excludeID), nil
}

func (t *stubAssignTx) SumByAssigning(ctx context.Context, assigningID, excludeID int64) (decimal.Decimal, error) {
	return t.store.sumByAssigning(assigningID, excludeID), nil
}

func (t *stubAssignTx) ExistsAsAssigned(ctx context.Context, transactionID int64) (bool, error) {
	for _, a := range t.store.assignments {
		if a.AssignedID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *stubAssignTx) ExistsAsAssigning(ctx context.Context, transactionID int64) (bool, error) {
	for _, a := range t.store.assignments {
		if a.AssigningID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *stubAssignTx) GetForUpdate(ctx context.Context, id int64) (Assignment, error) {
	a, ok := t.store.assignments[id]
	if !ok {
		return Assignment{}, shared.ErrAssignmentNotFound
	}
	return a, nil
}

func (t *stubAssignTx) Insert(ctx context.Context, a Assignment) (Assignment, error) {
	t.store.nextID++
	a.ID = t.store.nextID
	t.store.assignments[a.ID] = a
	return a, nil
}

func (t *stubAssignTx) UpdateAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	a, ok := t.store.assignments[id]
	if !ok {
		return shared.ErrAssignmentNotFound
	}
	a.Amount = amount
	t.store.assignments[id] = a
	return nil
}

func (t *stubAssignTx) Delete(ctx context.Context, id int64) error {
	if _, ok := t.store.assignments[id]; !ok {
		return shared.ErrAssignmentNotFound
	}
	delete(t.store.assignments, id)
	return nil
}

type recordingAudit struct {
	logs []internalShared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log internalShared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type recordingMetrics struct {
	recorded []decimal.Decimal
}

func (m *recordingMetrics) AssignmentRecorded(amount decimal.Decimal) {
	m.recorded = append(m.recorded, amount)
}

const (
	receivableID = int64(1)
	invoiceID    = int64(10)
	receiptID    = int64(20)
	otherReceipt = int64(30)
)

// clearanceStore sets up a posted invoice contributing 100 to the receivable
// account and a posted receipt contributing 80 against it.
func clearanceStore() *stubAssignStore {
	store := &stubAssignStore{
		txns:          make(map[int64]transactions.Transaction),
		accounts:      make(map[int64]accounts.Account),
		contributions: make(map[int64]decimal.Decimal),
		assignments:   make(map[int64]Assignment),
	}
	store.accounts[receivableID] = accounts.Account{ID: receivableID, EntityID: 1, Type: accounts.AccountTypeReceivable, CurrencyID: 1}
	store.txns[invoiceID] = transactions.Transaction{
		ID: invoiceID, EntityID: 1, TransactionNo: "IN01/0001",
		TransactionType: config.TypeClientInvoice, AccountID: receivableID, Posted: true,
	}
	store.txns[receiptID] = transactions.Transaction{
		ID: receiptID, EntityID: 1, TransactionNo: "RC01/0001",
		TransactionType: config.TypeClientReceipt, AccountID: receivableID, Credited: true, Posted: true,
	}
	store.contributions[invoiceID] = decimal.NewFromInt(100)
	store.contributions[receiptID] = decimal.NewFromInt(-80)
	return store
}

func newClearanceService(store *stubAssignStore) *Service {
	return NewService(&stubAssignRepo{store: store}, config.Default(), &recordingAudit{}, &recordingMetrics{})
}

func amt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateDefaultsToSmallerBalance(t *testing.T) {
	store := clearanceStore()
	audit := &recordingAudit{}
	metrics := &recordingMetrics{}
	service := NewService(&stubAssignRepo{store: store}, config.Default(), audit, metrics)

	created, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Receipt has 80 available against an invoice outstanding of 100.
	if !created.Amount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("amount = %s, want 80", created.Amount)
	}
	if len(metrics.recorded) != 1 || !metrics.recorded[0].Equal(decimal.NewFromInt(80)) {
		t.Fatalf("metrics = %v", metrics.recorded)
	}
	if len(audit.logs) != 1 || audit.logs[0].Action != "assignment.create" {
		t.Fatalf("audit logs = %+v", audit.logs)
	}
}

func TestCreateWithExplicitAmount(t *testing.T) {
	store := clearanceStore()
	service := newClearanceService(store)

	created, err := service.Create(context.Background(), 1, receiptID, invoiceID, amt(50))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("amount = %s, want 50", created.Amount)
	}

	outstanding, err := service.Outstanding(context.Background(), invoiceID)
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if !outstanding.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("outstanding = %s, want 50", outstanding)
	}
	available, err := service.Available(context.Background(), receiptID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("available = %s, want 30", available)
	}
}

func TestCreateRejectsSelfClearance(t *testing.T) {
	service := newClearanceService(clearanceStore())
	if _, err := service.Create(context.Background(), 1, receiptID, receiptID, nil); !errors.Is(err, shared.ErrSelfClearance) {
		t.Fatalf("expected ErrSelfClearance, got %v", err)
	}
}

func TestCreatePreconditionChain(t *testing.T) {
	t.Run("both sides must be posted", func(t *testing.T) {
		store := clearanceStore()
		txn := store.txns[invoiceID]
		txn.Posted = false
		store.txns[invoiceID] = txn
		service := newClearanceService(store)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrUnpostedAssignment) {
			t.Fatalf("expected ErrUnpostedAssignment, got %v", err)
		}
	})

	t.Run("compound transactions are excluded", func(t *testing.T) {
		store := clearanceStore()
		txn := store.txns[receiptID]
		txn.Compound = true
		store.txns[receiptID] = txn
		service := newClearanceService(store)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrCompoundTransactionAssignment) {
			t.Fatalf("expected ErrCompoundTransactionAssignment, got %v", err)
		}
	})

	t.Run("main accounts must match", func(t *testing.T) {
		store := clearanceStore()
		txn := store.txns[receiptID]
		txn.AccountID = 99
		store.txns[receiptID] = txn
		service := newClearanceService(store)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrInvalidAssignmentAccount) {
			t.Fatalf("expected ErrInvalidAssignmentAccount, got %v", err)
		}
	})

	t.Run("assigned type must accept the assigning type", func(t *testing.T) {
		store := clearanceStore()
		txn := store.txns[receiptID]
		txn.TransactionType = config.TypeSupplierPayment
		store.txns[receiptID] = txn
		service := newClearanceService(store)
		// A supplier payment clears bills, not client invoices.
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrUnassignableTransaction) {
			t.Fatalf("expected ErrUnassignableTransaction, got %v", err)
		}
	})

	t.Run("assigning type must be able to clear", func(t *testing.T) {
		store := clearanceStore()
		cfg := config.Default()
		spec := cfg.Types[config.TypeClientReceipt]
		spec.Clears = nil
		cfg.Types[config.TypeClientReceipt] = spec
		service := NewService(&stubAssignRepo{store: store}, cfg, nil, nil)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrUnclearableTransaction) {
			t.Fatalf("expected ErrUnclearableTransaction, got %v", err)
		}
	})

	t.Run("clearance entry must reduce the account balance", func(t *testing.T) {
		store := clearanceStore()
		txn := store.txns[receiptID]
		txn.Credited = false
		store.txns[receiptID] = txn
		service := newClearanceService(store)
		// A debit entry grows a receivable balance instead of reducing it.
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrInvalidClearanceEntryType) {
			t.Fatalf("expected ErrInvalidClearanceEntryType, got %v", err)
		}
	})

	t.Run("a transaction cannot be both sides", func(t *testing.T) {
		store := clearanceStore()
		store.txns[otherReceipt] = transactions.Transaction{
			ID: otherReceipt, EntityID: 1, TransactionNo: "JN01/0001",
			TransactionType: config.TypeJournalEntry, AccountID: receivableID, Credited: true, Posted: true,
		}
		store.assignments[1] = Assignment{ID: 1, EntityID: 1, AssigningID: otherReceipt, AssignedID: receiptID, Amount: decimal.NewFromInt(1)}
		store.nextID = 1
		service := newClearanceService(store)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrMixedAssignment) {
			t.Fatalf("expected ErrMixedAssignment, got %v", err)
		}
	})
}

func TestCreateBalanceGuards(t *testing.T) {
	t.Run("fully cleared transaction", func(t *testing.T) {
		store := clearanceStore()
		store.txns[otherReceipt] = transactions.Transaction{
			ID: otherReceipt, EntityID: 1, TransactionNo: "RC01/0002",
			TransactionType: config.TypeClientReceipt, AccountID: receivableID, Credited: true, Posted: true,
		}
		store.contributions[otherReceipt] = decimal.NewFromInt(-100)
		store.assignments[1] = Assignment{ID: 1, EntityID: 1, AssigningID: otherReceipt, AssignedID: invoiceID, Amount: decimal.NewFromInt(100)}
		store.nextID = 1
		service := newClearanceService(store)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil); !errors.Is(err, shared.ErrOverclearance) {
			t.Fatalf("expected ErrOverclearance, got %v", err)
		}
	})

	t.Run("amount above the outstanding balance", func(t *testing.T) {
		store := clearanceStore()
		store.contributions[invoiceID] = decimal.NewFromInt(40)
		service := newClearanceService(store)
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, amt(50)); !errors.Is(err, shared.ErrOverclearance) {
			t.Fatalf("expected ErrOverclearance, got %v", err)
		}
	})

	t.Run("amount above the available balance", func(t *testing.T) {
		service := newClearanceService(clearanceStore())
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, amt(90)); !errors.Is(err, shared.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("amount must be positive", func(t *testing.T) {
		service := newClearanceService(clearanceStore())
		if _, err := service.Create(context.Background(), 1, receiptID, invoiceID, amt(0)); !errors.Is(err, shared.ErrNegativeValue) {
			t.Fatalf("expected ErrNegativeValue, got %v", err)
		}
	})
}

func TestUpdateAmountExcludesOwnRow(t *testing.T) {
	store := clearanceStore()
	store.contributions[receiptID] = decimal.NewFromInt(-120)
	service := newClearanceService(store)

	created, err := service.Create(context.Background(), 1, receiptID, invoiceID, amt(80))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Raising 80 to 100 only works if the row's own amount is excluded from
	// the cleared and drawn sums during revalidation.
	updated, err := service.UpdateAmount(context.Background(), created.ID, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("update amount: %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("amount = %s, want 100", updated.Amount)
	}
	if !store.assignments[created.ID].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatal("amount not persisted")
	}

	if _, err := service.UpdateAmount(context.Background(), created.ID, decimal.NewFromInt(130)); !errors.Is(err, shared.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestUpdateAmountRerunsPreconditions(t *testing.T) {
	store := clearanceStore()
	service := newClearanceService(store)

	created, err := service.Create(context.Background(), 1, receiptID, invoiceID, amt(50))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A pair that no longer satisfies the clearance preconditions cannot
	// have its amount changed either.
	txn := store.txns[invoiceID]
	txn.Posted = false
	store.txns[invoiceID] = txn
	if _, err := service.UpdateAmount(context.Background(), created.ID, decimal.NewFromInt(60)); !errors.Is(err, shared.ErrUnpostedAssignment) {
		t.Fatalf("expected ErrUnpostedAssignment, got %v", err)
	}

	txn.Posted = true
	txn.Compound = true
	store.txns[invoiceID] = txn
	if _, err := service.UpdateAmount(context.Background(), created.ID, decimal.NewFromInt(60)); !errors.Is(err, shared.ErrCompoundTransactionAssignment) {
		t.Fatalf("expected ErrCompoundTransactionAssignment, got %v", err)
	}
}

func TestDeleteRestoresBalances(t *testing.T) {
	store := clearanceStore()
	service := newClearanceService(store)

	created, err := service.Create(context.Background(), 1, receiptID, invoiceID, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.Get(context.Background(), created.ID); !errors.Is(err, shared.ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}

	outstanding, err := service.Outstanding(context.Background(), invoiceID)
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if !outstanding.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("outstanding = %s, want 100", outstanding)
	}
}
