package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/shared"
)

type stubAccountRepo struct {
	nextID        int64
	accounts      map[int64]Account
	categoryTypes map[int64]AccountType
	closing       map[int64]decimal.Decimal
	typeBalances  []Balance
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{
		accounts:      make(map[int64]Account),
		categoryTypes: make(map[int64]AccountType),
		closing:       make(map[int64]decimal.Decimal),
	}
}

func (r *stubAccountRepo) Get(ctx context.Context, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (r *stubAccountRepo) List(ctx context.Context, entityID int64) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAccountRepo) CategoryType(ctx context.Context, id int64) (AccountType, error) {
	t, ok := r.categoryTypes[id]
	if !ok {
		return "", shared.ErrCategoryNotFound
	}
	return t, nil
}

func (r *stubAccountRepo) Insert(ctx context.Context, account Account) (Account, error) {
	r.nextID++
	account.ID = r.nextID
	r.accounts[account.ID] = account
	return account, nil
}

func (r *stubAccountRepo) ClosingBalance(ctx context.Context, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	return r.closing[accountID], nil
}

func (r *stubAccountRepo) TypeBalances(ctx context.Context, entityID int64, types []AccountType, from, to time.Time) ([]Balance, error) {
	return r.typeBalances, nil
}

func TestCreateAccount(t *testing.T) {
	repo := newStubAccountRepo()
	service := NewService(repo)

	created, err := service.Create(context.Background(), Account{EntityID: 1, Name: "Main Bank", Type: AccountTypeBank, CurrencyID: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("account not persisted")
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	service := NewService(newStubAccountRepo())
	if _, err := service.Create(context.Background(), Account{EntityID: 1, Name: "Bad", Type: "PETTY_CASH"}); !errors.Is(err, shared.ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}

func TestCreateChecksCategoryType(t *testing.T) {
	repo := newStubAccountRepo()
	repo.categoryTypes[5] = AccountTypeOperatingRevenue
	service := NewService(repo)

	categoryID := int64(5)
	if _, err := service.Create(context.Background(), Account{EntityID: 1, Name: "Sales", Type: AccountTypeOperatingRevenue, CategoryID: &categoryID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Create(context.Background(), Account{EntityID: 1, Name: "Bank", Type: AccountTypeBank, CategoryID: &categoryID}); !errors.Is(err, shared.ErrInvalidCategoryAccountType) {
		t.Fatalf("expected ErrInvalidCategoryAccountType, got %v", err)
	}

	missing := int64(99)
	if _, err := service.Create(context.Background(), Account{EntityID: 1, Name: "Bank", Type: AccountTypeBank, CategoryID: &missing}); !errors.Is(err, shared.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestSectionBalanceSumsPerAccountTotals(t *testing.T) {
	repo := newStubAccountRepo()
	repo.typeBalances = []Balance{
		{AccountID: 1, Amount: decimal.NewFromInt(-200)},
		{AccountID: 2, Amount: decimal.NewFromInt(-20)},
	}
	service := NewService(repo)

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	total, err := service.SectionBalance(context.Background(), 1, []AccountType{AccountTypeOperatingRevenue}, from, to)
	if err != nil {
		t.Fatalf("section balance: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(-220)) {
		t.Fatalf("total = %s, want -220", total)
	}
}

func TestIncomeStatementTypes(t *testing.T) {
	if !IsIncomeStatementType(AccountTypeOperatingRevenue) {
		t.Fatal("operating revenue belongs to the income statement")
	}
	if IsIncomeStatementType(AccountTypeBank) {
		t.Fatal("bank is a balance sheet type")
	}
}

func TestIsValidAccountType(t *testing.T) {
	for _, at := range AllAccountTypes {
		if !IsValidAccountType(at) {
			t.Fatalf("%s should be valid", at)
		}
	}
	if IsValidAccountType("GOODWILL_RESERVE") {
		t.Fatal("unknown type accepted")
	}
}
