package balances

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/accounts"
	"github.com/microbooks/microbooks/internal/books/config"
	"github.com/microbooks/microbooks/internal/books/periods"
	"github.com/microbooks/microbooks/internal/books/shared"
)

type stubBalanceRepo struct {
	nextID   int64
	accounts map[int64]accounts.Account
	period   periods.ReportingPeriod
	balances map[int64]Balance
}

func newStubBalanceRepo() *stubBalanceRepo {
	repo := &stubBalanceRepo{
		accounts: make(map[int64]accounts.Account),
		balances: make(map[int64]Balance),
	}
	repo.accounts[1] = accounts.Account{ID: 1, EntityID: 1, Name: "Trade Debtors", Type: accounts.AccountTypeReceivable, CurrencyID: 1}
	repo.accounts[2] = accounts.Account{ID: 2, EntityID: 1, Name: "Sales", Type: accounts.AccountTypeOperatingRevenue, CurrencyID: 1}
	repo.period = periods.ReportingPeriod{ID: 7, EntityID: 1, CalendarYear: 2025, PeriodCount: 1, Status: periods.StatusOpen}
	return repo
}

func (r *stubBalanceRepo) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (r *stubBalanceRepo) GetOpenPeriod(ctx context.Context, entityID int64) (periods.ReportingPeriod, error) {
	if r.period.EntityID != entityID {
		return periods.ReportingPeriod{}, shared.ErrMissingReportingPeriod
	}
	return r.period, nil
}

func (r *stubBalanceRepo) Insert(ctx context.Context, balance Balance) (Balance, error) {
	r.nextID++
	balance.ID = r.nextID
	r.balances[balance.ID] = balance
	return balance, nil
}

func (r *stubBalanceRepo) ListByAccount(ctx context.Context, accountID int64) ([]Balance, error) {
	var out []Balance
	for _, b := range r.balances {
		if b.AccountID == accountID {
			out = append(out, b)
		}
	}
	return out, nil
}

func openingBalance() Balance {
	return Balance{
		EntityID:        1,
		AccountID:       1,
		TransactionDate: time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC),
		TransactionNo:   "IN 2024/099",
		TransactionType: config.TypeClientInvoice,
		Amount:          decimal.NewFromInt(250),
	}
}

func TestCreateOpeningBalance(t *testing.T) {
	repo := newStubBalanceRepo()
	service := NewService(repo)

	created, err := service.Create(context.Background(), openingBalance())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ReportingPeriodID != 7 {
		t.Fatalf("reporting period = %d, want 7", created.ReportingPeriodID)
	}
	if created.CurrencyID != 1 {
		t.Fatal("currency not resolved from the account")
	}

	listed, err := service.ListByAccount(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d balances, want 1", len(listed))
	}
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	service := NewService(newStubBalanceRepo())
	balance := openingBalance()
	balance.Amount = decimal.NewFromInt(-250)
	if _, err := service.Create(context.Background(), balance); !errors.Is(err, shared.ErrNegativeValue) {
		t.Fatalf("expected ErrNegativeValue, got %v", err)
	}
}

func TestCreateRejectsNonBalanceType(t *testing.T) {
	service := NewService(newStubBalanceRepo())
	balance := openingBalance()
	balance.TransactionType = config.TypeCashSale
	if _, err := service.Create(context.Background(), balance); !errors.Is(err, shared.ErrInvalidBalanceTransaction) {
		t.Fatalf("expected ErrInvalidBalanceTransaction, got %v", err)
	}
}

func TestCreateRejectsIncomeStatementAccount(t *testing.T) {
	service := NewService(newStubBalanceRepo())
	balance := openingBalance()
	balance.AccountID = 2
	if _, err := service.Create(context.Background(), balance); !errors.Is(err, shared.ErrInvalidBalanceAccount) {
		t.Fatalf("expected ErrInvalidBalanceAccount, got %v", err)
	}
}

func TestCreateRejectsDateInsideThePeriod(t *testing.T) {
	service := NewService(newStubBalanceRepo())

	balance := openingBalance()
	balance.TransactionDate = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	if _, err := service.Create(context.Background(), balance); !errors.Is(err, shared.ErrInvalidBalanceDate) {
		t.Fatalf("expected ErrInvalidBalanceDate, got %v", err)
	}

	// The period start itself is not before the period.
	balance.TransactionDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, err := service.Create(context.Background(), balance); !errors.Is(err, shared.ErrInvalidBalanceDate) {
		t.Fatalf("expected ErrInvalidBalanceDate at the period start, got %v", err)
	}
}

func TestCreateRequiresOpenPeriod(t *testing.T) {
	service := NewService(newStubBalanceRepo())
	balance := openingBalance()
	balance.EntityID = 99
	if _, err := service.Create(context.Background(), balance); !errors.Is(err, shared.ErrMissingReportingPeriod) {
		t.Fatalf("expected ErrMissingReportingPeriod, got %v", err)
	}
}
