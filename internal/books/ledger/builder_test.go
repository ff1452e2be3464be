package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/microbooks/microbooks/internal/books/shared"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sumSide(entries []Entry, accountID int64, entryType EntryType) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.PostAccountID == accountID && e.EntryType == entryType {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func requireBalanced(t *testing.T, entries []Entry) {
	t.Helper()
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.EntryType == EntryTypeDebit {
			debit = debit.Add(e.Amount)
		} else {
			credit = credit.Add(e.Amount)
		}
	}
	if !debit.Equal(credit) {
		t.Fatalf("entries unbalanced: debit %s credit %s", debit, credit)
	}
}

func TestBuildCashSaleWithTax(t *testing.T) {
	// 200 sale with 10% tax: bank 220 DR, revenue 200 CR, control 20 CR.
	entries, err := Build(Posting{
		EntityID:      1,
		TransactionID: 7,
		MainAccountID: 10, // bank
		CurrencyID:    1,
		Credited:      false,
		Lines: []Line{{
			AccountID:    20, // revenue
			Amount:       dec("200"),
			Quantity:     decimal.NewFromInt(1),
			Credited:     true,
			TaxRate:      dec("10"),
			TaxAccountID: 30, // control
		}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireBalanced(t, entries)

	if got := sumSide(entries, 10, EntryTypeDebit); !got.Equal(dec("220")) {
		t.Fatalf("bank debit = %s, want 220", got)
	}
	if got := sumSide(entries, 20, EntryTypeCredit); !got.Equal(dec("200")) {
		t.Fatalf("revenue credit = %s, want 200", got)
	}
	if got := sumSide(entries, 30, EntryTypeCredit); !got.Equal(dec("20")) {
		t.Fatalf("control credit = %s, want 20", got)
	}
	for _, e := range entries[1:] {
		if e.PostingID != entries[0].PostingID {
			t.Fatal("entries of one posting must share a posting id")
		}
	}
}

func TestBuildTaxInclusiveLine(t *testing.T) {
	// A 110 tax-inclusive line at 10%: the line account carries base minus
	// tax, the tax account carries the tax, the main account carries base.
	entries, err := Build(Posting{
		EntityID:      1,
		TransactionID: 8,
		MainAccountID: 10,
		CurrencyID:    1,
		Credited:      false,
		Lines: []Line{{
			AccountID:    20,
			Amount:       dec("110"),
			Quantity:     decimal.NewFromInt(1),
			Credited:     true,
			TaxRate:      dec("10"),
			TaxAccountID: 30,
			TaxInclusive: true,
		}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireBalanced(t, entries)

	if got := sumSide(entries, 10, EntryTypeDebit); !got.Equal(dec("110")) {
		t.Fatalf("main debit = %s, want 110", got)
	}
	if got := sumSide(entries, 20, EntryTypeCredit); !got.Equal(dec("99")) {
		t.Fatalf("line credit = %s, want 99", got)
	}
	if got := sumSide(entries, 30, EntryTypeCredit); !got.Equal(dec("11")) {
		t.Fatalf("tax credit = %s, want 11", got)
	}
}

func TestBuildQuantityRounding(t *testing.T) {
	entries, err := Build(Posting{
		EntityID:      1,
		TransactionID: 9,
		MainAccountID: 10,
		CurrencyID:    1,
		Lines: []Line{{
			AccountID: 20,
			Amount:    dec("3.33333"),
			Quantity:  decimal.NewFromInt(3),
			Credited:  true,
		}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireBalanced(t, entries)
	if got := sumSide(entries, 20, EntryTypeCredit); !got.Equal(dec("9.9999")) {
		t.Fatalf("line credit = %s, want 9.9999", got)
	}
}

func TestBuildCompoundJournal(t *testing.T) {
	// Main account 100 CR against two debit lines 60 + 40.
	entries, err := Build(Posting{
		EntityID:      1,
		TransactionID: 11,
		MainAccountID: 10,
		CurrencyID:    1,
		Credited:      true,
		Compound:      true,
		MainAmount:    dec("100"),
		Lines: []Line{
			{AccountID: 20, Amount: dec("60"), Quantity: decimal.NewFromInt(1), Credited: false},
			{AccountID: 21, Amount: dec("40"), Quantity: decimal.NewFromInt(1), Credited: false},
		},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireBalanced(t, entries)
	if got := sumSide(entries, 10, EntryTypeCredit); !got.Equal(dec("100")) {
		t.Fatalf("main credit = %s, want 100", got)
	}
}

func TestBuildCompoundUnbalanced(t *testing.T) {
	_, err := Build(Posting{
		EntityID:      1,
		TransactionID: 12,
		MainAccountID: 10,
		CurrencyID:    1,
		Credited:      true,
		Compound:      true,
		MainAmount:    dec("100"),
		Lines: []Line{
			{AccountID: 20, Amount: dec("60"), Quantity: decimal.NewFromInt(1), Credited: false},
		},
	})
	if !errors.Is(err, shared.ErrUnbalancedTransaction) {
		t.Fatalf("expected ErrUnbalancedTransaction, got %v", err)
	}
}

func TestBuildRejectsEmptyLines(t *testing.T) {
	_, err := Build(Posting{EntityID: 1, TransactionID: 13, MainAccountID: 10})
	if !errors.Is(err, shared.ErrMissingLineItem) {
		t.Fatalf("expected ErrMissingLineItem, got %v", err)
	}
}

func TestBuildRejectsZeroAmountPosting(t *testing.T) {
	// Zero amounts never become rows, so a posting whose lines all come to
	// zero must fail instead of yielding an empty batch.
	for _, compound := range []bool{false, true} {
		_, err := Build(Posting{
			EntityID:      1,
			TransactionID: 15,
			MainAccountID: 10,
			CurrencyID:    1,
			Compound:      compound,
			Lines: []Line{{
				AccountID: 20,
				Amount:    decimal.Zero,
				Quantity:  decimal.NewFromInt(1),
				Credited:  true,
			}},
		})
		if !errors.Is(err, shared.ErrMissingLineItem) {
			t.Fatalf("compound=%v: expected ErrMissingLineItem, got %v", compound, err)
		}
	}
}

func TestContribution(t *testing.T) {
	entries, err := Build(Posting{
		EntityID:      1,
		TransactionID: 14,
		MainAccountID: 10,
		CurrencyID:    1,
		Credited:      false,
		Lines: []Line{{
			AccountID: 20,
			Amount:    dec("150"),
			Quantity:  decimal.NewFromInt(1),
			Credited:  true,
		}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := Contribution(entries, 10); !got.Equal(dec("150")) {
		t.Fatalf("main contribution = %s, want 150", got)
	}
	if got := Contribution(entries, 20); !got.Equal(dec("-150")) {
		t.Fatalf("line contribution = %s, want -150", got)
	}
}
