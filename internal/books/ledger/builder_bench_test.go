package ledger

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
)

func benchPosting(lines int) Posting {
	p := Posting{
		EntityID:      1,
		TransactionID: 1,
		MainAccountID: 1,
		CurrencyID:    1,
	}
	for i := 0; i < lines; i++ {
		p.Lines = append(p.Lines, Line{
			AccountID:    int64(i + 2),
			Amount:       decimal.NewFromInt(100),
			Quantity:     decimal.NewFromInt(1),
			Credited:     true,
			TaxRate:      decimal.NewFromInt(16),
			TaxAccountID: 99,
		})
	}
	return p
}

func BenchmarkBuild(b *testing.B) {
	for _, lines := range []int{1, 10, 100} {
		b.Run(strconv.Itoa(lines), func(b *testing.B) {
			posting := benchPosting(lines)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Build(posting); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
