package report

import (
	"github.com/shopspring/decimal"

	"productmix/internal/category"
	"productmix/internal/dealer"
	"productmix/internal/mix"
)

// Summary is the closing tally of a run.
type Summary struct {
	DealersProcessed  int
	AccountsWithSales int

	// DealersWithoutSales are dealer accounts absent from the sales extract.
	DealersWithoutSales []string

	// UnmatchedAccounts have sales but no dealer row.
	UnmatchedAccounts []string

	CategoryTotals mix.Amounts
	GrandTotal     decimal.Decimal
}

// Summarize compares the dealer table with the aggregation result. dealers
// may be nil.
func Summarize(dealers *dealer.Table, res mix.Result) Summary {
	s := Summary{
		AccountsWithSales: len(res.Records),
		UnmatchedAccounts: res.UnmatchedAccounts(),
		CategoryTotals:    res.CategoryTotals(),
	}
	s.GrandTotal = s.CategoryTotals.Sum()
	if dealers == nil {
		return s
	}

	s.DealersProcessed = dealers.Len()
	withSales := make(map[string]struct{}, len(res.Records))
	for _, r := range res.Records {
		withSales[r.AccountNumber] = struct{}{}
	}
	for _, acct := range dealers.Accounts() {
		if _, ok := withSales[acct]; !ok {
			s.DealersWithoutSales = append(s.DealersWithoutSales, acct)
		}
	}
	return s
}

// Summary prints the closing tally. outputs lists files written.
func (r *Reporter) Summary(s Summary, outputs ...string) {
	r.printf("\n%s\n✅ RUN COMPLETE\n%s\n", rule, rule)
	r.printf("\nTotal Dealers Processed: %d\n", s.DealersProcessed)
	r.printf("Total Accounts with Sales Data: %d\n", s.AccountsWithSales)
	r.printf("Accounts in Dealer List but No Sales: %d\n", len(s.DealersWithoutSales))
	r.printf("Accounts with Sales but No Dealer Record: %d\n", len(s.UnmatchedAccounts))
	for _, a := range s.UnmatchedAccounts {
		r.printf("   - %s\n", a)
	}

	r.printf("\nSales by category:\n")
	for _, c := range category.All {
		r.printf("  %-16s $%14s\n", c.String()+":", r.Money(s.CategoryTotals[c]))
	}
	r.printf("  %-16s $%14s\n", "Total:", r.Money(s.GrandTotal))

	for _, o := range outputs {
		if o != "" {
			r.printf("\n📊 Results saved to: %s\n", o)
		}
	}
}
