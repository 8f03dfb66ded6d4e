// Package mix turns sales lines into one category-mix record per account:
// map product groups to categories, drop unmapped rows, sum per account and
// category, pivot to the five fixed categories, compute totals and
// percentages, and left-join dealer names.
package mix

import (
	"sort"

	"github.com/shopspring/decimal"

	"productmix/internal/category"
	"productmix/internal/dealer"
)

var hundred = decimal.NewFromInt(100)

// Amounts holds one value per category, indexed by category.Category.
type Amounts [category.Count]decimal.Decimal

// Get returns the value for c.
func (a Amounts) Get(c category.Category) decimal.Decimal { return a[c] }

// Sum adds all five values.
func (a Amounts) Sum() decimal.Decimal {
	s := decimal.Zero
	for _, v := range a {
		s = s.Add(v)
	}
	return s
}

// Record is the category mix of one account.
type Record struct {
	AccountNumber string

	// DealerName is nil when the account has sales but no dealer row.
	DealerName *string

	Sales      Amounts
	TotalSales decimal.Decimal
	Pct        Amounts
}

// Name returns the dealer name or def when there is none.
func (r Record) Name(def string) string {
	if r.DealerName == nil {
		return def
	}
	return *r.DealerName
}

// UnmappedLabel reports a product group that has no category. Its rows are
// excluded from every total.
type UnmappedLabel struct {
	Label string
	Rows  int
	Value decimal.Decimal
}

// Result is the aggregation output plus its diagnostics.
type Result struct {
	// Records has one entry per distinct account in the input lines,
	// ordered by dealer.CompareAccounts.
	Records []Record

	// Unmapped lists unmapped labels in first-seen order.
	Unmapped []UnmappedLabel

	Lines       int
	MappedLines int
}

// UnmatchedAccounts returns accounts with sales but no dealer row.
func (r Result) UnmatchedAccounts() []string {
	var out []string
	for _, rec := range r.Records {
		if rec.DealerName == nil {
			out = append(out, rec.AccountNumber)
		}
	}
	return out
}

// CategoryTotals sums each category across all records.
func (r Result) CategoryTotals() Amounts {
	var t Amounts
	for i := range t {
		t[i] = decimal.Zero
	}
	for _, rec := range r.Records {
		for i, v := range rec.Sales {
			t[i] = t[i].Add(v)
		}
	}
	return t
}

type groupKey struct {
	account string
	cat     category.Category
}

// Aggregate builds the mix table. dealers may be nil, in which case no
// names are joined.
func Aggregate(lines []SalesLine, mp category.Mapping, dealers *dealer.Table) Result {
	res := Result{Lines: len(lines)}

	// Every account present in the extract gets a record, even when all of
	// its rows are unmapped.
	accounts := map[string]struct{}{}

	// Map labels, collect the unmapped ones, and sum the rest into a long
	// (account, category) table.
	long := map[groupKey]decimal.Decimal{}
	unmapped := map[string]int{}
	for _, ln := range lines {
		accounts[ln.AccountNumber] = struct{}{}

		c, ok := mp.Lookup(ln.ProductGroup)
		if !ok {
			label := category.NormalizeLabel(ln.ProductGroup)
			i, seen := unmapped[label]
			if !seen {
				i = len(res.Unmapped)
				unmapped[label] = i
				res.Unmapped = append(res.Unmapped, UnmappedLabel{Label: label, Value: decimal.Zero})
			}
			res.Unmapped[i].Rows++
			res.Unmapped[i].Value = res.Unmapped[i].Value.Add(ln.Value)
			continue
		}

		res.MappedLines++
		k := groupKey{ln.AccountNumber, c}
		long[k] = long[k].Add(ln.Value)
	}

	ordered := make([]string, 0, len(accounts))
	for a := range accounts {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool { return dealer.CompareAccounts(ordered[i], ordered[j]) < 0 })

	// Pivot: absent (account, category) pairs are an explicit zero.
	res.Records = make([]Record, 0, len(ordered))
	for _, acct := range ordered {
		rec := Record{AccountNumber: acct}
		for _, c := range category.All {
			v, ok := long[groupKey{acct, c}]
			if !ok {
				v = decimal.Zero
			}
			rec.Sales[c] = v
		}
		rec.TotalSales = rec.Sales.Sum()
		for _, c := range category.All {
			rec.Pct[c] = Percent(rec.Sales[c], rec.TotalSales)
		}
		if dealers != nil {
			if d, ok := dealers.Lookup(acct); ok {
				name := d.Name
				rec.DealerName = &name
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// Percent returns 100 × part / total rounded to two places, or zero when
// total is zero.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(2)
}
