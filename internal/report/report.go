// Package report renders the operator-facing console text of a run: dealer
// load summary, data-quality warnings, the top accounts by sales, the
// percentage validation, sample SQL, and the closing run summary.
//
// Output is informational and not meant to be parsed.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"productmix/internal/category"
	"productmix/internal/dealer"
	"productmix/internal/mix"
	"productmix/internal/validate"
)

const (
	rule        = "================================================================================"
	blankLabel  = "(blank)"
	unknownName = "(no dealer record)"
)

// Reporter writes sections to w. Amounts are grouped with en-US separators.
type Reporter struct {
	w io.Writer
	p *message.Printer
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w, p: message.NewPrinter(language.English)}
}

func (r *Reporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

// Section prints a banner heading.
func (r *Reporter) Section(title string) {
	r.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

// Money formats d with thousands separators and two decimals.
func (r *Reporter) Money(d decimal.Decimal) string {
	return r.p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Dealers prints the loaded dealer count, skipped rows and a sample.
func (r *Reporter) Dealers(t *dealer.Table, sample int) {
	r.Section("DEALER LIST")
	r.printf("\nTotal Dealers: %d\n", t.Len())
	if n := len(t.Skipped); n > 0 {
		r.printf("Skipped rows (blank name or account): %d\n", n)
	}
	if sample > t.Len() {
		sample = t.Len()
	}
	if sample == 0 {
		return
	}
	r.printf("\nSample dealers:\n")
	for _, d := range t.Records[:sample] {
		r.printf("  %-10s %-30s %-20s %s\n", d.AccountNumber, d.Name, orDash(d.BuyingGroup), orDash(d.EWProgram))
	}
}

// Duplicates warns about repeated dealer account numbers.
func (r *Reporter) Duplicates(dups []dealer.Duplicate) {
	if len(dups) == 0 {
		return
	}
	r.printf("\n⚠️  WARNING: Duplicate dealer account numbers (first row wins):\n")
	for _, d := range dups {
		kind := "identical"
		if d.Conflicting {
			kind = "conflicting"
		}
		r.printf("   - %s on lines %s (%s)\n", d.AccountNumber, joinInts(d.Lines), kind)
	}
}

// Sales prints the extract size and skipped rows.
func (r *Reporter) Sales(res mix.Result, skipped int) {
	r.Section("MONTHLY SALES")
	r.printf("\nTotal Rows: %d\n", res.Lines+skipped)
	r.printf("Unique Accounts: %d\n", len(res.Records))
	if skipped > 0 {
		r.printf("Skipped rows (blank account): %d\n", skipped)
	}
}

// Unmapped warns about product groups with no category and the value they
// removed from the totals.
func (r *Reporter) Unmapped(labels []mix.UnmappedLabel) {
	if len(labels) == 0 {
		return
	}
	r.printf("\n⚠️  WARNING: Unmapped product groups found (excluded from totals):\n")
	for _, u := range labels {
		label := u.Label
		if label == "" {
			label = blankLabel
		}
		r.printf("   - %s: %d rows, $%s\n", label, u.Rows, r.Money(u.Value))
	}
}

// TopAccounts returns up to n records ordered by Total_Sales descending.
// Ties keep their order in recs.
func TopAccounts(recs []mix.Record, n int) []mix.Record {
	out := make([]mix.Record, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSales.GreaterThan(out[j].TotalSales)
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Top prints the n accounts with the highest sales and their category mix.
func (r *Reporter) Top(recs []mix.Record, n int) {
	r.Section("PRODUCT MIX SUMMARY")
	r.printf("\nTop %d Dealers by Sales:\n", n)
	for _, rec := range TopAccounts(recs, n) {
		r.printf("\n%s\n", rec.Name(unknownName))
		r.printf("  Account: %s\n", rec.AccountNumber)
		r.printf("  Total Sales: $%s\n", r.Money(rec.TotalSales))
		r.printf("  Product Mix:\n")
		for _, c := range category.All {
			r.printf("    %-16s %6s%% ($%10s)\n", c.String()+":", rec.Pct[c].StringFixed(2), r.Money(rec.Sales[c]))
		}
	}
}

// Validation prints the tolerance check.
func (r *Reporter) Validation(rep validate.Report) {
	r.Section("PERCENTAGE VALIDATION")
	r.printf("\nChecked: %d  Within %s: %d  Out of tolerance: %d\n",
		rep.Checked(), rep.Tolerance, len(rep.Within), len(rep.OutOfTolerance))

	if rep.OK() {
		r.printf("\n✅ All percentages sum to 100%% (within tolerance)\n")
	} else {
		r.printf("\n⚠️  WARNING: Some accounts have percentages that don't sum to 100%%:\n")
		for _, d := range rep.OutOfTolerance {
			name := unknownName
			if d.DealerName != nil {
				name = *d.DealerName
			}
			r.printf("   %s (%s): %s%%\n", name, d.AccountNumber, d.TotalPct.StringFixed(2))
		}
	}
	if len(rep.ZeroSales) > 0 {
		r.printf("\nAccounts with zero mapped sales (not checked): %s\n", strings.Join(rep.ZeroSales, ", "))
	}

	r.printf("\nAverage total percentage: %s%%\n", rep.Mean.StringFixed(2))
	r.printf("Min: %s%%\n", rep.Min.StringFixed(2))
	r.printf("Max: %s%%\n", rep.Max.StringFixed(2))
}

// SQL prints sample statements under a heading. ddl may be empty.
func (r *Reporter) SQL(ddl, dealers, mixes []string) {
	r.Section("SAMPLE SQL INSERT STATEMENTS")
	for _, s := range ddl {
		r.printf("\n%s\n", s)
	}
	if len(dealers) > 0 {
		r.printf("\n-- Dealer Insert:\n")
		for _, s := range dealers {
			r.printf("%s\n", s)
		}
	}
	if len(mixes) > 0 {
		r.printf("\n-- Product Mix Insert:\n")
		for _, s := range mixes {
			r.printf("%s\n", s)
		}
	}
}

// Error prints a failure line.
func (r *Reporter) Error(format string, args ...interface{}) {
	r.printf("❌ ERROR: "+format+"\n", args...)
}

func orDash(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
