package validate

import (
	"testing"

	"github.com/shopspring/decimal"

	"productmix/internal/category"
	"productmix/internal/mix"
)

// record builds a mix.Record whose percentages sum to pctSum. Sales are
// synthetic; only TotalSales matters for the zero-sales bucket.
func record(acct string, total, pctSum string) mix.Record {
	r := mix.Record{AccountNumber: acct, TotalSales: decimal.RequireFromString(total)}
	for i := range r.Sales {
		r.Sales[i] = decimal.Zero
		r.Pct[i] = decimal.Zero
	}
	r.Pct[category.Adura] = decimal.RequireFromString(pctSum)
	return r
}

func TestCheck_Partition(t *testing.T) {
	recs := []mix.Record{
		record("1", "100", "98.5"),
		record("2", "100", "100.3"),
		record("3", "100", "99"),
		record("4", "100", "101"),
		record("5", "100", "101.01"),
	}
	rep := Check(recs, DefaultTolerance())

	if rep.Checked() != 5 || len(rep.ZeroSales) != 0 {
		t.Fatalf("checked=%d zero=%v", rep.Checked(), rep.ZeroSales)
	}
	var out []string
	for _, d := range rep.OutOfTolerance {
		out = append(out, d.AccountNumber)
	}
	if len(out) != 2 || out[0] != "1" || out[1] != "5" {
		t.Fatalf("out of tolerance = %v, want [1 5]", out)
	}
	if len(rep.Within) != 3 {
		t.Fatalf("within = %d, want 3 (bounds are inclusive)", len(rep.Within))
	}
	if rep.OK() {
		t.Fatalf("OK() = true with violations")
	}
	if !rep.Min.Equal(decimal.RequireFromString("98.5")) || !rep.Max.Equal(decimal.RequireFromString("101.01")) {
		t.Fatalf("min=%s max=%s", rep.Min, rep.Max)
	}
	// (98.5 + 100.3 + 99 + 101 + 101.01) / 5 = 99.962
	if !rep.Mean.Equal(decimal.RequireFromString("99.962")) {
		t.Fatalf("mean=%s want 99.962", rep.Mean)
	}
}

func TestCheck_RecomputesFromFields(t *testing.T) {
	r := record("7", "10", "0")
	r.Pct[category.Adura] = decimal.RequireFromString("33.33")
	r.Pct[category.Sheet] = decimal.RequireFromString("33.33")
	r.Pct[category.Sundries] = decimal.RequireFromString("33.33")

	rep := Check([]mix.Record{r}, DefaultTolerance())
	if len(rep.Within) != 1 || !rep.Within[0].TotalPct.Equal(decimal.RequireFromString("99.99")) {
		t.Fatalf("within = %+v", rep.Within)
	}
}

func TestCheck_ZeroSales(t *testing.T) {
	rep := Check([]mix.Record{
		record("A2", "0", "0"),
		record("B", "50", "100"),
	}, DefaultTolerance())

	if len(rep.ZeroSales) != 1 || rep.ZeroSales[0] != "A2" {
		t.Fatalf("ZeroSales = %v", rep.ZeroSales)
	}
	if rep.Checked() != 1 || !rep.OK() {
		t.Fatalf("zero-sales record leaked into the partition: %+v", rep)
	}
	if !rep.Min.Equal(decimal.NewFromInt(100)) || !rep.Mean.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("stats include zero-sales record: min=%s mean=%s", rep.Min, rep.Mean)
	}
}

func TestCheck_Empty(t *testing.T) {
	rep := Check(nil, DefaultTolerance())
	if rep.Checked() != 0 || !rep.Mean.IsZero() || !rep.Min.IsZero() || !rep.Max.IsZero() {
		t.Fatalf("empty report = %+v", rep)
	}
}

func TestNewTolerance(t *testing.T) {
	tol, err := NewTolerance(98, 102)
	if err != nil {
		t.Fatalf("NewTolerance: %v", err)
	}
	if !tol.Contains(decimal.RequireFromString("98.5")) || tol.Contains(decimal.RequireFromString("102.01")) {
		t.Fatalf("tolerance %s bounds wrong", tol)
	}
	if _, err := NewTolerance(101, 99); err == nil {
		t.Fatalf("inverted bounds accepted")
	}
}
