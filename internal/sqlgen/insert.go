package sqlgen

import (
	"strconv"
	"strings"

	"productmix/internal/dealer"
	"productmix/internal/mix"
)

// Period identifies the reporting month a mix row belongs to.
type Period struct {
	RepID string
	Year  int
	Month int
}

// DealerInsert renders the INSERT for one dealer. A blank buying group or
// EW program is NULL; location_count is always 1.
func DealerInsert(d Dialect, r dealer.Record, repID string) string {
	return insert(d, DealersTable, []string{
		d.Literal(repID),
		d.Literal(r.AccountNumber),
		d.Literal(r.Name),
		"1",
		d.NullableLiteral(r.EWProgram),
		d.NullableLiteral(r.BuyingGroup),
	})
}

// MixInsert renders the INSERT for one account's category mix in period p.
// Amounts and percentages are written with two decimals.
func MixInsert(d Dialect, r mix.Record, p Period) string {
	vals := []string{
		d.Literal(p.RepID),
		d.Literal(r.AccountNumber),
		strconv.Itoa(p.Year),
		strconv.Itoa(p.Month),
	}
	for _, v := range r.Sales {
		vals = append(vals, v.StringFixed(2))
	}
	vals = append(vals, r.TotalSales.StringFixed(2))
	for _, v := range r.Pct {
		vals = append(vals, v.StringFixed(2))
	}
	return insert(d, MixTable, vals)
}

func insert(d Dialect, t TableDef, vals []string) string {
	names := t.Names()
	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = d.QuoteIdent(n)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteFQN(t.FQN))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString("\n) VALUES (\n  ")
	b.WriteString(strings.Join(vals, ",\n  "))
	b.WriteString("\n);")
	return b.String()
}
