// Package export writes the category mix table to CSV (and reads it back)
// and to an XLSX workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"productmix/internal/category"
	"productmix/internal/mix"
	pcsv "productmix/internal/parser/csv"
)

// Fixed column names around the per-category columns.
const (
	ColAccount    = "account_number"
	ColTotalSales = "Total_Sales"
	ColDealerName = "dealer_name"
	pctSuffix     = "_Pct"
)

// Header returns the output columns: account number, the five category
// totals, Total_Sales, the five percentages, dealer name.
func Header() []string {
	h := make([]string, 0, 3+2*category.Count)
	h = append(h, ColAccount)
	for _, c := range category.All {
		h = append(h, c.String())
	}
	h = append(h, ColTotalSales)
	for _, c := range category.All {
		h = append(h, c.String()+pctSuffix)
	}
	return append(h, ColDealerName)
}

func csvRow(r mix.Record) []string {
	out := make([]string, 0, 3+2*category.Count)
	out = append(out, r.AccountNumber)
	for _, v := range r.Sales {
		out = append(out, v.StringFixed(2))
	}
	out = append(out, r.TotalSales.StringFixed(2))
	for _, v := range r.Pct {
		out = append(out, v.StringFixed(2))
	}
	return append(out, r.Name(""))
}

// WriteCSV writes the header and one row per record. Amounts carry two
// decimals; an absent dealer name is an empty cell.
func WriteCSV(w io.Writer, recs []mix.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("csv: write account %s: %w", r.AccountNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates (or truncates) path and writes the table to it.
// Intermediate directories are created.
func WriteCSVFile(path string, recs []mix.Record) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("csv: close %q: %w", path, cerr)
		}
	}()
	return WriteCSV(f, recs)
}

// ReadCSV parses a table written by WriteCSV. An empty dealer_name cell
// becomes an absent name.
func ReadCSV(r io.Reader) ([]mix.Record, error) {
	want := Header()
	tbl, err := pcsv.NewParser(pcsv.Options{
		HasHeader:      true,
		ExpectedFields: len(want),
	}).Parse(r)
	if err != nil {
		return nil, fmt.Errorf("read mix csv: %w", err)
	}
	for i, h := range want {
		if tbl.Header[i] != h {
			return nil, fmt.Errorf("read mix csv: %w", &pcsv.RowError{
				Line: 1, Column: h, Err: fmt.Errorf("header %d is %q", i+1, tbl.Header[i]),
			})
		}
	}

	out := make([]mix.Record, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		f := row.Fields
		rec := mix.Record{AccountNumber: f[0]}
		col := 1
		next := func() (decimal.Decimal, error) {
			d, err := decimal.NewFromString(f[col])
			if err != nil {
				return decimal.Zero, &pcsv.RowError{Line: row.Line, Column: want[col], Err: fmt.Errorf("not a number: %q", f[col])}
			}
			col++
			return d, nil
		}
		for i := range rec.Sales {
			if rec.Sales[i], err = next(); err != nil {
				return nil, fmt.Errorf("read mix csv: %w", err)
			}
		}
		if rec.TotalSales, err = next(); err != nil {
			return nil, fmt.Errorf("read mix csv: %w", err)
		}
		for i := range rec.Pct {
			if rec.Pct[i], err = next(); err != nil {
				return nil, fmt.Errorf("read mix csv: %w", err)
			}
		}
		if name := f[col]; name != "" {
			rec.DealerName = &name
		}
		out = append(out, rec)
	}
	return out, nil
}
