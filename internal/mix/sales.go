package mix

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"productmix/internal/dealer"
	pcsv "productmix/internal/parser/csv"
)

// Column names in the monthly sales extract. The double spaces are part of
// the upstream export format.
const (
	ColValue        = "Value"
	ColProductGroup = "Product Group - C O L0"
	ColAccount      = "Customer - Parent  Account  Number"
)

// SalesLine is one transaction row.
type SalesLine struct {
	AccountNumber string
	ProductGroup  string
	Value         decimal.Decimal
	Line          int
}

// ReadOptions controls parsing of the sales extract.
type ReadOptions struct {
	Comma    rune
	Encoding string
}

// Extract is the parsed sales file.
type Extract struct {
	Lines []SalesLine

	// Skipped holds lines dropped for a blank account number.
	Skipped []int
}

// ReadSales parses the monthly extract. Extra columns are ignored; the three
// named columns are required. A Value that is not numeric once thousands
// separators are removed fails the whole read with pcsv.ErrMalformed.
func ReadSales(r io.Reader, opt ReadOptions) (*Extract, error) {
	tbl, err := pcsv.NewParser(pcsv.Options{
		HasHeader: true,
		Comma:     opt.Comma,
		TrimSpace: true,
		Encoding:  opt.Encoding,
	}).Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse sales: %w", err)
	}
	idx, err := tbl.Require(ColAccount, ColProductGroup, ColValue)
	if err != nil {
		return nil, fmt.Errorf("parse sales: %w", err)
	}
	iAcct, iGroup, iValue := idx[0], idx[1], idx[2]

	out := &Extract{Lines: make([]SalesLine, 0, len(tbl.Rows))}
	for _, row := range tbl.Rows {
		acct := dealer.CanonicalAccount(row.Fields[iAcct])
		if acct == "" {
			out.Skipped = append(out.Skipped, row.Line)
			continue
		}
		v, err := ParseValue(row.Fields[iValue])
		if err != nil {
			return nil, fmt.Errorf("parse sales: %w", &pcsv.RowError{Line: row.Line, Column: ColValue, Err: err})
		}
		out.Lines = append(out.Lines, SalesLine{
			AccountNumber: acct,
			ProductGroup:  row.Fields[iGroup],
			Value:         v,
			Line:          row.Line,
		})
	}
	return out, nil
}

// ParseValue converts a locale-formatted amount such as "1,234.56" to a
// decimal. A blank cell is zero.
func ParseValue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return d, nil
}
