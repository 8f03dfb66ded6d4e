// Package dealer loads the dealer/account master export.
//
// The export has four columns identified by position, not by header text:
// dealer name, account number, buying group, extended-warranty program.
// Every well-formed row is kept, including repeated account numbers; a
// first-wins index serves joins and repeats are reported as Duplicates.
package dealer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	pcsv "productmix/internal/parser/csv"
)

// Columns is the positional layout of the dealer export.
var Columns = [4]string{"dealer_name", "account_number", "buying_group", "ew_program"}

// Record is one dealer row. BuyingGroup and EWProgram are nil when the cell
// is blank.
type Record struct {
	Name          string
	AccountNumber string
	BuyingGroup   *string
	EWProgram     *string

	// Line is the 1-based line in the source file.
	Line int
}

// Duplicate describes an account number that appears on more than one row.
// Conflicting is false when every row carries identical values.
type Duplicate struct {
	AccountNumber string
	Lines         []int
	Conflicting   bool
}

// Table is the loaded dealer list.
type Table struct {
	Records    []Record
	Duplicates []Duplicate

	// Skipped holds lines dropped for a blank name or account number.
	Skipped []int

	index map[string]int
}

// Options controls parsing of the export.
type Options struct {
	Comma    rune
	Encoding string
}

// Load parses r. The header row is required but its text is ignored.
func Load(r io.Reader, opt Options) (*Table, error) {
	tbl, err := pcsv.NewParser(pcsv.Options{
		HasHeader:      true,
		Comma:          opt.Comma,
		TrimSpace:      true,
		ExpectedFields: len(Columns),
		Encoding:       opt.Encoding,
	}).Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse dealers: %w", err)
	}

	recs := make([]Record, 0, len(tbl.Rows))
	var skipped []int
	for _, row := range tbl.Rows {
		f := row.Fields
		if f[0] == "" || f[1] == "" {
			skipped = append(skipped, row.Line)
			continue
		}
		recs = append(recs, Record{
			Name:          f[0],
			AccountNumber: CanonicalAccount(f[1]),
			BuyingGroup:   optional(f[2]),
			EWProgram:     optional(f[3]),
			Line:          row.Line,
		})
	}

	t := NewTable(recs)
	t.Skipped = skipped
	return t, nil
}

// NewTable indexes recs (first row wins per account) and detects duplicates.
func NewTable(recs []Record) *Table {
	t := &Table{Records: recs, index: make(map[string]int, len(recs))}

	type seen struct {
		lines  []int
		prints map[uint64]struct{}
	}
	byAccount := map[string]*seen{}
	var order []string

	for i, r := range recs {
		if _, ok := t.index[r.AccountNumber]; !ok {
			t.index[r.AccountNumber] = i
		}
		s := byAccount[r.AccountNumber]
		if s == nil {
			s = &seen{prints: map[uint64]struct{}{}}
			byAccount[r.AccountNumber] = s
			order = append(order, r.AccountNumber)
		}
		s.lines = append(s.lines, r.Line)
		s.prints[r.fingerprint()] = struct{}{}
	}

	for _, acct := range order {
		s := byAccount[acct]
		if len(s.lines) < 2 {
			continue
		}
		t.Duplicates = append(t.Duplicates, Duplicate{
			AccountNumber: acct,
			Lines:         s.lines,
			Conflicting:   len(s.prints) > 1,
		})
	}
	return t
}

// Lookup returns the first record for account.
func (t *Table) Lookup(account string) (Record, bool) {
	i, ok := t.index[CanonicalAccount(account)]
	if !ok {
		return Record{}, false
	}
	return t.Records[i], true
}

// Len returns the number of loaded rows, duplicates included.
func (t *Table) Len() int { return len(t.Records) }

// Accounts returns the distinct account numbers, sorted with CompareAccounts.
func (t *Table) Accounts() []string {
	out := make([]string, 0, len(t.index))
	for a := range t.index {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return CompareAccounts(out[i], out[j]) < 0 })
	return out
}

// fingerprint hashes the row content so identical repeats can be told apart
// from conflicting ones.
func (r Record) fingerprint() uint64 {
	var b strings.Builder
	b.WriteString(r.Name)
	for _, p := range []*string{&r.AccountNumber, r.BuyingGroup, r.EWProgram} {
		b.WriteByte(0x1f)
		if p == nil {
			b.WriteByte(0x00)
			continue
		}
		b.WriteString(*p)
	}
	return xxh3.HashString(b.String())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
