// Package csv reads small, strictly-shaped CSV exports into memory. Unlike a
// fail-soft bulk loader, any structural problem (bad quoting, a row with the
// wrong width, undecodable bytes) aborts the read with an error that matches
// ErrMalformed, so callers can tell malformed input apart from I/O failures.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrMalformed is matched (errors.Is) by every structural parse failure.
var ErrMalformed = errors.New("malformed csv")

// RowError locates a parse failure. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Is makes every RowError match ErrMalformed.
func (e *RowError) Is(target error) bool { return target == ErrMalformed }

// Options configures the parser. Zero values pick sensible defaults.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0, requires every row (header included) to have
	// exactly this many fields. When 0 the header width is enforced instead.
	ExpectedFields int

	// Encoding names the input encoding: "" or "utf-8", or "windows-1252"
	// for exports saved from older spreadsheet tools.
	Encoding string
}

// Row is one data row with its physical line number.
type Row struct {
	Line   int
	Fields []string
}

// Table is the parsed file.
type Table struct {
	Header []string
	Rows   []Row
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse consumes all of r.
func (p *Parser) Parse(r io.Reader) (*Table, error) {
	r, err := decoder(r, p.opt.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	if p.opt.ExpectedFields > 0 {
		cr.FieldsPerRecord = p.opt.ExpectedFields
	}

	t := &Table{}
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &RowError{Line: pe.Line, Err: pe.Err}
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		for i, v := range rec {
			if !utf8.ValidString(v) {
				return nil, &RowError{Line: line, Err: errors.New("invalid UTF-8; set the input encoding")}
			}
			if first && i == 0 {
				v = strings.TrimPrefix(v, utf8BOM)
			}
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			rec[i] = v
		}

		if first && p.opt.HasHeader {
			t.Header = rec
			first = false
			continue
		}
		first = false
		t.Rows = append(t.Rows, Row{Line: line, Fields: rec})
	}

	if p.opt.HasHeader && t.Header == nil {
		return nil, &RowError{Line: 1, Err: errors.New("missing header row")}
	}
	return t, nil
}

// Index returns the position of the header column named exactly name.
func (t *Table) Index(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Require resolves each named column, failing on the first that is absent.
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := t.Index(n)
		if !ok {
			return nil, &RowError{Line: 1, Column: n, Err: errors.New("required column not found in header")}
		}
		idx[i] = j
	}
	return idx, nil
}

// decoder wraps r so that the csv reader always sees UTF-8.
func decoder(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported input encoding %q", enc)
	}
}
