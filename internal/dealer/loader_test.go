package dealer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pcsv "productmix/internal/parser/csv"
)

func TestLoad_Fixture(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "testdata", "dealers.csv"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	tbl, err := Load(f, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := tbl.Len(), 5; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if len(tbl.Duplicates) != 0 || len(tbl.Skipped) != 0 {
		t.Fatalf("duplicates=%v skipped=%v", tbl.Duplicates, tbl.Skipped)
	}

	first := tbl.Records[0]
	if first.Name != "Floor Masters" || first.AccountNumber != "1001" || first.Line != 2 {
		t.Fatalf("first = %+v", first)
	}
	if first.BuyingGroup == nil || *first.BuyingGroup != "CCA Global" {
		t.Fatalf("BuyingGroup = %v", first.BuyingGroup)
	}

	rug, ok := tbl.Lookup("1004")
	if !ok {
		t.Fatalf("Lookup(1004) missed")
	}
	if rug.BuyingGroup != nil || rug.EWProgram != nil {
		t.Fatalf("blank optionals should be nil: %+v", rug)
	}

	if got := strings.Join(tbl.Accounts(), ","); got != "1001,1002,1003,1004,1005" {
		t.Fatalf("Accounts() = %s", got)
	}
}

func TestLoad_Duplicates(t *testing.T) {
	in := strings.Join([]string{
		"name,account,group,program",
		"Alpha,10,G,P",
		"Beta,20,,",
		"Alpha,10,G,P",
		"Gamma,20,,",
		"Delta,30,,",
		"Beta Two,020,,",
	}, "\n") + "\n"

	tbl, err := Load(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 6 {
		t.Fatalf("all rows are kept; Len() = %d", tbl.Len())
	}
	if len(tbl.Duplicates) != 2 {
		t.Fatalf("Duplicates = %+v", tbl.Duplicates)
	}

	d10 := tbl.Duplicates[0]
	if d10.AccountNumber != "10" || d10.Conflicting {
		t.Fatalf("identical repeat: %+v", d10)
	}
	if len(d10.Lines) != 2 || d10.Lines[0] != 2 || d10.Lines[1] != 4 {
		t.Fatalf("lines = %v", d10.Lines)
	}

	d20 := tbl.Duplicates[1]
	if d20.AccountNumber != "20" || !d20.Conflicting || len(d20.Lines) != 3 {
		t.Fatalf("conflicting repeat: %+v", d20)
	}

	r, ok := tbl.Lookup("20")
	if !ok || r.Name != "Beta" {
		t.Fatalf("Lookup(20) = %+v,%v; first row should win", r, ok)
	}
}

func TestLoad_SkipsBlankKeys(t *testing.T) {
	in := "name,account,group,program\n,1,,\nNamed,,,\nOk,3,,\n"
	tbl, err := Load(strings.NewReader(in), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 1 || tbl.Records[0].AccountNumber != "3" {
		t.Fatalf("records = %+v", tbl.Records)
	}
	if len(tbl.Skipped) != 2 || tbl.Skipped[0] != 2 || tbl.Skipped[1] != 3 {
		t.Fatalf("Skipped = %v", tbl.Skipped)
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantLine int
	}{
		{"three_columns", "a,b,c\nx,1,y\n", 1},
		{"short_row", "a,b,c,d\nx,1,y,z\nw,2\n", 3},
		{"empty", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in), Options{})
			if !errors.Is(err, pcsv.ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
			var re *pcsv.RowError
			if !errors.As(err, &re) || re.Line != tt.wantLine {
				t.Fatalf("err = %v, want line %d", err, tt.wantLine)
			}
		})
	}
}

func TestCanonicalAccount(t *testing.T) {
	tests := map[string]string{
		"1001":    "1001",
		" 1001 ":  "1001",
		"001001":  "1001",
		"0000":    "0",
		"A-0042":  "A-0042",
		"":        "",
		" 12 34 ": "12 34",
	}
	for in, want := range tests {
		if got := CanonicalAccount(in); got != want {
			t.Errorf("CanonicalAccount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompareAccounts(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"10", "10", 0},
		{"010", "10", 0},
		{"999", "A1", -1},
		{"B", "A", 1},
		{"A", "A", 0},
	}
	for _, tt := range tests {
		if got := CompareAccounts(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareAccounts(%q,%q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
