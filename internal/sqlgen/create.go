package sqlgen

import (
	"fmt"
	"strings"

	"productmix/internal/category"
)

// Kind is a logical column type, mapped to SQL per dialect.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindMoney
	KindPct
)

// ColumnDef describes one column.
//   - Default is a raw SQL expression.
//   - PrimaryKey columns are collected into one PRIMARY KEY clause.
type ColumnDef struct {
	Name       string
	Kind       Kind
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is a table name (optionally schema-qualified) and its columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Names returns the column names in order.
func (t TableDef) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// DealersTable is the dealer master table.
var DealersTable = TableDef{
	FQN: "dealers",
	Columns: []ColumnDef{
		{Name: "rep_id", Kind: KindText, PrimaryKey: true},
		{Name: "account_number", Kind: KindText, PrimaryKey: true},
		{Name: "dealer_name", Kind: KindText},
		{Name: "location_count", Kind: KindInt, Default: "1"},
		{Name: "ew_program", Kind: KindText, Nullable: true},
		{Name: "buying_group", Kind: KindText, Nullable: true},
	},
}

// MixTable is the monthly category mix table: sales and percentage columns
// per category, named after category.Column.
var MixTable = mixTable()

func mixTable() TableDef {
	cols := []ColumnDef{
		{Name: "rep_id", Kind: KindText, PrimaryKey: true},
		{Name: "account_number", Kind: KindText, PrimaryKey: true},
		{Name: "year", Kind: KindInt, PrimaryKey: true},
		{Name: "month", Kind: KindInt, PrimaryKey: true},
	}
	for _, c := range category.All {
		cols = append(cols, ColumnDef{Name: c.Column() + "_sales", Kind: KindMoney, Default: "0"})
	}
	cols = append(cols, ColumnDef{Name: "total_sales", Kind: KindMoney, Default: "0"})
	for _, c := range category.All {
		cols = append(cols, ColumnDef{Name: c.Column() + "_pct", Kind: KindPct, Default: "0"})
	}
	return TableDef{FQN: "product_mix_monthly", Columns: cols}
}

// CreateTable renders a CREATE TABLE statement that is a no-op when the
// table exists. SQL Server has no IF NOT EXISTS, so its statement is wrapped
// in an OBJECT_ID guard.
func (d Dialect) CreateTable(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("sqlgen: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("sqlgen: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("sqlgen: column with empty name in table %s", fqn)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(d.sqlType(c.Kind))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	q := d.QuoteFQN(fqn)
	if d == MSSQL {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(q, "'", "''"), q, strings.Join(cols, ",\n    "),
		), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", q, strings.Join(cols, ",\n  ")), nil
}

// CreateTables renders DDL for DealersTable and MixTable, one statement per
// element.
func CreateTables(d Dialect) ([]string, error) {
	var out []string
	for _, t := range []TableDef{DealersTable, MixTable} {
		s, err := d.CreateTable(t)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
