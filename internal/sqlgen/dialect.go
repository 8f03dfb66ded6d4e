// Package sqlgen renders illustrative SQL text for the downstream dealer
// tracker store: CREATE TABLE statements and one INSERT per dealer or mix
// record. It never opens a connection. Values are interpolated as escaped
// literals, so the output is for review and manual loading only.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Dialect selects identifier quoting, literal syntax and column types.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
	MSSQL
)

// ParseDialect resolves a dialect name. Empty means Postgres.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	default:
		return Postgres, fmt.Errorf("sqlgen: unknown dialect %q", s)
	}
}

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	case MSSQL:
		return "mssql"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// QuoteIdent quotes a single identifier segment.
//
//	postgres  weird"name -> "weird""name"
//	sqlite    weird"name -> "weird""name"
//	mssql     weird]id   -> [weird]]id]
func (d Dialect) QuoteIdent(id string) string {
	switch d {
	case MSSQL:
		return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
	case Postgres:
		return pgx.Identifier{id}.Sanitize()
	default:
		return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
	}
}

// QuoteFQN quotes a possibly schema-qualified name like "public.dealers".
// Empty segments are ignored.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	if d == Postgres {
		return pgx.Identifier(segs).Sanitize()
	}
	out := make([]string, len(segs))
	for i, p := range segs {
		out[i] = d.QuoteIdent(p)
	}
	return strings.Join(out, ".")
}

// Literal renders s as a string literal with embedded quotes doubled.
// SQL Server literals carry the N prefix so non-ASCII names survive.
func (d Dialect) Literal(s string) string {
	q := "'" + strings.ReplaceAll(s, "'", "''") + "'"
	if d == MSSQL {
		return "N" + q
	}
	return q
}

// NullableLiteral renders p as a literal, or NULL when p is nil.
func (d Dialect) NullableLiteral(p *string) string {
	if p == nil {
		return "NULL"
	}
	return d.Literal(*p)
}

func (d Dialect) sqlType(k Kind) string {
	switch k {
	case KindText:
		if d == MSSQL {
			return "NVARCHAR(255)"
		}
		return "TEXT"
	case KindInt:
		return "INTEGER"
	case KindMoney:
		return "NUMERIC(14,2)"
	case KindPct:
		return "NUMERIC(6,2)"
	default:
		return "TEXT"
	}
}
