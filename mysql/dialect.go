// Package mysql renders statement trees for MySQL.
package mysql

import (
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/asaidimu/go-chainsql/core/query"
)

// Name identifies the dialect.
const Name = "mysql"

// maxRows is the documented MySQL idiom for an unbounded LIMIT, which the
// server requires before OFFSET.
const maxRows = "18446744073709551615"

// Dialect compiles statements with ? placeholders and bound LIMIT/OFFSET values.
type Dialect struct{}

// New returns the MySQL dialect.
func New() Dialect {
	return Dialect{}
}

// NewBuilder returns an empty builder for MySQL.
func NewBuilder() *query.Builder {
	return query.New(New())
}

// Name implements query.Dialect.
func (Dialect) Name() string {
	return Name
}

// Compile implements query.Dialect.
func (Dialect) Compile(b *query.Builder) (string, []any, error) {
	parts, err := query.Collect(b)
	if err != nil {
		return "", nil, err
	}
	sql, binds := parts.Assemble(paginate(parts.Limit, parts.Offset))
	return sql, binds, nil
}

// paginate renders LIMIT ? OFFSET ? with both values bound.
func paginate(limit, offset *int) query.Fragment {
	switch {
	case limit != nil && offset != nil:
		return query.Fragment{SQL: "LIMIT ? OFFSET ?", Binds: []any{*limit, *offset}}
	case limit != nil:
		return query.Fragment{SQL: "LIMIT ?", Binds: []any{*limit}}
	case offset != nil:
		return query.Fragment{SQL: "LIMIT " + maxRows + " OFFSET ?", Binds: []any{*offset}}
	}
	return query.Fragment{}
}

// Quote quotes each part of a possibly qualified identifier with backticks.
//
//	Quote("mydb", "users") // `mydb`.`users`
func Quote(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(quoted, ".")
}

// DatabaseFromDSN extracts the schema name from a go-sql-driver DSN.
func DatabaseFromDSN(dsn string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	return cfg.DBName, nil
}
