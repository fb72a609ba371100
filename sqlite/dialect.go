// Package sqlite renders statement trees for SQLite.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-chainsql/core/query"
)

// Name identifies the dialect.
const Name = "sqlite"

// Dialect compiles statements with ? placeholders. LIMIT and OFFSET are
// written as integer literals in the LIMIT offset, count form.
type Dialect struct{}

// New returns the SQLite dialect.
func New() Dialect {
	return Dialect{}
}

// NewBuilder returns an empty builder for SQLite.
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

// paginate inlines the values; a missing limit becomes -1, which SQLite
// reads as no limit.
func paginate(limit, offset *int) query.Fragment {
	switch {
	case limit != nil && offset != nil:
		return query.Fragment{SQL: fmt.Sprintf("LIMIT %d, %d", *offset, *limit)}
	case limit != nil:
		return query.Fragment{SQL: fmt.Sprintf("LIMIT %d", *limit)}
	case offset != nil:
		return query.Fragment{SQL: fmt.Sprintf("LIMIT %d, -1", *offset)}
	}
	return query.Fragment{}
}

// Quote quotes each part of a possibly qualified identifier with double quotes.
func Quote(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ".")
}
