package query

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Builder is the root of a statement tree. It is built up through its fluent
// methods and rendered with ToSQL by the dialect it was created for.
//
// A Builder is not safe for concurrent mutation. Nested builders passed to
// With, Union, SelectSub or the Where helpers are cloned on entry, so later
// changes to the argument do not leak into the parent.
type Builder struct {
	dialect  Dialect
	logger   *zap.Logger
	db       string
	table    string
	tableRaw *Fragment
	alias    string
	method   Method
	payload  any
	selects  []SelectItem
	query    *QueryBuilder
	distinct bool
	err      error
	sql      string
}

// New creates an empty SELECT builder for the given dialect.
func New(dialect Dialect) *Builder {
	return &Builder{
		dialect: dialect,
		logger:  zap.NewNop(),
		method:  MethodSelect,
		query:   &QueryBuilder{},
	}
}

// WithLogger sets the logger used for compile diagnostics. A nil logger disables logging.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b.logger = logger
	return b
}

// Dialect returns the dialect the builder renders for.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Method returns the configured statement kind.
func (b *Builder) Method() Method {
	return b.method
}

// DB sets the database prefix applied to the table and joined tables.
func (b *Builder) DB(name string) *Builder {
	b.db = name
	return b
}

// Table sets the target table.
func (b *Builder) Table(name string) *Builder {
	b.table = name
	return b
}

// TableRaw sets a verbatim table expression. It takes precedence over Table.
func (b *Builder) TableRaw(sql string, binds ...any) *Builder {
	b.tableRaw = &Fragment{SQL: sql, Binds: binds}
	return b
}

// As sets the alias of the selected table.
func (b *Builder) As(alias string) *Builder {
	b.alias = alias
	return b
}

// Distinct turns the statement into SELECT DISTINCT.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// Select appends entries to the select list.
func (b *Builder) Select(items ...SelectItem) *Builder {
	for _, item := range items {
		if item.Sub != nil {
			item.Sub = &SubSelect{Alias: item.Sub.Alias, Builder: item.Sub.Builder.Clone()}
		}
		b.selects = append(b.selects, item)
	}
	b.method = MethodSelect
	return b
}

// SelectColumns appends plain column names.
func (b *Builder) SelectColumns(columns ...string) *Builder {
	return b.Select(SelectItem{Columns: columns})
}

// SelectRaw appends a verbatim select expression.
func (b *Builder) SelectRaw(sql string, binds ...any) *Builder {
	return b.Select(SelectItem{Raw: &Fragment{SQL: sql, Binds: binds}})
}

// SelectSub appends (sub) AS alias.
func (b *Builder) SelectSub(alias string, sub *Builder) *Builder {
	return b.Select(SelectItem{Sub: &SubSelect{Alias: alias, Builder: sub}})
}

// SelectAlias appends column AS alias.
func (b *Builder) SelectAlias(column, alias string) *Builder {
	return b.SelectRaw(fmt.Sprintf("%s AS %s", column, alias))
}

// SelectCount appends COUNT(column).
func (b *Builder) SelectCount(column string) *Builder {
	return b.selectAggregate("COUNT", column)
}

// SelectSum appends SUM(column).
func (b *Builder) SelectSum(column string) *Builder {
	return b.selectAggregate("SUM", column)
}

// SelectAvg appends AVG(column).
func (b *Builder) SelectAvg(column string) *Builder {
	return b.selectAggregate("AVG", column)
}

// SelectMax appends MAX(column).
func (b *Builder) SelectMax(column string) *Builder {
	return b.selectAggregate("MAX", column)
}

// SelectMin appends MIN(column).
func (b *Builder) SelectMin(column string) *Builder {
	return b.selectAggregate("MIN", column)
}

func (b *Builder) selectAggregate(fn, column string) *Builder {
	return b.SelectRaw(fmt.Sprintf("%s(%s)", fn, column))
}

// Insert turns the statement into a single-row INSERT. payload is a
// map[string]any or a struct; columns are emitted in sorted key order.
// A valid payload replaces any earlier payload error.
func (b *Builder) Insert(payload any) *Builder {
	row, err := toRow(payload)
	if err != nil {
		b.err = fmt.Errorf("insert: %w", err)
		return b
	}
	b.method = MethodInsert
	b.payload = row
	b.err = nil
	return b
}

// InsertMany turns the statement into a multi-row INSERT. Columns come from
// the sorted keys of the first row and every row must carry the same keys.
func (b *Builder) InsertMany(rows any) *Builder {
	list, err := toRows(rows)
	if err != nil {
		b.err = fmt.Errorf("insert many: %w", err)
		return b
	}
	b.method = MethodInsertMany
	b.payload = list
	b.err = nil
	return b
}

// Update turns the statement into an UPDATE. Values of type Expr are written
// verbatim; everything else is bound.
func (b *Builder) Update(payload any) *Builder {
	row, err := toRow(payload)
	if err != nil {
		b.err = fmt.Errorf("update: %w", err)
		return b
	}
	b.method = MethodUpdate
	b.payload = row
	b.err = nil
	return b
}

// Increment sets column = column + amount, merging into any pending update.
func (b *Builder) Increment(column string, amount any) *Builder {
	return b.arithmetic(column, "+", amount)
}

// Decrement sets column = column - amount, merging into any pending update.
func (b *Builder) Decrement(column string, amount any) *Builder {
	return b.arithmetic(column, "-", amount)
}

func (b *Builder) arithmetic(column, op string, amount any) *Builder {
	row, ok := b.payload.(map[string]any)
	if b.method != MethodUpdate || !ok {
		row = map[string]any{}
	}
	row[column] = Raw(fmt.Sprintf("%s %s ?", column, op), amount)
	b.method = MethodUpdate
	b.payload = row
	return b
}

// Delete turns the statement into a DELETE.
func (b *Builder) Delete() *Builder {
	b.method = MethodDelete
	b.payload = nil
	return b
}

// With adds a common table expression.
func (b *Builder) With(alias string, sub *Builder) *Builder {
	b.query.addClause(Clause{Kind: ClauseWith, Alias: alias, Builder: sub.Clone()})
	return b
}

// WithRecursive adds a recursive common table expression.
func (b *Builder) WithRecursive(alias string, sub *Builder) *Builder {
	b.query.addClause(Clause{Kind: ClauseWith, Alias: alias, Recursive: true, Builder: sub.Clone()})
	return b
}

// Union chains UNION sub after the statement.
func (b *Builder) Union(sub *Builder) *Builder {
	b.query.addClause(Clause{Kind: ClauseUnion, Builder: sub.Clone()})
	return b
}

// UnionAll chains UNION ALL sub after the statement.
func (b *Builder) UnionAll(sub *Builder) *Builder {
	b.query.addClause(Clause{Kind: ClauseUnion, All: true, Builder: sub.Clone()})
	return b
}

// Query hands the WHERE, JOIN and clause part of the statement to fn.
func (b *Builder) Query(fn func(q *QueryBuilder)) *Builder {
	fn(b.query)
	return b
}

// AddRaw appends a verbatim fragment after everything else.
func (b *Builder) AddRaw(sql string, binds ...any) *Builder {
	b.query.AddRaw(sql, binds...)
	return b
}

// SQL returns the text produced by the last successful ToSQL call.
func (b *Builder) SQL() string {
	return b.sql
}

// ToSQL renders the statement. Binds are returned in placeholder order.
func (b *Builder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.dialect == nil {
		return "", nil, ErrUnsupportedDialect
	}
	sql, binds, err := b.dialect.Compile(b)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", b.dialect.Name(), err)
	}
	b.sql = sql
	b.logger.Debug("compiled statement",
		zap.String("dialect", b.dialect.Name()),
		zap.String("method", string(b.method)),
		zap.String("sql", sql),
		zap.Int("binds", len(binds)),
	)
	return sql, binds, nil
}

// MustToSQL is like ToSQL but panics on error.
func (b *Builder) MustToSQL() (string, []any) {
	sql, binds, err := b.ToSQL()
	if err != nil {
		panic(err)
	}
	return sql, binds
}

// Clone returns a deep copy of the builder, including nested statements.
func (b *Builder) Clone() *Builder {
	if b == nil {
		return nil
	}
	out := *b
	out.query = b.query.Clone()
	if b.tableRaw != nil {
		raw := b.tableRaw.clone()
		out.tableRaw = &raw
	}
	out.selects = make([]SelectItem, 0, len(b.selects))
	for _, item := range b.selects {
		switch {
		case item.Raw != nil:
			raw := item.Raw.clone()
			item.Raw = &raw
		case item.Sub != nil:
			item.Sub = &SubSelect{Alias: item.Sub.Alias, Builder: item.Sub.Builder.Clone()}
		default:
			item.Columns = append([]string(nil), item.Columns...)
		}
		out.selects = append(out.selects, item)
	}
	switch p := b.payload.(type) {
	case map[string]any:
		out.payload = cloneRow(p)
	case []map[string]any:
		rows := make([]map[string]any, len(p))
		for i, row := range p {
			rows[i] = cloneRow(row)
		}
		out.payload = rows
	}
	return &out
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// QueryBuilder holds the WHERE tree, joins, common clauses and trailing raw
// fragments of a statement.
type QueryBuilder struct {
	Conditions
	joins   []*Join
	clauses []Clause
	raw     []Fragment
}

// Joins returns the join list.
func (q *QueryBuilder) Joins() []*Join {
	return q.joins
}

// Clauses returns the common clauses in insertion order.
func (q *QueryBuilder) Clauses() []Clause {
	return q.clauses
}

func (q *QueryBuilder) addClause(c Clause) *QueryBuilder {
	q.clauses = append(q.clauses, c)
	return q
}

// JoinWith adds a join of the given type. fn may be nil for joins without ON.
func (q *QueryBuilder) JoinWith(joinType JoinType, table, alias string, fn func(on *JoinConditions)) *QueryBuilder {
	j := &Join{Type: joinType, Table: table, Alias: alias}
	if fn != nil {
		fn(&j.Conditions)
	}
	q.joins = append(q.joins, j)
	return q
}

// Join adds a plain JOIN.
func (q *QueryBuilder) Join(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeJoin, table, "", fn)
}

// InnerJoin adds an INNER JOIN.
func (q *QueryBuilder) InnerJoin(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeInner, table, "", fn)
}

// LeftJoin adds a LEFT JOIN.
func (q *QueryBuilder) LeftJoin(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeLeft, table, "", fn)
}

// RightJoin adds a RIGHT JOIN.
func (q *QueryBuilder) RightJoin(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeRight, table, "", fn)
}

// LeftOuterJoin adds a LEFT OUTER JOIN.
func (q *QueryBuilder) LeftOuterJoin(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeLeftOuter, table, "", fn)
}

// RightOuterJoin adds a RIGHT OUTER JOIN.
func (q *QueryBuilder) RightOuterJoin(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeRightOuter, table, "", fn)
}

// FullOuterJoin adds a FULL OUTER JOIN.
func (q *QueryBuilder) FullOuterJoin(table string, fn func(on *JoinConditions)) *QueryBuilder {
	return q.JoinWith(JoinTypeFullOuter, table, "", fn)
}

// CrossJoin adds a CROSS JOIN without conditions.
func (q *QueryBuilder) CrossJoin(table string) *QueryBuilder {
	return q.JoinWith(JoinTypeCross, table, "", nil)
}

// JoinUsing adds JOIN table USING (columns).
func (q *QueryBuilder) JoinUsing(table string, columns ...string) *QueryBuilder {
	return q.JoinRaw(fmt.Sprintf("JOIN %s USING (%s)", table, strings.Join(columns, ", ")))
}

// JoinRaw adds a verbatim join fragment.
func (q *QueryBuilder) JoinRaw(sql string, binds ...any) *QueryBuilder {
	q.joins = append(q.joins, &Join{Raw: &Fragment{SQL: sql, Binds: binds}})
	return q
}

// Limit sets LIMIT. The last call wins.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseLimit, Count: n})
}

// Offset sets OFFSET. The last call wins.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseOffset, Count: n})
}

// GroupBy appends columns to GROUP BY.
func (q *QueryBuilder) GroupBy(columns ...string) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseGroupBy, Columns: columns})
}

// GroupByRaw appends a verbatim GROUP BY expression.
func (q *QueryBuilder) GroupByRaw(sql string, binds ...any) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseGroupByRaw, Fragment: Fragment{SQL: sql, Binds: binds}})
}

// Having adds a comparison to HAVING. It follows the same operator rules as
// Where. Multiple calls are joined with AND.
func (q *QueryBuilder) Having(column string, op Operator, value any) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseHaving, Condition: newCondition(column, op, value)})
}

// HavingBetween adds column BETWEEN ? AND ? to HAVING.
func (q *QueryBuilder) HavingBetween(column string, low, high any) *QueryBuilder {
	return q.Having(column, OperatorBetween, []any{low, high})
}

// HavingIn adds column IN (...) to HAVING.
func (q *QueryBuilder) HavingIn(column string, values any) *QueryBuilder {
	return q.havingList(column, OperatorIn, values)
}

// HavingNotIn adds column NOT IN (...) to HAVING.
func (q *QueryBuilder) HavingNotIn(column string, values any) *QueryBuilder {
	return q.havingList(column, OperatorNotIn, values)
}

func (q *QueryBuilder) havingList(column string, op Operator, values any) *QueryBuilder {
	if _, ok := values.(*Builder); !ok {
		if _, ok := toSlice(values); !ok {
			values = []any{values}
		}
	}
	return q.Having(column, op, values)
}

// HavingRaw adds a verbatim HAVING expression.
func (q *QueryBuilder) HavingRaw(sql string, binds ...any) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseHaving, Fragment: Fragment{SQL: sql, Binds: binds}})
}

// OrderBy appends column direction to ORDER BY.
func (q *QueryBuilder) OrderBy(column string, direction SortDirection) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseOrderBy, Column: column, Direction: direction})
}

// OrderByAsc appends column ASC.
func (q *QueryBuilder) OrderByAsc(column string) *QueryBuilder {
	return q.OrderBy(column, SortDirectionAsc)
}

// OrderByDesc appends column DESC.
func (q *QueryBuilder) OrderByDesc(column string) *QueryBuilder {
	return q.OrderBy(column, SortDirectionDesc)
}

// Latest orders by column, newest first.
func (q *QueryBuilder) Latest(column string) *QueryBuilder {
	return q.OrderByDesc(column)
}

// Oldest orders by column, oldest first.
func (q *QueryBuilder) Oldest(column string) *QueryBuilder {
	return q.OrderByAsc(column)
}

// OrderByRaw appends a verbatim ORDER BY expression.
func (q *QueryBuilder) OrderByRaw(sql string, binds ...any) *QueryBuilder {
	return q.addClause(Clause{Kind: ClauseOrderByRaw, Fragment: Fragment{SQL: sql, Binds: binds}})
}

// AddRaw appends a verbatim fragment emitted after every other clause.
func (q *QueryBuilder) AddRaw(sql string, binds ...any) *QueryBuilder {
	q.raw = append(q.raw, Fragment{SQL: sql, Binds: binds})
	return q
}

// Clone returns a deep copy.
func (q *QueryBuilder) Clone() *QueryBuilder {
	out := &QueryBuilder{Conditions: *q.Conditions.Clone()}
	for _, j := range q.joins {
		out.joins = append(out.joins, j.clone())
	}
	for _, c := range q.clauses {
		if c.Builder != nil {
			c.Builder = c.Builder.Clone()
		}
		c.Columns = append([]string(nil), c.Columns...)
		c.Condition = c.Condition.clone()
		c.Fragment = c.Fragment.clone()
		out.clauses = append(out.clauses, c)
	}
	for _, f := range q.raw {
		out.raw = append(out.raw, f.clone())
	}
	return out
}
