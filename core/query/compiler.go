package query

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Parts holds every rendered section of a statement before a dialect
// stitches them together. Limit and Offset are left raw because dialects
// disagree on how to express them.
type Parts struct {
	With    Fragment
	Method  Fragment
	Join    Fragment
	Where   Fragment
	GroupBy Fragment
	Having  Fragment
	OrderBy Fragment
	Union   Fragment
	Raw     Fragment
	Limit   *int
	Offset  *int
}

// Collect renders every dialect-neutral section of b. Nested statements are
// compiled through b's dialect.
func Collect(b *Builder) (*Parts, error) {
	if b.dialect == nil {
		return nil, ErrUnsupportedDialect
	}
	c := &compiler{b: b}
	p := &Parts{}

	var err error
	if p.Method, err = c.method(); err != nil {
		return nil, err
	}
	if p.Join, err = c.joins(); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	if p.Where, err = c.conditions(&b.query.Conditions); err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	if err = c.clauses(p); err != nil {
		return nil, err
	}
	p.Raw = joinFragments(b.query.raw, " ")
	return p, nil
}

// Assemble concatenates the sections in their fixed order, with pagination
// placed between ORDER BY and UNION. Binds follow the same order.
func (p *Parts) Assemble(pagination Fragment) (string, []any) {
	var sb strings.Builder
	var binds []any
	write := func(prefix string, f Fragment) {
		if f.SQL == "" {
			return
		}
		sb.WriteString(prefix)
		sb.WriteString(f.SQL)
		binds = append(binds, f.Binds...)
	}

	if p.With.SQL != "" {
		write("", p.With)
		sb.WriteString(" ")
	}
	write("", p.Method)
	write(" ", p.Join)
	write(" WHERE ", p.Where)
	write(" GROUP BY ", p.GroupBy)
	write(" HAVING ", p.Having)
	write(" ORDER BY ", p.OrderBy)
	write(" ", pagination)
	write(" ", p.Union)
	write(" ", p.Raw)
	return sb.String(), binds
}

type compiler struct {
	b *Builder
}

func (c *compiler) qualify(table string) string {
	if c.b.db == "" {
		return table
	}
	return c.b.db + "." + table
}

func (c *compiler) table() (Fragment, error) {
	if c.b.tableRaw != nil {
		return c.b.tableRaw.clone(), nil
	}
	if c.b.table == "" {
		return Fragment{}, ErrMissingTable
	}
	return Fragment{SQL: c.qualify(c.b.table)}, nil
}

// nested compiles a statement embedded in the one being compiled.
func (c *compiler) nested(sub *Builder) (string, []any, error) {
	if sub == nil {
		return "", nil, fmt.Errorf("%w: nested statement is nil", ErrInvalidClause)
	}
	if sub.err != nil {
		return "", nil, sub.err
	}
	if sub.dialect != nil && sub.dialect.Name() != c.b.dialect.Name() {
		return "", nil, fmt.Errorf("%w: %s inside %s", ErrDialectMismatch, sub.dialect.Name(), c.b.dialect.Name())
	}
	inner := *sub
	inner.dialect = c.b.dialect
	return c.b.dialect.Compile(&inner)
}

func (c *compiler) method() (Fragment, error) {
	switch c.b.method {
	case MethodSelect, "":
		return c.selectStatement()
	case MethodInsert:
		return c.insert()
	case MethodInsertMany:
		return c.insertMany()
	case MethodUpdate:
		return c.update()
	case MethodDelete:
		return c.delete()
	default:
		return Fragment{}, fmt.Errorf("%w: unknown method %q", ErrInvalidClause, c.b.method)
	}
}

func (c *compiler) selectStatement() (Fragment, error) {
	var out Fragment
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if c.b.distinct {
		sb.WriteString("DISTINCT ")
	}

	items := make([]string, 0, len(c.b.selects))
	for _, item := range c.b.selects {
		switch {
		case item.Raw != nil:
			items = append(items, item.Raw.SQL)
			out.Binds = append(out.Binds, item.Raw.Binds...)
		case item.Sub != nil:
			sql, binds, err := c.nested(item.Sub.Builder)
			if err != nil {
				return Fragment{}, fmt.Errorf("select %s: %w", item.Sub.Alias, err)
			}
			items = append(items, fmt.Sprintf("(%s) AS %s", sql, item.Sub.Alias))
			out.Binds = append(out.Binds, binds...)
		case len(item.Columns) > 0:
			items = append(items, strings.Join(item.Columns, ", "))
		}
	}
	if len(items) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(items, ", "))
	}

	table, err := c.table()
	if err != nil {
		return Fragment{}, err
	}
	sb.WriteString(" FROM ")
	sb.WriteString(table.SQL)
	out.Binds = append(out.Binds, table.Binds...)
	if c.b.alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(c.b.alias)
	}
	out.SQL = sb.String()
	return out, nil
}

func (c *compiler) payloadRow(op string) (map[string]any, error) {
	row, ok := c.b.payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s needs an object payload, got %T", ErrInvalidPayload, op, c.b.payload)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("%w: %s payload has no columns", ErrInvalidPayload, op)
	}
	return row, nil
}

// value returns the placeholder or expression for column in row. The column
// list is always derived from a row, so a miss means that invariant broke.
func (c *compiler) value(column string, row map[string]any) (string, []any) {
	v, ok := row[column]
	if !ok {
		c.b.logger.Error("column missing from row",
			zap.String("column", column),
			zap.Any("row", row),
		)
		panic(fmt.Sprintf("query: column %q missing from row %v", column, row))
	}
	if expr, isExpr := v.(Expr); isExpr {
		return expr.SQL, expr.Binds
	}
	return "?", []any{v}
}

func (c *compiler) tuple(columns []string, row map[string]any) (string, []any) {
	values := make([]string, len(columns))
	var binds []any
	for i, col := range columns {
		sql, vb := c.value(col, row)
		values[i] = sql
		binds = append(binds, vb...)
	}
	return "(" + strings.Join(values, ", ") + ")", binds
}

func (c *compiler) insert() (Fragment, error) {
	row, err := c.payloadRow("insert")
	if err != nil {
		return Fragment{}, err
	}
	table, err := c.table()
	if err != nil {
		return Fragment{}, err
	}
	columns := sortedKeys(row)
	values, binds := c.tuple(columns, row)
	return Fragment{
		SQL:   fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table.SQL, strings.Join(columns, ", "), values),
		Binds: append(table.Binds, binds...),
	}, nil
}

func (c *compiler) insertMany() (Fragment, error) {
	rows, ok := c.b.payload.([]map[string]any)
	if !ok || len(rows) == 0 {
		return Fragment{}, fmt.Errorf("%w: insert many needs at least one row", ErrInvalidPayload)
	}
	columns := sortedKeys(rows[0])
	if len(columns) == 0 {
		return Fragment{}, fmt.Errorf("%w: insert many rows have no columns", ErrInvalidPayload)
	}
	for i, row := range rows[1:] {
		if len(row) != len(columns) {
			return Fragment{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrMismatchedRows, i+1, len(row), len(columns))
		}
		for _, col := range columns {
			if _, exists := row[col]; !exists {
				return Fragment{}, fmt.Errorf("%w: row %d is missing %q", ErrMismatchedRows, i+1, col)
			}
		}
	}

	table, err := c.table()
	if err != nil {
		return Fragment{}, err
	}
	tuples := make([]string, len(rows))
	binds := table.Binds
	for i, row := range rows {
		sql, rb := c.tuple(columns, row)
		tuples[i] = sql
		binds = append(binds, rb...)
	}
	return Fragment{
		SQL:   fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table.SQL, strings.Join(columns, ", "), strings.Join(tuples, ", ")),
		Binds: binds,
	}, nil
}

func (c *compiler) update() (Fragment, error) {
	row, err := c.payloadRow("update")
	if err != nil {
		return Fragment{}, err
	}
	table, err := c.table()
	if err != nil {
		return Fragment{}, err
	}
	columns := sortedKeys(row)
	sets := make([]string, len(columns))
	binds := table.Binds
	for i, col := range columns {
		sql, vb := c.value(col, row)
		sets[i] = col + " = " + sql
		binds = append(binds, vb...)
	}
	return Fragment{
		SQL:   fmt.Sprintf("UPDATE %s SET %s", table.SQL, strings.Join(sets, ", ")),
		Binds: binds,
	}, nil
}

func (c *compiler) delete() (Fragment, error) {
	table, err := c.table()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: "DELETE FROM " + table.SQL, Binds: table.Binds}, nil
}

// link is one rendered node awaiting its connective.
type link struct {
	frag  Fragment
	group bool
	or    bool
	size  int
}

// chain joins rendered nodes of one level. A node directly after an OR group
// gets no connective of its own; an OR group is always introduced by OR.
// Groups are parenthesized when they hold more than one node, or always for
// OR groups when parenOr is set.
func chain(links []link, parenOr bool) (Fragment, error) {
	var out Fragment
	var sb strings.Builder
	prevOr := false
	for i, l := range links {
		switch {
		case l.or:
			if i > 0 {
				sb.WriteString(" OR ")
			}
		case prevOr:
			return Fragment{}, ErrDanglingCondition
		case i > 0:
			sb.WriteString(" AND ")
		}
		if l.group && (l.size > 1 || (l.or && parenOr)) {
			sb.WriteString("(" + l.frag.SQL + ")")
		} else {
			sb.WriteString(l.frag.SQL)
		}
		out.Binds = append(out.Binds, l.frag.Binds...)
		prevOr = l.or
	}
	out.SQL = sb.String()
	return out, nil
}

func (c *compiler) conditions(cs *Conditions) (Fragment, error) {
	links := make([]link, 0, cs.Len())
	for _, s := range cs.statements {
		switch {
		case s.Condition != nil:
			frag, err := c.condition(s.Condition)
			if err != nil {
				return Fragment{}, err
			}
			links = append(links, link{frag: frag})
		case s.Raw != nil:
			links = append(links, link{frag: s.Raw.clone()})
		case s.And != nil, s.Or != nil:
			group := s.And
			if group == nil {
				group = s.Or
			}
			frag, err := c.conditions(group)
			if err != nil {
				return Fragment{}, err
			}
			if frag.SQL == "" {
				continue
			}
			links = append(links, link{frag: frag, group: true, or: s.Or != nil, size: group.Len()})
		}
	}
	return chain(links, false)
}

// condition renders a single comparison leaf.
func (c *compiler) condition(cond *Condition) (Fragment, error) {
	if !cond.Operator.Valid() {
		return Fragment{}, fmt.Errorf("%w: %q", ErrInvalidOperator, cond.Operator)
	}
	token, consumesBind := cond.Operator.ToSQL()
	head := token
	if cond.Column != "" {
		head = cond.Column + " " + token
	}

	if sub, ok := cond.Value.(*Builder); ok {
		sql, binds, err := c.nested(sub)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{SQL: head + " (" + sql + ")", Binds: binds}, nil
	}

	if cond.Operator.isRange() {
		values, ok := toSlice(cond.Value)
		if !ok || len(values) != 2 {
			return Fragment{}, fmt.Errorf("%w: %s on %q needs exactly two values", ErrOperatorArity, token, cond.Column)
		}
		return Fragment{SQL: head + " ? AND ?", Binds: values}, nil
	}

	if !consumesBind {
		return Fragment{SQL: head}, nil
	}

	if values, ok := toSlice(cond.Value); ok {
		if len(values) == 0 {
			switch cond.Operator {
			case OperatorIn:
				return Fragment{SQL: "1 = 0"}, nil
			case OperatorNotIn:
				return Fragment{SQL: "1 = 1"}, nil
			}
			return Fragment{}, fmt.Errorf("%w: %s on %q has an empty list", ErrOperatorArity, token, cond.Column)
		}
		return Fragment{SQL: head + " (" + placeholders(len(values), ",") + ")", Binds: values}, nil
	}
	return Fragment{SQL: head + " ?", Binds: []any{cond.Value}}, nil
}

func (c *compiler) joins() (Fragment, error) {
	frags := make([]Fragment, 0, len(c.b.query.joins))
	for _, j := range c.b.query.joins {
		if j.Raw != nil {
			frags = append(frags, j.Raw.clone())
			continue
		}
		frag := Fragment{SQL: string(j.Type) + " " + c.qualify(j.Table)}
		if j.Alias != "" {
			frag.SQL += " AS " + j.Alias
		}
		on, err := c.joinConditions(&j.Conditions)
		if err != nil {
			return Fragment{}, fmt.Errorf("%s: %w", j.Table, err)
		}
		if on.SQL != "" {
			frag.SQL += " ON " + on.SQL
			frag.Binds = on.Binds
		}
		frags = append(frags, frag)
	}
	return joinFragments(frags, " "), nil
}

func (c *compiler) joinConditions(jc *JoinConditions) (Fragment, error) {
	links := make([]link, 0, jc.Len())
	for _, s := range jc.statements {
		switch {
		case s.On != nil:
			if !s.On.Operator.Valid() {
				return Fragment{}, fmt.Errorf("%w: %q", ErrInvalidOperator, s.On.Operator)
			}
			links = append(links, link{frag: Fragment{SQL: fmt.Sprintf("%s %s %s", s.On.Left, s.On.Operator, s.On.Right)}})
		case s.Value != nil:
			frag, err := c.condition(s.Value)
			if err != nil {
				return Fragment{}, err
			}
			links = append(links, link{frag: frag})
		case s.Raw != nil:
			links = append(links, link{frag: s.Raw.clone()})
		case s.And != nil, s.Or != nil:
			group := s.And
			if group == nil {
				group = s.Or
			}
			frag, err := c.joinConditions(group)
			if err != nil {
				return Fragment{}, err
			}
			if frag.SQL == "" {
				continue
			}
			links = append(links, link{frag: frag, group: true, or: s.Or != nil, size: group.Len()})
		}
	}
	return chain(links, true)
}

// clauses renders the common clauses into p. Clauses of one kind accumulate
// in insertion order; LIMIT and OFFSET keep the last value.
func (c *compiler) clauses(p *Parts) error {
	var (
		with      []Fragment
		recursive bool
		unions    []Fragment
		groupBy   []Fragment
		having    []Fragment
		orderBy   []Fragment
	)

	for _, cl := range c.b.query.clauses {
		switch cl.Kind {
		case ClauseWith:
			sql, binds, err := c.nested(cl.Builder)
			if err != nil {
				return fmt.Errorf("with %s: %w", cl.Alias, err)
			}
			recursive = recursive || cl.Recursive
			with = append(with, Fragment{SQL: fmt.Sprintf("%s AS (%s)", cl.Alias, sql), Binds: binds})
		case ClauseUnion:
			sql, binds, err := c.nested(cl.Builder)
			if err != nil {
				return fmt.Errorf("union: %w", err)
			}
			keyword := "UNION "
			if cl.All {
				keyword = "UNION ALL "
			}
			unions = append(unions, Fragment{SQL: keyword + sql, Binds: binds})
		case ClauseLimit, ClauseOffset:
			if cl.Count < 0 {
				return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidClause, cl.Kind, cl.Count)
			}
			n := cl.Count
			if cl.Kind == ClauseLimit {
				p.Limit = &n
			} else {
				p.Offset = &n
			}
		case ClauseGroupBy:
			groupBy = append(groupBy, Fragment{SQL: strings.Join(cl.Columns, ", ")})
		case ClauseGroupByRaw:
			groupBy = append(groupBy, cl.Fragment.clone())
		case ClauseHaving:
			if cl.Condition == nil {
				having = append(having, cl.Fragment.clone())
				continue
			}
			frag, err := c.condition(cl.Condition)
			if err != nil {
				return fmt.Errorf("having: %w", err)
			}
			having = append(having, frag)
		case ClauseOrderByRaw:
			orderBy = append(orderBy, cl.Fragment.clone())
		case ClauseOrderBy:
			sql := cl.Column
			if cl.Direction != "" {
				sql += " " + string(cl.Direction)
			}
			orderBy = append(orderBy, Fragment{SQL: sql})
		default:
			return fmt.Errorf("%w: unknown clause %q", ErrInvalidClause, cl.Kind)
		}
	}

	if len(with) > 0 {
		p.With = joinFragments(with, ", ")
		if recursive {
			p.With.SQL = "WITH RECURSIVE " + p.With.SQL
		} else {
			p.With.SQL = "WITH " + p.With.SQL
		}
	}
	p.Union = joinFragments(unions, " ")
	p.GroupBy = joinFragments(groupBy, ", ")
	p.Having = joinFragments(having, " AND ")
	p.OrderBy = joinFragments(orderBy, ", ")
	return nil
}
