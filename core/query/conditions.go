package query

import "fmt"

// Conditions is an ordered sequence of condition nodes on one level of a
// WHERE tree. Order matters for both the rendered SQL and the bind order.
type Conditions struct {
	statements []Statement
}

// Statements returns the nodes on this level.
func (c *Conditions) Statements() []Statement {
	return c.statements
}

// Len returns the number of nodes on this level.
func (c *Conditions) Len() int {
	return len(c.statements)
}

// Add appends a prepared node, such as one produced by a dialect helper.
func (c *Conditions) Add(s Statement) *Conditions {
	c.statements = append(c.statements, s)
	return c
}

// Where appends a column comparison.
func (c *Conditions) Where(column string, op Operator, value any) *Conditions {
	return c.Add(Statement{Condition: newCondition(column, op, value)})
}

// WhereEq adds an equality condition.
func (c *Conditions) WhereEq(column string, value any) *Conditions {
	return c.Where(column, OperatorEqual, value)
}

// WhereNe adds a not-equal condition.
func (c *Conditions) WhereNe(column string, value any) *Conditions {
	return c.Where(column, OperatorNotEqual, value)
}

// WhereGt adds a greater-than condition.
func (c *Conditions) WhereGt(column string, value any) *Conditions {
	return c.Where(column, OperatorGreaterThan, value)
}

// WhereGte adds a greater-than-or-equal condition.
func (c *Conditions) WhereGte(column string, value any) *Conditions {
	return c.Where(column, OperatorGreaterThanOrEqual, value)
}

// WhereLt adds a less-than condition.
func (c *Conditions) WhereLt(column string, value any) *Conditions {
	return c.Where(column, OperatorLessThan, value)
}

// WhereLte adds a less-than-or-equal condition.
func (c *Conditions) WhereLte(column string, value any) *Conditions {
	return c.Where(column, OperatorLessThanOrEqual, value)
}

// WhereIn adds an IN condition. values is any slice; each element gets its own placeholder.
func (c *Conditions) WhereIn(column string, values any) *Conditions {
	return c.Where(column, OperatorIn, values)
}

// WhereNotIn adds a NOT IN condition.
func (c *Conditions) WhereNotIn(column string, values any) *Conditions {
	return c.Where(column, OperatorNotIn, values)
}

// WhereNull adds an IS NULL condition.
func (c *Conditions) WhereNull(column string) *Conditions {
	return c.Where(column, OperatorIsNull, nil)
}

// WhereNotNull adds an IS NOT NULL condition.
func (c *Conditions) WhereNotNull(column string) *Conditions {
	return c.Where(column, OperatorIsNotNull, nil)
}

// WhereBetween adds a BETWEEN condition.
func (c *Conditions) WhereBetween(column string, low, high any) *Conditions {
	return c.Where(column, OperatorBetween, []any{low, high})
}

// WhereNotBetween adds a NOT BETWEEN condition.
func (c *Conditions) WhereNotBetween(column string, low, high any) *Conditions {
	return c.Where(column, OperatorNotBetween, []any{low, high})
}

// WhereLike adds a LIKE condition.
func (c *Conditions) WhereLike(column string, pattern any) *Conditions {
	return c.Where(column, OperatorLike, pattern)
}

// WhereNotLike adds a NOT LIKE condition.
func (c *Conditions) WhereNotLike(column string, pattern any) *Conditions {
	return c.Where(column, OperatorNotLike, pattern)
}

// WhereILike adds a case-insensitive LIKE condition.
func (c *Conditions) WhereILike(column string, pattern any) *Conditions {
	return c.WhereRaw(fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", column), pattern)
}

// WhereColumn compares two columns. Nothing is bound.
func (c *Conditions) WhereColumn(left, op, right string) *Conditions {
	return c.WhereRaw(fmt.Sprintf("%s %s %s", left, op, right))
}

// WhereExists adds EXISTS (sub). The nested statement's binds are spliced in place.
func (c *Conditions) WhereExists(sub *Builder) *Conditions {
	return c.Where("", OperatorExists, sub)
}

// WhereNotExists adds NOT EXISTS (sub).
func (c *Conditions) WhereNotExists(sub *Builder) *Conditions {
	return c.Where("", OperatorNotExists, sub)
}

// WhereInSub adds column IN (sub).
func (c *Conditions) WhereInSub(column string, sub *Builder) *Conditions {
	return c.Where(column, OperatorIn, sub)
}

// WhereNotInSub adds column NOT IN (sub).
func (c *Conditions) WhereNotInSub(column string, sub *Builder) *Conditions {
	return c.Where(column, OperatorNotIn, sub)
}

// WhereRaw appends a verbatim SQL fragment.
func (c *Conditions) WhereRaw(sql string, binds ...any) *Conditions {
	return c.Add(Statement{Raw: &Fragment{SQL: sql, Binds: binds}})
}

// WhereGroup appends a nested group joined to its siblings with AND and lets fn populate it.
func (c *Conditions) WhereGroup(fn func(sub *Conditions)) *Conditions {
	fn(c.And())
	return c
}

// And appends an empty AND group and returns it for further mutation.
func (c *Conditions) And() *Conditions {
	group := &Conditions{}
	c.Add(Statement{And: group})
	return group
}

// Or appends an empty OR group and returns it for further mutation.
//
//	q.WhereEq("status", "active")
//	q.Or().WhereEq("status", "pending")
//	// status = ? OR status = ?
func (c *Conditions) Or() *Conditions {
	group := &Conditions{}
	c.Add(Statement{Or: group})
	return group
}

// Clone returns a deep copy.
func (c *Conditions) Clone() *Conditions {
	if c == nil {
		return nil
	}
	out := &Conditions{statements: make([]Statement, 0, len(c.statements))}
	for _, s := range c.statements {
		out.statements = append(out.statements, s.clone())
	}
	return out
}

func (s Statement) clone() Statement {
	switch {
	case s.Condition != nil:
		return Statement{Condition: s.Condition.clone()}
	case s.Raw != nil:
		raw := s.Raw.clone()
		return Statement{Raw: &raw}
	case s.And != nil:
		return Statement{And: s.And.Clone()}
	case s.Or != nil:
		return Statement{Or: s.Or.Clone()}
	}
	return Statement{}
}

// newCondition builds a leaf, detaching a sub-statement value from the
// caller's builder.
func newCondition(column string, op Operator, value any) *Condition {
	if sub, ok := value.(*Builder); ok {
		value = sub.Clone()
	}
	return &Condition{Column: column, Operator: op, Value: value}
}

func (c *Condition) clone() *Condition {
	if c == nil {
		return nil
	}
	out := *c
	switch v := c.Value.(type) {
	case *Builder:
		out.Value = v.Clone()
	case []any:
		out.Value = append([]any(nil), v...)
	}
	return &out
}

func (f Fragment) clone() Fragment {
	return Fragment{SQL: f.SQL, Binds: append([]any(nil), f.Binds...)}
}
