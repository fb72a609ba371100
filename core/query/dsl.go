// Package query defines the statement tree used to describe a SQL statement
// and the dialect-neutral compiler that renders it into SQL text plus an
// ordered list of bind values.
package query

// Operator is a comparison or test applied to a column in a condition.
type Operator string

// Supported operators. The value of each constant is the SQL token it renders.
const (
	OperatorEqual              Operator = "="
	OperatorNotEqual           Operator = "!="
	OperatorIn                 Operator = "IN"
	OperatorNotIn              Operator = "NOT IN"
	OperatorIsNull             Operator = "IS NULL"
	OperatorIsNotNull          Operator = "IS NOT NULL"
	OperatorExists             Operator = "EXISTS"
	OperatorNotExists          Operator = "NOT EXISTS"
	OperatorBetween            Operator = "BETWEEN"
	OperatorNotBetween         Operator = "NOT BETWEEN"
	OperatorLike               Operator = "LIKE"
	OperatorNotLike            Operator = "NOT LIKE"
	OperatorGreaterThan        Operator = ">"
	OperatorGreaterThanOrEqual Operator = ">="
	OperatorLessThan           Operator = "<"
	OperatorLessThanOrEqual    Operator = "<="
	OperatorGreaterOrLessThan  Operator = "<>"
)

// ToSQL returns the SQL token for the operator and whether it consumes bound values.
func (o Operator) ToSQL() (string, bool) {
	switch o {
	case OperatorIsNull, OperatorIsNotNull, OperatorExists, OperatorNotExists:
		return string(o), false
	default:
		return string(o), true
	}
}

// Valid reports whether o is one of the supported operators.
func (o Operator) Valid() bool {
	switch o {
	case OperatorEqual, OperatorNotEqual, OperatorIn, OperatorNotIn,
		OperatorIsNull, OperatorIsNotNull, OperatorExists, OperatorNotExists,
		OperatorBetween, OperatorNotBetween, OperatorLike, OperatorNotLike,
		OperatorGreaterThan, OperatorGreaterThanOrEqual, OperatorLessThan,
		OperatorLessThanOrEqual, OperatorGreaterOrLessThan:
		return true
	}
	return false
}

// isRange reports whether the operator takes a lower and upper bound.
func (o Operator) isRange() bool {
	return o == OperatorBetween || o == OperatorNotBetween
}

// Fragment is a piece of SQL text together with the values bound to its placeholders.
type Fragment struct {
	SQL   string
	Binds []any
}

func (f Fragment) empty() bool {
	return f.SQL == "" && len(f.Binds) == 0
}

// Expr is a payload value that is written into the statement verbatim instead
// of being bound. Its own binds are spliced at the position the expression appears.
type Expr struct {
	SQL   string
	Binds []any
}

// Raw builds an Expr.
func Raw(sql string, binds ...any) Expr {
	return Expr{SQL: sql, Binds: binds}
}

// Condition is a single column comparison. When Value holds a *Builder the
// nested statement is compiled in place of a placeholder.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

// Statement is one node of a condition tree. Exactly one field is set.
type Statement struct {
	Condition *Condition  `json:",omitempty"`
	Raw       *Fragment   `json:",omitempty"`
	And       *Conditions `json:",omitempty"` // nested group combined with AND
	Or        *Conditions `json:",omitempty"` // nested group combined with OR
}

// SortDirection specifies the direction for ORDER BY.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "ASC"
	SortDirectionDesc SortDirection = "DESC"
)

// JoinType is the keyword that introduces a join.
type JoinType string

// Supported join types.
const (
	JoinTypeJoin       JoinType = "JOIN"
	JoinTypeInner      JoinType = "INNER JOIN"
	JoinTypeLeft       JoinType = "LEFT JOIN"
	JoinTypeRight      JoinType = "RIGHT JOIN"
	JoinTypeLeftOuter  JoinType = "LEFT OUTER JOIN"
	JoinTypeRightOuter JoinType = "RIGHT OUTER JOIN"
	JoinTypeFullOuter  JoinType = "FULL OUTER JOIN"
	JoinTypeCross      JoinType = "CROSS JOIN"
)

// JoinCondition is one node of a join's ON tree. Exactly one field is set.
type JoinCondition struct {
	On    *ColumnComparison `json:",omitempty"` // column op column, no bind
	Value *Condition        `json:",omitempty"` // column op ?, one bind
	Raw   *Fragment         `json:",omitempty"`
	And   *JoinConditions   `json:",omitempty"`
	Or    *JoinConditions   `json:",omitempty"`
}

// ColumnComparison compares two columns.
type ColumnComparison struct {
	Left     string
	Operator Operator
	Right    string
}

// Join is one entry of the join list. A non-nil Raw overrides everything else.
type Join struct {
	Type       JoinType
	Table      string
	Alias      string
	Conditions JoinConditions
	Raw        *Fragment
}

// SubSelect is a nested statement rendered as a computed column.
type SubSelect struct {
	Alias   string
	Builder *Builder
}

// SelectItem is one entry of the select list. Exactly one field is set.
type SelectItem struct {
	Columns []string   `json:",omitempty"`
	Raw     *Fragment  `json:",omitempty"`
	Sub     *SubSelect `json:",omitempty"`
}

// ClauseKind identifies a common clause.
type ClauseKind string

// Supported clause kinds.
const (
	ClauseWith       ClauseKind = "with"
	ClauseUnion      ClauseKind = "union"
	ClauseLimit      ClauseKind = "limit"
	ClauseOffset     ClauseKind = "offset"
	ClauseGroupBy    ClauseKind = "group_by"
	ClauseGroupByRaw ClauseKind = "group_by_raw"
	ClauseHaving     ClauseKind = "having"
	ClauseOrderBy    ClauseKind = "order_by"
	ClauseOrderByRaw ClauseKind = "order_by_raw"
)

// Clause is an auxiliary clause. Which fields are meaningful depends on Kind.
type Clause struct {
	Kind      ClauseKind
	Alias     string        // with
	Recursive bool          // with
	All       bool          // union
	Builder   *Builder      // with, union
	Count     int           // limit, offset
	Columns   []string      // group_by
	Column    string        // order_by
	Direction SortDirection // order_by
	Condition *Condition    // having
	Fragment  Fragment      // group_by_raw, having_raw, order_by_raw
}

// Method is the kind of statement a builder emits.
type Method string

// Supported methods.
const (
	MethodSelect     Method = "select"
	MethodInsert     Method = "insert"
	MethodInsertMany Method = "insert_many"
	MethodUpdate     Method = "update"
	MethodDelete     Method = "delete"
)
