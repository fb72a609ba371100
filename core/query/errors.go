package query

import "errors"

var (
	// ErrUnsupportedDialect is returned when a builder has no dialect or names one that is not implemented.
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	// ErrMissingTable is returned when a statement needs a table and neither a table nor a raw table is set.
	ErrMissingTable = errors.New("table is not set")
	// ErrInvalidPayload is returned when an insert or update payload has the wrong shape.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrMismatchedRows is returned when the rows of a multi-row insert do not share one key set.
	ErrMismatchedRows = errors.New("rows do not share the same columns")
	// ErrOperatorArity is returned when a value does not match what its operator expects.
	ErrOperatorArity = errors.New("operator arity mismatch")
	// ErrInvalidOperator is returned for operators outside the supported set.
	ErrInvalidOperator = errors.New("invalid operator")
	// ErrDialectMismatch is returned when a nested statement targets another dialect.
	ErrDialectMismatch = errors.New("nested statement uses a different dialect")
	// ErrDanglingCondition is returned when a condition follows an OR group on the same level.
	ErrDanglingCondition = errors.New("condition follows an OR group on the same level")
	// ErrInvalidClause is returned for clauses with out of range values.
	ErrInvalidClause = errors.New("invalid clause")
)
