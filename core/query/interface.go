package query

// Dialect renders a Builder for one SQL variant. Implementations usually call
// Collect and then Parts.Assemble with their own pagination syntax.
type Dialect interface {
	// Name identifies the dialect, e.g. "mysql". Nested statements must share
	// the name of the statement they are embedded in.
	Name() string

	// Compile renders b into SQL text and its ordered bind values.
	Compile(b *Builder) (string, []any, error)

	// Args converts bind values into arguments the dialect's database/sql
	// driver accepts.
	Args(binds []any) ([]any, error)
}
