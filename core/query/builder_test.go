package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Age   int    `json:"age"`
}

func TestNew(t *testing.T) {
	b := New(testDialect{})
	assert.NotNil(t, b)
	assert.Equal(t, MethodSelect, b.Method())
	assert.Equal(t, "test", b.Dialect().Name())
	assert.Empty(t, b.query.Statements())
	assert.Empty(t, b.query.Joins())
	assert.Empty(t, b.query.Clauses())
	assert.Empty(t, b.SQL())
}

func TestBuilder_Clone(t *testing.T) {
	sub := New(nil).Table("orders").Query(func(q *QueryBuilder) { q.WhereEq("status", "open") })
	b := newTestBuilder().Table("users").
		SelectColumns("id").
		SelectSub("orders", sub).
		Update(map[string]any{"name": "John"}).
		Query(func(q *QueryBuilder) {
			q.WhereEq("id", 1)
			q.Join("profiles", func(on *JoinConditions) { on.On("profiles.user_id", OperatorEqual, "users.id") })
			q.Limit(10)
		})

	cloned := b.Clone()
	require.NotNil(t, cloned)

	// Modify the clone and ensure the original is not affected
	cloned.Table("accounts")
	cloned.Increment("visits", 1)
	cloned.Query(func(q *QueryBuilder) {
		q.WhereEq("tenant", 9)
		q.Limit(20)
	})

	sql, binds, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = ? WHERE id = ? LIMIT ?", sql)
	assert.Equal(t, []any{"John", 1, 10}, binds)

	sql, binds, err = cloned.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE accounts SET name = ?, visits = visits + ? WHERE id = ? AND tenant = ? LIMIT ?", sql)
	assert.Equal(t, []any{"John", 1, 1, 9, 20}, binds)
}

func TestBuilder_NestedStatementsAreCopiedOnEntry(t *testing.T) {
	sub := New(nil).Table("orders").Query(func(q *QueryBuilder) { q.WhereEq("status", "open") })
	b := newTestBuilder().Table("users").Query(func(q *QueryBuilder) {
		q.WhereExists(sub)
	}).Union(sub)

	sub.Query(func(q *QueryBuilder) { q.WhereEq("late", true) })

	sql, binds, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE EXISTS (SELECT * FROM orders WHERE status = ?) UNION SELECT * FROM orders WHERE status = ?", sql)
	assert.Equal(t, []any{"open", "open"}, binds)
}

func TestBuilder_StructPayloads(t *testing.T) {
	t.Run("insert uses json field names", func(t *testing.T) {
		sql, binds, err := newTestBuilder().Table("users").Insert(testUser{Name: "Ada", Age: 36}).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO users (age, name) VALUES (?, ?)", sql)
		assert.Equal(t, []any{json.Number("36"), "Ada"}, binds)
	})

	t.Run("pointer payload", func(t *testing.T) {
		sql, _, err := newTestBuilder().Table("users").Update(&testUser{Name: "Ada", Email: "ada@example.com"}).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "UPDATE users SET age = ?, email = ?, name = ?", sql)
	})

	t.Run("insert many from structs", func(t *testing.T) {
		rows := []testUser{{Name: "Ada", Age: 36}, {Name: "Alan", Age: 41}}
		sql, binds, err := newTestBuilder().Table("users").InsertMany(rows).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO users (age, name) VALUES (?, ?), (?, ?)", sql)
		assert.Equal(t, []any{json.Number("36"), "Ada", json.Number("41"), "Alan"}, binds)
	})

	t.Run("integers above 2^53 keep every digit", func(t *testing.T) {
		type ledgerRow struct {
			ID    int64   `json:"id"`
			Ratio float64 `json:"ratio"`
		}
		sql, binds, err := newTestBuilder().Table("ledger").Insert(ledgerRow{ID: 9007199254740993, Ratio: 0.5}).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO ledger (id, ratio) VALUES (?, ?)", sql)
		assert.Equal(t, []any{json.Number("9007199254740993"), json.Number("0.5")}, binds)
	})

	t.Run("omitted fields make rows mismatch", func(t *testing.T) {
		rows := []testUser{{Name: "Ada", Email: "ada@example.com"}, {Name: "Alan"}}
		_, _, err := newTestBuilder().Table("users").InsertMany(rows).ToSQL()
		assert.ErrorIs(t, err, ErrMismatchedRows)
	})
}

func TestBuilder_PayloadErrorsSurfaceOnCompile(t *testing.T) {
	b := newTestBuilder().Table("users").Insert("not a row")
	assert.Equal(t, MethodSelect, b.Method())

	_, _, err := b.ToSQL()
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "insert")

	t.Run("a later valid payload replaces the error", func(t *testing.T) {
		tests := []struct {
			name        string
			build       func(b *Builder) *Builder
			expectedSQL string
		}{
			{
				name:        "insert then insert",
				build:       func(b *Builder) *Builder { return b.Insert("bad").Insert(map[string]any{"a": 1}) },
				expectedSQL: "INSERT INTO users (a) VALUES (?)",
			},
			{
				name:        "insert then update",
				build:       func(b *Builder) *Builder { return b.Insert(42).Update(map[string]any{"a": 1}) },
				expectedSQL: "UPDATE users SET a = ?",
			},
			{
				name:        "insert many then insert many",
				build:       func(b *Builder) *Builder { return b.InsertMany("bad").InsertMany([]map[string]any{{"a": 1}}) },
				expectedSQL: "INSERT INTO users (a) VALUES (?)",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				sql, binds, err := tt.build(newTestBuilder().Table("users")).ToSQL()
				require.NoError(t, err)
				assert.Equal(t, tt.expectedSQL, sql)
				assert.Equal(t, []any{1}, binds)
			})
		}
	})

	t.Run("a failing payload after a valid one still fails", func(t *testing.T) {
		_, _, err := newTestBuilder().Table("users").Insert(map[string]any{"a": 1}).Update("bad").ToSQL()
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestBuilder_PayloadIsCopied(t *testing.T) {
	row := map[string]any{"name": "Ada"}
	b := newTestBuilder().Table("users").Insert(row)
	row["email"] = "late@example.com"

	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name) VALUES (?)", sql)
}

func TestBuilder_MethodSwitches(t *testing.T) {
	b := newTestBuilder().Table("users")
	assert.Equal(t, MethodInsert, b.Insert(map[string]any{"a": 1}).Method())
	assert.Equal(t, MethodInsertMany, b.InsertMany([]map[string]any{{"a": 1}}).Method())
	assert.Equal(t, MethodUpdate, b.Update(map[string]any{"a": 1}).Method())
	assert.Equal(t, MethodDelete, b.Delete().Method())
	assert.Equal(t, MethodSelect, b.SelectColumns("a").Method())
}

func TestBuilder_IncrementStartsFreshUpdate(t *testing.T) {
	b := newTestBuilder().Table("users").Insert(map[string]any{"name": "x"}).Increment("visits", 2)
	sql, binds, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET visits = visits + ?", sql)
	assert.Equal(t, []any{2}, binds)
}

func TestConditions_Clone(t *testing.T) {
	c := &Conditions{}
	c.WhereEq("a", 1)
	c.Or().WhereEq("b", 2)

	cloned := c.Clone()
	cloned.WhereEq("c", 3)
	cloned.statements[1].Or.WhereEq("d", 4)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.statements[1].Or.Len())
	assert.Equal(t, 3, cloned.Len())
}

func TestJoinConditions_Clone(t *testing.T) {
	j := &JoinConditions{}
	j.On("a.id", OperatorEqual, "b.id")
	j.Or().OnVal("a.kind", OperatorEqual, "x")

	cloned := j.Clone()
	cloned.OnRaw("a.deleted_at IS NULL")
	cloned.statements[1].Or.On("a.x", OperatorEqual, "b.x")

	assert.Equal(t, 2, j.Len())
	assert.Equal(t, 1, j.statements[1].Or.Len())
	assert.Equal(t, 3, cloned.Len())
}

func TestJoinConditions_SubStatementValues(t *testing.T) {
	latest := New(nil).Table("orders").SelectMax("id").Query(func(q *QueryBuilder) { q.WhereEq("status", "paid") })
	b := newTestBuilder().Table("users").Query(func(q *QueryBuilder) {
		q.Join("orders", func(on *JoinConditions) {
			on.On("orders.user_id", OperatorEqual, "users.id")
			on.OnVal("orders.id", OperatorEqual, latest)
		})
	})
	expectedSQL := "SELECT * FROM users JOIN orders ON orders.user_id = users.id AND orders.id = (SELECT MAX(id) FROM orders WHERE status = ?)"

	t.Run("copied on entry", func(t *testing.T) {
		latest.Query(func(q *QueryBuilder) { q.WhereEq("refunded", false) })

		sql, binds, err := b.ToSQL()
		require.NoError(t, err)
		assert.Equal(t, expectedSQL, sql)
		assert.Equal(t, []any{"paid"}, binds)
	})

	t.Run("deep copied by clone", func(t *testing.T) {
		cloned := b.Clone()
		sub := cloned.query.joins[0].Conditions.statements[1].Value.Value.(*Builder)
		sub.Query(func(q *QueryBuilder) { q.WhereEq("region", "eu") })

		sql, binds, err := b.ToSQL()
		require.NoError(t, err)
		assert.Equal(t, expectedSQL, sql)
		assert.Equal(t, []any{"paid"}, binds)

		sql, binds, err = cloned.ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM users JOIN orders ON orders.user_id = users.id AND orders.id = (SELECT MAX(id) FROM orders WHERE status = ? AND region = ?)", sql)
		assert.Equal(t, []any{"paid", "eu"}, binds)
	})
}

func TestQueryBuilder_CloneHaving(t *testing.T) {
	quota := New(nil).Table("quotas").SelectColumns("n")
	b := newTestBuilder().Table("users").SelectColumns("city").Query(func(q *QueryBuilder) {
		q.GroupBy("city")
		q.Having("COUNT(*)", OperatorGreaterThan, quota)
		q.HavingIn("city", []any{"A", "B"})
	})
	quota.Query(func(q *QueryBuilder) { q.WhereEq("late", true) })

	cloned := b.Clone()
	cloned.query.clauses[1].Condition.Value.(*Builder).Query(func(q *QueryBuilder) { q.WhereEq("kind", "city") })
	cloned.query.clauses[2].Condition.Value.([]any)[0] = "Z"

	sql, binds, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT city FROM users GROUP BY city HAVING COUNT(*) > (SELECT n FROM quotas) AND city IN (?,?)", sql)
	assert.Equal(t, []any{"A", "B"}, binds)

	_, binds, err = cloned.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, []any{"kind", "Z", "B"}, binds)
}
