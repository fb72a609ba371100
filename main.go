package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/asaidimu/go-chainsql/config"
	"github.com/asaidimu/go-chainsql/core"
	"github.com/asaidimu/go-chainsql/core/query"
	"github.com/asaidimu/go-chainsql/core/session"
	"github.com/asaidimu/go-chainsql/sqlite"
	"github.com/asaidimu/go-chainsql/utils"
)

type user struct {
	Name   string `json:"name"`
	Visits int    `json:"visits"`
}

const createUsers = `CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	age INTEGER,
	is_active INTEGER NOT NULL DEFAULT 1,
	visits INTEGER NOT NULL DEFAULT 0
)`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.Dialect = sqlite.Name

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	s, err := session.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create session", zap.Error(err))
	}

	s.RegisterSubscription(core.RegisterSubscriptionOptions{
		Event: core.CompileSuccess,
		Label: core.StringPtr("statement log"),
		Callback: func(ctx context.Context, event core.CompileEvent) error {
			logger.Info("Compiled", zap.String("sql", *event.SQL), zap.Any("binds", event.Binds))
			return nil
		},
	})

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createUsers); err != nil {
		logger.Fatal("Failed to create users table", zap.Error(err))
	}

	ctx := context.Background()
	run := func(b *query.Builder) sql.Result {
		compiled, err := s.Compile(b)
		if err != nil {
			logger.Fatal("Failed to compile statement", zap.Error(err))
		}
		res, err := db.ExecContext(ctx, compiled.SQL, compiled.Args...)
		if err != nil {
			logger.Fatal("Failed to execute statement", zap.String("sql", compiled.SQL), zap.Error(err))
		}
		return res
	}

	// --- Insert ---
	run(s.Builder().Table("users").InsertMany([]map[string]any{
		{"name": "Alice", "email": "alice@example.com", "age": 30, "is_active": true},
		{"name": "Bob", "email": "bob@example.com", "age": 17, "is_active": true},
		{"name": "Carol", "email": "carol@example.com", "age": 52, "is_active": false},
	}))

	// --- Update ---
	res := run(s.Builder().Table("users").Increment("visits", 1).Query(func(q *query.QueryBuilder) {
		q.WhereEq("is_active", true)
		q.Or().WhereGte("age", 50)
	}))
	updated, _ := res.RowsAffected()
	fmt.Printf("Bumped visits for %d users\n", updated)

	// --- Select ---
	compiled, err := s.Compile(s.Builder().Table("users").SelectColumns("name", "visits").Query(func(q *query.QueryBuilder) {
		q.WhereGte("age", 18)
		q.OrderByDesc("age")
		q.Limit(10)
	}))
	if err != nil {
		logger.Fatal("Failed to compile select", zap.Error(err))
	}
	rows, err := db.QueryContext(ctx, compiled.SQL, compiled.Args...)
	if err != nil {
		logger.Fatal("Failed to query users", zap.Error(err))
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var visits int64
		if err := rows.Scan(&name, &visits); err != nil {
			logger.Fatal("Failed to scan row", zap.Error(err))
		}
		u, err := utils.MapToStruct[user](map[string]any{"name": name, "visits": visits})
		if err != nil {
			logger.Fatal("Failed to decode row", zap.Error(err))
		}
		fmt.Printf("  %-6s visits=%d\n", u.Name, u.Visits)
	}
	if err := rows.Err(); err != nil {
		logger.Fatal("Failed to read rows", zap.Error(err))
	}

	// --- Delete ---
	res = run(s.Builder().Table("users").Delete().Query(func(q *query.QueryBuilder) {
		q.WhereEq("is_active", false)
	}))
	deleted, _ := res.RowsAffected()
	fmt.Printf("Removed %d inactive users\n", deleted)
}
