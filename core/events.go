// Package core holds the contracts shared by sessions and their callers:
// compile events, subscriptions and the compiled statement handed to an
// execution layer.
package core

import (
	"context"

	"github.com/asaidimu/go-chainsql/core/query"
)

// CompileEventType defines the events emitted around statement compilation.
type CompileEventType string

const (
	CompileStart   CompileEventType = "compile:start"
	CompileSuccess CompileEventType = "compile:success"
	CompileFailed  CompileEventType = "compile:failed"
)

// CompileEvent is the payload delivered to subscribers.
type CompileEvent struct {
	Type      CompileEventType `json:"type"`               // The event being reported.
	Timestamp int64            `json:"timestamp"`          // Unix milliseconds when the event occurred.
	Dialect   string           `json:"dialect"`            // Dialect the statement was compiled for.
	Method    query.Method     `json:"method"`             // Statement kind (select, insert, ...).
	SQL       *string          `json:"sql,omitempty"`      // Compiled text, on success.
	Binds     []any            `json:"binds,omitempty"`    // Bind values, on success.
	Error     *string          `json:"error,omitempty"`    // Failure message, on failure.
	Duration  *int64           `json:"duration,omitempty"` // Compile time in microseconds.
}

// CallbackFunction receives compile events.
type CallbackFunction func(ctx context.Context, event CompileEvent) error

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	Id          *string          `json:"id,omitempty"`
	Event       CompileEventType `json:"event"`
	Label       *string          `json:"label,omitempty"`
	Description *string          `json:"description,omitempty"`
	Unsubscribe func()           `json:"-"`
}

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       CompileEventType `json:"event"`
	Label       *string          `json:"label,omitempty"`
	Description *string          `json:"description,omitempty"`
	Callback    CallbackFunction `json:"-"`
}

// Compiled is a rendered statement ready for database/sql. Args are Binds
// converted for the dialect's driver.
type Compiled struct {
	SQL   string
	Binds []any
	Args  []any
}

// SessionInterface is the surface a session exposes to callers.
type SessionInterface interface {
	// Dialect returns the dialect every builder of the session targets.
	Dialect() query.Dialect
	// Builder returns an empty builder seeded with the session's dialect,
	// database prefix and logger.
	Builder() *query.Builder
	// Compile renders b and reports the outcome to subscribers.
	Compile(b *query.Builder) (*Compiled, error)

	RegisterSubscription(options RegisterSubscriptionOptions) string
	UnregisterSubscription(id string)
	Subscriptions() ([]SubscriptionInfo, error)
}
