// Package session binds a dialect, a default database prefix and a logger
// into a factory for statement builders, and reports every compilation on
// an event bus.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-chainsql/config"
	"github.com/asaidimu/go-chainsql/core"
	"github.com/asaidimu/go-chainsql/core/query"
	"github.com/asaidimu/go-chainsql/mysql"
	"github.com/asaidimu/go-chainsql/sqlite"
)

// Session is the main implementation of core.SessionInterface.
type Session struct {
	dialect       query.Dialect
	database      string
	logger        *zap.Logger
	subscriptions map[string]*core.SubscriptionInfo
	subMu         sync.RWMutex
	bus           *events.TypedEventBus[core.CompileEvent]
}

// DialectFor resolves a dialect by client name. Unknown names, and
// PostgreSQL which has no compiler yet, fail with query.ErrUnsupportedDialect.
func DialectFor(name string) (query.Dialect, error) {
	switch strings.ToLower(name) {
	case mysql.Name:
		return mysql.New(), nil
	case sqlite.Name, "sqlite3":
		return sqlite.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", query.ErrUnsupportedDialect, name)
	}
}

// New creates a session from cfg. A nil logger disables logging. For MySQL
// the database prefix falls back to the schema named in the DSN.
func New(cfg *config.Config, logger *zap.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialect, err := DialectFor(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	database := cfg.Database
	if database == "" && cfg.DSN != "" && dialect.Name() == mysql.Name {
		if database, err = mysql.DatabaseFromDSN(cfg.DSN); err != nil {
			return nil, err
		}
	}

	bus, err := events.NewTypedEventBus[core.CompileEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	logger.Debug("session created",
		zap.String("dialect", dialect.Name()),
		zap.String("database", database),
	)
	return &Session{
		dialect:       dialect,
		database:      database,
		logger:        logger,
		bus:           bus,
		subscriptions: make(map[string]*core.SubscriptionInfo),
	}, nil
}

// Dialect returns the session's dialect.
func (s *Session) Dialect() query.Dialect {
	return s.dialect
}

// Builder returns an empty builder for the session's dialect, database prefix and logger.
func (s *Session) Builder() *query.Builder {
	return query.New(s.dialect).DB(s.database).WithLogger(s.logger)
}

// Compile renders b, converts its binds for the driver, and emits
// compile:start followed by compile:success or compile:failed.
func (s *Session) Compile(b *query.Builder) (*core.Compiled, error) {
	var result *core.Compiled
	err := s.withEventEmission(b, func() (*core.Compiled, error) {
		sql, binds, err := b.ToSQL()
		if err != nil {
			return nil, err
		}
		args, err := s.dialect.Args(binds)
		if err != nil {
			return nil, fmt.Errorf("prepare args: %w", err)
		}
		result = &core.Compiled{SQL: sql, Binds: binds, Args: args}
		return result, nil
	})
	if err != nil {
		s.logger.Warn("compile failed",
			zap.String("dialect", s.dialect.Name()),
			zap.String("method", string(b.Method())),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

// RegisterSubscription registers a callback for a compile event and returns
// an id that can be used to unregister it.
func (s *Session) RegisterSubscription(options core.RegisterSubscriptionOptions) string {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	unsubscribe := s.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	s.subscriptions[id] = &core.SubscriptionInfo{
		Id:          &id,
		Event:       options.Event,
		Unsubscribe: unsubscribe,
		Label:       options.Label,
		Description: options.Description,
	}
	return id
}

// UnregisterSubscription removes a subscription by its id.
func (s *Session) UnregisterSubscription(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if info, ok := s.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(s.subscriptions, id)
	}
}

// Subscriptions returns all active subscriptions.
func (s *Session) Subscriptions() ([]core.SubscriptionInfo, error) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	subs := make([]core.SubscriptionInfo, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, *sub)
	}
	return subs, nil
}

var _ core.SessionInterface = (*Session)(nil)
