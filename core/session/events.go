package session

import (
	"time"

	"github.com/asaidimu/go-chainsql/core"
	"github.com/asaidimu/go-chainsql/core/query"
)

func (s *Session) emitEvent(event core.CompileEvent) {
	if s.bus != nil {
		s.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps a compilation with start, success and failure events.
func (s *Session) withEventEmission(b *query.Builder, fn func() (*core.Compiled, error)) error {
	startTime := time.Now()
	s.emitEvent(createEvent(core.CompileStart, s.dialect.Name(), b.Method(), nil, nil, time.Time{}))

	result, err := fn()
	if err != nil {
		errStr := err.Error()
		s.emitEvent(createEvent(core.CompileFailed, s.dialect.Name(), b.Method(), nil, &errStr, startTime))
		return err
	}

	s.emitEvent(createEvent(core.CompileSuccess, s.dialect.Name(), b.Method(), result, nil, startTime))
	return nil
}

func createEvent(
	eventType core.CompileEventType,
	dialect string,
	method query.Method,
	result *core.Compiled,
	err *string,
	startTime time.Time,
) core.CompileEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Microseconds()
		duration = &d
	}

	event := core.CompileEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Dialect:   dialect,
		Method:    method,
		Error:     err,
		Duration:  duration,
	}
	if result != nil {
		sql := result.SQL
		event.SQL = &sql
		event.Binds = result.Binds
	}
	return event
}
