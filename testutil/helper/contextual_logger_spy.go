package helper

import (
	"context"
	"slices"
	"sync"
)

// ContextualLoggerSpy captures calls made through the ContextualLogger interface,
// together with the context each call was made with.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []ContextualLogRecord
}

// ContextualLogRecord is one captured call.
type ContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// NewContextualLoggerSpy creates an empty spy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

// DebugContext records a debug call.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

// InfoContext records an info call.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

// WarnContext records a warn call.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

// ErrorContext records an error call.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// Records returns a copy of everything captured so far.
func (s *ContextualLoggerSpy) Records() []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.records)
}

// RecordsWith returns the captured calls with this level and message.
func (s *ContextualLoggerSpy) RecordsWith(level string, message string) []ContextualLogRecord {
	return slices.DeleteFunc(s.Records(), func(r ContextualLogRecord) bool {
		return r.Level != level || r.Message != message
	})
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level string, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, ContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    slices.Clone(args),
		Context: ctx,
	})
}
