package helper

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     *[]slog.Record
	attrs       []slog.Attr
	mu          *sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy.
// Switchable to log to stdout, which helps when debugging a test.
func NewLogHandlerSpy(logToStdOut bool) *LogHandlerSpy {
	records := make([]slog.Record, 0)

	return &LogHandlerSpy{
		records:     &records,
		mu:          &sync.Mutex{},
		logToStdout: logToStdOut,
	}
}

// Handle implements slog.Handler interface.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record = record.Clone()
	record.AddAttrs(s.attrs...)
	*s.records = append(*s.records, record)

	if s.logToStdout {
		_ = slog.NewJSONHandler(os.Stdout, nil).Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler interface. The returned handler shares the captured records.
func (s *LogHandlerSpy) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandlerSpy{
		records:     s.records,
		attrs:       append(append([]slog.Attr{}, s.attrs...), attrs...),
		mu:          s.mu,
		logToStdout: s.logToStdout,
	}
}

// WithGroup implements slog.Handler interface.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// GetRecords returns a copy of all captured log records.
func (s *LogHandlerSpy) GetRecords() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]slog.Record, len(*s.records))
	copy(records, *s.records)

	return records
}

// HasDebugLog checks if there's a debug-level log record with exactly this message.
func (s *LogHandlerSpy) HasDebugLog(message string) bool {
	return s.hasLog(slog.LevelDebug, message)
}

// HasInfoLog checks if there's an info-level log record with exactly this message.
func (s *LogHandlerSpy) HasInfoLog(message string) bool {
	return s.hasLog(slog.LevelInfo, message)
}

// HasWarnLog checks if there's a warn-level log record with exactly this message.
func (s *LogHandlerSpy) HasWarnLog(message string) bool {
	return s.hasLog(slog.LevelWarn, message)
}

// HasErrorLog checks if there's an error-level log record with exactly this message.
func (s *LogHandlerSpy) HasErrorLog(message string) bool {
	return s.hasLog(slog.LevelError, message)
}

// HasLogWith checks if there's a record with this message carrying key with the given string value.
func (s *LogHandlerSpy) HasLogWith(message string, key string, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range *s.records {
		if record.Message != message {
			continue
		}

		hit := false
		record.Attrs(func(attr slog.Attr) bool {
			hit = attr.Key == key && attr.Value.String() == value
			return !hit
		})

		if hit {
			return true
		}
	}

	return false
}

// AttrOf returns the value of key on the first record with message, if any.
func (s *LogHandlerSpy) AttrOf(message string, key string) (slog.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range *s.records {
		if record.Message != message {
			continue
		}

		var found slog.Value
		ok := false
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == key {
				found, ok = attr.Value, true
				return false
			}

			return true
		})

		if ok {
			return found, true
		}
	}

	return slog.Value{}, false
}

func (s *LogHandlerSpy) hasLog(level slog.Level, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range *s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}
