package shell

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
)

// Logger interface for basic logging in the engine.
type Logger = eventstore.Logger

// ContextualLogger interface for context-aware logging in the engine.
type ContextualLogger = eventstore.ContextualLogger

const (
	// StatusError is the outcome label of a failed command.
	StatusError = "error"

	// StatusCanceled is the outcome label of a command whose context was canceled.
	StatusCanceled = "canceled"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandFailed    = "command handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrDurationMS      = "duration_ms"
	LogAttrError           = "error"
)

// LogCommandStart logs the start of a command.
func LogCommandStart(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, LogMsgCommandStarted, LogAttrCommandType, commandType)
	} else if logger != nil {
		logger.Debug(LogMsgCommandStarted, LogAttrCommandType, commandType)
	}
}

// LogCommandSuccess logs a completed command with its business outcome.
func LogCommandSuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	businessOutcome string,
	duration time.Duration,
	extraArgs ...any,
) {
	args := append([]any{
		LogAttrCommandType, commandType,
		LogAttrBusinessOutcome, businessOutcome,
		LogAttrDurationMS, ToMilliseconds(duration),
	}, extraArgs...)

	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, LogMsgCommandCompleted, args...)
	} else if logger != nil {
		logger.Info(LogMsgCommandCompleted, args...)
	}
}

// LogCommandError logs a failed command. Canceled commands are logged at warn level.
func LogCommandError(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	err error,
) {
	args := []any{
		LogAttrCommandType, commandType,
		LogAttrError, err.Error(),
	}

	if IsCancellationError(err) {
		args = append(args, LogAttrBusinessOutcome, StatusCanceled)

		if contextualLogger != nil {
			contextualLogger.WarnContext(ctx, LogMsgCommandFailed, args...)
		} else if logger != nil {
			logger.Warn(LogMsgCommandFailed, args...)
		}

		return
	}

	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, LogMsgCommandFailed, args...)
	} else if logger != nil {
		logger.Error(LogMsgCommandFailed, args...)
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ToMilliseconds converts a duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
