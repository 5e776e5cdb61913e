package engine

import (
	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/shell"
)

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithLogger sets the basic logger.
func WithLogger(logger shell.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger. It takes precedence over WithLogger.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithFeePolicy replaces the default late fee rule.
func WithFeePolicy(policy core.FeePolicy) Option {
	return func(e *Engine) error {
		if policy.LoanPeriodDays < 0 || policy.LateFeePerDay < 0 {
			return ErrInvalidFeePolicy
		}

		e.fees = policy
		return nil
	}
}
