package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "vlmscore/pkg/errors"
	"vlmscore/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		OnRetry:     nil,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	// Check if it's a typed pipeline error
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	// Check for context errors (don't retry)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Default to retrying unknown errors
	return true
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		// Check if we've exceeded max attempts
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		// Execute the operation
		err := op()
		if err == nil {
			// Success
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		// Check if we should retry this error
		if !cfg.RetryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		// Calculate delay
		delay := cfg.Backoff.NextDelay(attempt)

		// Call OnRetry callback if provided
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		// Log retry attempt
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		// Wait before retry
		if err := Wait(cfg.Context, delay); err != nil {
			// Context cancelled
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

// Retrier provides a reusable retry mechanism
type Retrier struct {
	config *Config
}

// NewRetrier creates a new retrier with the given configuration
func NewRetrier(cfg *Config) *Retrier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Retrier{config: cfg}
}

// Do executes an operation with retry logic
func (r *Retrier) Do(op Operation) error {
	return Do(op, r.config)
}

// DoWithResult executes an operation that returns a result with retry logic
func (r *Retrier) DoWithResult(op OperationWithResult[any]) (any, error) {
	return DoWithResult(op, r.config)
}

// WithMaxAttempts returns a new retrier with updated max attempts
func (r *Retrier) WithMaxAttempts(maxAttempts int) *Retrier {
	newConfig := *r.config
	newConfig.MaxAttempts = maxAttempts
	return &Retrier{config: &newConfig}
}

// WithBackoff returns a new retrier with updated backoff strategy
func (r *Retrier) WithBackoff(backoff BackoffStrategy) *Retrier {
	newConfig := *r.config
	newConfig.Backoff = backoff
	return &Retrier{config: &newConfig}
}

// WithContext returns a new retrier with updated context
func (r *Retrier) WithContext(ctx context.Context) *Retrier {
	newConfig := *r.config
	newConfig.Context = ctx
	return &Retrier{config: &newConfig}
}

// APIRetrier provides retry logic tuned for VLM API calls
type APIRetrier struct {
	*Retrier
	errorTypeBackoff *ErrorTypeBackoff
}

// NewAPIRetrier creates a retrier that picks backoff by error type
func NewAPIRetrier(maxAttempts int, logger logger.Logger) *APIRetrier {
	return NewAPIRetrierWithBackoff(maxAttempts, NewErrorTypeBackoff(), logger)
}

// NewAPIRetrierWithBackoff creates a retrier using the given error-type
// backoff set. Callers that derive delays from configuration build the
// set themselves.
func NewAPIRetrierWithBackoff(maxAttempts int, backoff *ErrorTypeBackoff, logger logger.Logger) *APIRetrier {
	cfg := &Config{
		MaxAttempts: maxAttempts,
		Backoff:     backoff.DefaultBackoff,
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger,
	}

	return &APIRetrier{
		Retrier:          NewRetrier(cfg),
		errorTypeBackoff: backoff,
	}
}

// DoWithErrorType executes an operation, delaying between attempts with
// the backoff matched to the last error's type. Per-call state keeps a
// shared APIRetrier safe for many goroutines.
func (ar *APIRetrier) DoWithErrorType(op Operation) error {
	var lastErr error

	wrapped := func() error {
		lastErr = op()
		return lastErr
	}

	cfg := *ar.config
	cfg.Backoff = backoffFunc(func(attempt int) time.Duration {
		strategy := ar.errorTypeBackoff.DefaultBackoff
		var apiErr *errs.Error
		if errors.As(lastErr, &apiErr) {
			strategy = ar.errorTypeBackoff.GetBackoffForError(apiErr.Type)
		}
		return strategy.NextDelay(attempt)
	})

	return Do(wrapped, &cfg)
}

// backoffFunc adapts a function to the BackoffStrategy interface
type backoffFunc func(attempt int) time.Duration

func (f backoffFunc) NextDelay(attempt int) time.Duration { return f(attempt) }

func (f backoffFunc) Reset() {}
