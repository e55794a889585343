package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the executor how to treat a failed call.
type Outcome struct {
	Retry bool
	Trip  bool
}

type Policy func(err error) Outcome

// NoRetry counts every failure against the breaker except cancellation and
// never repeats the call.
func NoRetry(err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{}
	}
	return Outcome{Trip: true}
}

type Executor struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn for operation under its circuit breaker.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, policy Policy) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	_, err := Call(ctx, e, operation, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call is Execute for operations that produce a value.
func Call[T any](ctx context.Context, e *Executor, operation string, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if policy == nil {
		policy = NoRetry
	}

	var result T
	attempt := func() error {
		v, err := withRetry(ctx, e, op, policy, fn)
		if err == nil {
			result = v
		}
		return err
	}

	if !e.cfg.BreakerEnabled {
		if err := attempt(); err != nil {
			return zero, err
		}
		return result, nil
	}

	breaker := e.circuitBreaker(op, policy)
	if _, err := breaker.Execute(func() (any, error) { return nil, attempt() }); err != nil {
		return zero, err
	}
	return result, nil
}

func withRetry[T any](ctx context.Context, e *Executor, operation string, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := e.cfg.RetryInitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !policy(err).Retry || attempt >= e.cfg.RetryMaxAttempts {
			return zero, err
		}

		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", float64(backoff.Microseconds())/1000.0,
			"error", err,
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
		backoff = min(backoff*2, e.cfg.RetryMaxBackoff)
	}
}

// State reports the breaker state of operation, "closed" when none exists yet.
func (e *Executor) State(operation string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if breaker, ok := e.breakers[operation]; ok {
		return breaker.State().String()
	}
	return gobreaker.StateClosed.String()
}

func (e *Executor) circuitBreaker(operation string, policy Policy) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !policy(err).Trip
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
