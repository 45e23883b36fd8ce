package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

// ErrTimeout is returned when a bounded call does not finish in time.
var ErrTimeout = errors.New("host call timed out")

// Task represents a unit of work processed by a Sequence.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Sequence runs tasks one at a time, in input order, each under an optional
// deadline. The document host is a single shared mutable tree, so calls
// against it are never issued concurrently.
type Sequence[T any, R any] struct {
	timeout time.Duration
	process ProcessFunc[T, R]
}

// NewSequence creates a runner. A zero timeout waits indefinitely.
func NewSequence[T any, R any](timeout time.Duration, fn ProcessFunc[T, R]) *Sequence[T, R] {
	return &Sequence[T, R]{
		timeout: timeout,
		process: fn,
	}
}

// Execute processes inputs in order. A failed or timed-out task is recorded
// and the batch continues; cancellation of ctx stops before the next task
// and returns only the tasks that ran.
func (s *Sequence[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], 0, len(inputs))
	for idx, in := range inputs {
		if ctx.Err() != nil {
			log.Warn().Int("done", idx).Int("total", len(inputs)).Msg("Sequence cancelled")
			break
		}
		result, err := Bounded(ctx, s.timeout, func(ctx context.Context) (R, error) {
			return s.process(ctx, in)
		})
		if err != nil {
			log.Error().Err(err).Int("index", idx).Msg("Task failed")
		}
		results = append(results, Task[T, R]{Input: in, Result: result, Err: err})
	}
	return results
}

// Bounded calls fn and waits at most timeout for it. A panic inside fn is
// converted to an error. With a zero timeout fn runs on the calling
// goroutine. On timeout the call is abandoned: fn keeps running in the
// background and its result is discarded.
func Bounded[R any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (R, error)) (R, error) {
	if timeout <= 0 {
		return call(ctx, fn)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		r   R
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := call(cctx, fn)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		return o.r, o.err
	case <-cctx.Done():
		var zero R
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// BoundedSettle is Bounded for calls that change state. On timeout or
// cancellation it still waits for fn to return, so nothing else runs
// against the host meanwhile, and passes a late successful result to
// settle for undoing. fn's context is cancelled at the deadline.
func BoundedSettle[R any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (R, error), settle func(R)) (R, error) {
	if timeout <= 0 {
		return call(ctx, fn)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := call(cctx, fn)
	if cctx.Err() == nil {
		return r, err
	}

	var zero R
	if err == nil {
		log.Warn().Dur("timeout", timeout).Msg("Late host result discarded")
		settle(r)
	}
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
}

func call[R any](ctx context.Context, fn func(ctx context.Context) (R, error)) (r R, err error) {
	recovered := panics.Try(func() {
		r, err = fn(ctx)
	})
	if recovered != nil {
		var zero R
		return zero, fmt.Errorf("host call panicked: %w", recovered.AsError())
	}
	return r, err
}
