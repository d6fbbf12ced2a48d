package condition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dmitrymomot/authzkit/pkg/cache"
	"github.com/dmitrymomot/authzkit/pkg/restriction"
)

const (
	// DefaultTimeout bounds a single expression evaluation. Permission
	// documents may originate from less-trusted administrators; a
	// malformed expression must not hang the decision path.
	DefaultTimeout = 100 * time.Millisecond

	defaultProgramCacheSize = 512
)

// Evaluator compiles and runs condition expressions against a fixed
// variable scope. It is safe for concurrent use.
type Evaluator struct {
	clock    restriction.Clock
	timeout  time.Duration
	programs *cache.LRU[string, *vm.Program]
	hostname string
	envTag   string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock injects the time source used for the time helpers.
func WithClock(clock restriction.Clock) Option {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithTimeout sets the per-expression evaluation budget.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithEnvironmentTag sets the deployment tag exposed as env.environment.
func WithEnvironmentTag(tag string) Option {
	return func(e *Evaluator) { e.envTag = tag }
}

// WithProgramCacheSize sets the compiled-program cache capacity.
func WithProgramCacheSize(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.programs = cache.NewLRU[string, *vm.Program](n)
		}
	}
}

// New creates an Evaluator with system clock and default budget.
func New(opts ...Option) *Evaluator {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	e := &Evaluator{
		clock:    restriction.SystemClock{},
		timeout:  DefaultTimeout,
		programs: cache.NewLRU[string, *vm.Program](defaultProgramCacheSize),
		hostname: hostname,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the expression against the given snapshots. An empty
// expression evaluates to true (no condition configured). Any fault
// (compile error, runtime error, non-boolean result, exceeded budget)
// returns false together with the cause.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, env Env) (bool, error) {
	if expression == "" {
		return true, nil
	}

	program, err := e.programs.GetOrCompute(expression, func() (*vm.Program, error) {
		p, err := expr.Compile(expression, expr.AsBool())
		if err != nil {
			return nil, errors.Join(ErrCompile, err)
		}
		return p, nil
	})
	if err != nil {
		return false, err
	}

	value, err := e.run(ctx, program, e.scope(env))
	if err != nil {
		return false, err
	}

	result, ok := value.(bool)
	if !ok {
		return false, errors.Join(ErrNotBoolean, fmt.Errorf("expression yielded %T", value))
	}
	return result, nil
}

// run executes a compiled program under the evaluation budget. The
// program itself cannot block on I/O, so the goroutine always finishes;
// the timer only caps pathological CPU-bound expressions.
func (e *Evaluator) run(ctx context.Context, program *vm.Program, scope map[string]any) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Join(ErrRun, fmt.Errorf("expression panic: %v", r))}
			}
		}()
		value, err := expr.Run(program, scope)
		if err != nil {
			done <- outcome{err: errors.Join(ErrRun, err)}
			return
		}
		done <- outcome{value: value}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, errors.Join(ErrRun, ctx.Err())
	}
}
