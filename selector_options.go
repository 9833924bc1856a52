package lightstate

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ProgramCache stores compiled selector programs keyed by engine and
// expression. Share one cache between selectors built from the same
// expressions to compile them once.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type memoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewProgramCache returns an unbounded in-process ProgramCache.
func NewProgramCache() ProgramCache {
	return &memoryProgramCache{programs: map[string]any{}}
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}

// SelectorOption configures an expression selector.
type SelectorOption func(*selectorConfig)

type selectorConfig struct {
	registry *FunctionRegistry
	cache    ProgramCache
	logger   Logger
}

func applySelectorOptions(opts []SelectorOption) selectorConfig {
	cfg := selectorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithSelectorFunctions exposes the functions of registry to the expression.
// The registry is cloned.
func WithSelectorFunctions(registry *FunctionRegistry) SelectorOption {
	return func(cfg *selectorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithSelectorFunction registers a single helper.
func WithSelectorFunction(name string, fn Function) SelectorOption {
	return func(cfg *selectorConfig) {
		if cfg.registry == nil {
			cfg.registry = NewFunctionRegistry()
		}
		_ = cfg.registry.Register(name, fn)
	}
}

func WithProgramCache(cache ProgramCache) SelectorOption {
	return func(cfg *selectorConfig) {
		cfg.cache = cache
	}
}

// WithSelectorLogger logs every evaluation at debug level.
func WithSelectorLogger(logger Logger) SelectorOption {
	return func(cfg *selectorConfig) {
		cfg.logger = logger
	}
}

func (cfg selectorConfig) logEvaluation(engine, expression, name string, started time.Time, err error) {
	if cfg.logger == nil {
		return
	}
	args := []any{"engine", engine, "expr", expression, "container", name, "duration", time.Since(started)}
	if err != nil {
		args = append(args, "error", err)
	}
	cfg.logger.Debug("lightstate: selector evaluated", args...)
}

// SelectorError carries the engine and expression of a failed expression
// selector.
type SelectorError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *SelectorError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("lightstate: %s selector %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *SelectorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapSelectorError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	var selErr *SelectorError
	if errors.As(err, &selErr) {
		return err
	}
	return &SelectorError{Engine: engine, Expr: expr, Err: err}
}

// selectorEnv exposes the whole state as state, the container name as name,
// each top-level key as a variable and the registry functions. State keys
// win over the built-in names.
func selectorEnv(state State, name string, registry *FunctionRegistry) map[string]any {
	env := map[string]any{
		"state": state,
		"name":  name,
	}
	if registry != nil {
		env["call"] = func(fn string, arguments ...any) (any, error) {
			return registry.Call(fn, arguments...)
		}
		for _, fnName := range registry.Names() {
			fn := fnName
			env[fn] = func(arguments ...any) (any, error) {
				return registry.Call(fn, arguments...)
			}
		}
	}
	for key, value := range state {
		env[key] = value
	}
	return env
}

// As narrows a Selector[any], such as an expression selector, to P. A nil
// result yields the zero value; any other type mismatch is an error.
func As[P any](selector Selector[any]) Selector[P] {
	if selector == nil {
		return nil
	}
	return func(state State, name string) (P, error) {
		var zero P
		raw, err := selector(state, name)
		if err != nil || raw == nil {
			return zero, err
		}
		value, ok := raw.(P)
		if !ok {
			return zero, fmt.Errorf("lightstate: selector returned %T, not %T", raw, zero)
		}
		return value, nil
	}
}
