package lightstate

import (
	"strings"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprSelector compiles an expr-lang expression into a selector. The
// expression sees every top-level state key as a variable, plus state, name
// and any registered functions:
//
//	ExprSelector(`len(list1) + len(list2)`)
//	ExprSelector(`{"count": len(list1), "busy": loading}`)
//
// Unknown variables evaluate to nil instead of failing compilation.
func ExprSelector(expression string, opts ...SelectorOption) (Selector[any], error) {
	if strings.TrimSpace(expression) == "" {
		return nil, badInput("expression must not be empty")
	}
	cfg := applySelectorOptions(opts)
	program, err := compileExpr(expression, cfg)
	if err != nil {
		return nil, err
	}

	return func(state State, name string) (any, error) {
		started := time.Now()
		result, err := exprlang.Run(program, selectorEnv(state, name, cfg.registry))
		cfg.logEvaluation("expr", expression, name, started, err)
		if err != nil {
			return nil, wrapSelectorError("expr", expression, err)
		}
		return result, nil
	}, nil
}

func compileExpr(expression string, cfg selectorConfig) (*exprvm.Program, error) {
	key := "expr:" + strings.Join(cfg.registry.Names(), ",") + ":" + expression
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if cfg.registry != nil {
		for _, name := range cfg.registry.Names() {
			fn := name
			options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
				return cfg.registry.Call(fn, arguments...)
			}))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapSelectorError("expr", expression, err)
	}
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
	return program, nil
}
