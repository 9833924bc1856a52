//go:build js_eval

package lightstate

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// JSSelector compiles a JavaScript expression, evaluated with goja, into a
// selector. The environment matches ExprSelector. Each evaluation runs in a
// fresh runtime since goja runtimes are not safe for concurrent use.
func JSSelector(expression string, opts ...SelectorOption) (Selector[any], error) {
	if strings.TrimSpace(expression) == "" {
		return nil, badInput("expression must not be empty")
	}
	cfg := applySelectorOptions(opts)
	program, err := compileJS(expression, cfg)
	if err != nil {
		return nil, err
	}

	return func(state State, name string) (any, error) {
		started := time.Now()
		result, err := runJS(program, selectorEnv(state, name, cfg.registry))
		cfg.logEvaluation("js", expression, name, started, err)
		if err != nil {
			return nil, wrapSelectorError("js", expression, err)
		}
		return result, nil
	}, nil
}

func compileJS(expression string, cfg selectorConfig) (*goja.Program, error) {
	key := "js:" + expression
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapJSExpression(expression), false)
	if err != nil {
		return nil, wrapSelectorError("js", expression, err)
	}
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
	return program, nil
}

func runJS(program *goja.Program, env map[string]any) (any, error) {
	vm := goja.New()
	for key, value := range env {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsSelectorAvailable() bool {
	return true
}
