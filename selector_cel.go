package lightstate

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

var (
	nativeMapType  = reflect.TypeOf(map[string]any{})
	nativeListType = reflect.TypeOf([]any{})
)

// CELSelector compiles a CEL expression into a selector. Top-level state keys
// that are valid CEL identifiers are declared as dynamic variables, next to
// state (the whole map) and name. With a function registry configured,
// call("fn", [args]) invokes a registered helper.
//
// CEL needs declarations up front, so the expression is checked once per
// distinct set of state keys and the program reused while the keys stay the
// same. Syntax errors are reported when the selector is built.
func CELSelector(expression string, opts ...SelectorOption) (Selector[any], error) {
	if strings.TrimSpace(expression) == "" {
		return nil, badInput("expression must not be empty")
	}
	s := &celSelector{
		expression: expression,
		cfg:        applySelectorOptions(opts),
		programs:   map[string]celgo.Program{},
	}
	env, err := s.buildEnv(nil)
	if err != nil {
		return nil, wrapSelectorError("cel", expression, err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, wrapSelectorError("cel", expression, issues.Err())
	}
	return s.evaluate, nil
}

type celSelector struct {
	expression string
	cfg        selectorConfig

	mu       sync.Mutex
	programs map[string]celgo.Program
}

func (s *celSelector) evaluate(state State, name string) (any, error) {
	started := time.Now()
	result, err := s.run(state, name)
	s.cfg.logEvaluation("cel", s.expression, name, started, err)
	if err != nil {
		return nil, wrapSelectorError("cel", s.expression, err)
	}
	return result, nil
}

func (s *celSelector) run(state State, name string) (any, error) {
	keys := celKeys(state)
	program, err := s.program(keys)
	if err != nil {
		return nil, err
	}
	activation := map[string]any{
		"state": state,
		"name":  name,
	}
	for _, key := range keys {
		activation[key] = state[key]
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, err
	}
	return celToNative(out), nil
}

func (s *celSelector) program(keys []string) (celgo.Program, error) {
	signature := strings.Join(keys, ",")
	cacheKey := "cel:" + signature + ":" + strings.Join(s.cfg.registry.Names(), ",") + ":" + s.expression

	s.mu.Lock()
	defer s.mu.Unlock()
	if program, ok := s.programs[signature]; ok {
		return program, nil
	}
	if s.cfg.cache != nil {
		if cached, ok := s.cfg.cache.Get(cacheKey); ok {
			if program, ok := cached.(celgo.Program); ok {
				s.programs[signature] = program
				return program, nil
			}
		}
	}

	env, err := s.buildEnv(keys)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(s.expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	s.programs[signature] = program
	if s.cfg.cache != nil {
		s.cfg.cache.Set(cacheKey, program)
	}
	return program, nil
}

func (s *celSelector) buildEnv(keys []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("state", celgo.DynType),
		celgo.Variable("name", celgo.StringType),
	}
	if s.cfg.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(func(fn ref.Val) ref.Val {
					return s.call(fn, nil)
				}),
			),
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(s.call),
			),
		))
	}
	for _, key := range keys {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (s *celSelector) call(fn ref.Val, args ref.Val) ref.Val {
	name, ok := fn.Value().(string)
	if !ok {
		return types.NewErr("lightstate: call name must be a string")
	}
	var arguments []any
	if args != nil {
		native, err := args.ConvertToNative(nativeListType)
		if err != nil {
			return types.NewErr("lightstate: call arguments: %v", err)
		}
		arguments = native.([]any)
	}
	result, err := s.cfg.registry.Call(name, arguments...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

// celKeys returns the state keys that can be declared as CEL variables.
func celKeys(state State) []string {
	keys := make([]string, 0, len(state))
	for key := range state {
		if key == "state" || key == "name" || celReserved[key] || !isCELIdentifier(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var celReserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true,
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"for": true, "function": true, "if": true, "import": true, "let": true,
	"loop": true, "package": true, "namespace": true, "return": true,
	"var": true, "void": true, "while": true,
}

func isCELIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func celToNative(out ref.Val) any {
	switch out.(type) {
	case traits.Mapper:
		if native, err := out.ConvertToNative(nativeMapType); err == nil {
			return native
		}
	case traits.Lister:
		if native, err := out.ConvertToNative(nativeListType); err == nil {
			return native
		}
	}
	if out == types.NullValue {
		return nil
	}
	return out.Value()
}
