package lightstate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type todoView struct {
	List1   []string `json:"list1"`
	Loading bool     `json:"loading"`
}

func todoState() State {
	return State{
		"list1":   []any{"My first todo", "Second"},
		"list2":   []any{},
		"loading": false,
		"title":   "todos",
	}
}

func upperRegistry(t *testing.T) *FunctionRegistry {
	t.Helper()
	registry := NewFunctionRegistry()
	if err := registry.Register("upper", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("upper expects one argument")
		}
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry
}

func TestKeysAndFieldSelectors(t *testing.T) {
	state := todoState()

	picked, err := Keys("list1", "missing")(state, "todos")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(picked) != 1 || picked["list1"] == nil {
		t.Fatalf("unexpected picked keys: %v", picked)
	}

	loading, err := Field[bool]("loading")(state, "todos")
	if err != nil || loading {
		t.Fatalf("expected loading=false, got %v err=%v", loading, err)
	}
	if _, err := Field[int]("title")(state, "todos"); err == nil {
		t.Fatalf("expected type mismatch error")
	}
	missing, err := Field[int]("nope")(state, "todos")
	if err != nil || missing != 0 {
		t.Fatalf("expected zero value for missing key, got %v err=%v", missing, err)
	}
}

func TestStructSelectors(t *testing.T) {
	view, err := Struct[todoView]()(todoState(), "todos")
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	if len(view.List1) != 2 || view.List1[0] != "My first todo" || view.Loading {
		t.Fatalf("unexpected decoded view: %+v", view)
	}

	if _, err := StrictStruct[todoView]()(todoState(), "todos"); err == nil {
		t.Fatalf("expected strict decode to reject undeclared keys")
	}
}

func TestExprSelector(t *testing.T) {
	selector, err := ExprSelector(`{"count": len(list1) + len(list2), "busy": loading, "owner": name}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := selector(todoState(), "todos")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", out)
	}
	if got["count"] != 2 || got["busy"] != false || got["owner"] != "todos" {
		t.Fatalf("unexpected projection: %v", got)
	}
}

func TestExprSelectorFunctionsAndCache(t *testing.T) {
	cache := NewProgramCache()
	opts := []SelectorOption{WithSelectorFunctions(upperRegistry(t)), WithProgramCache(cache)}

	first, err := ExprSelector(`upper(title)`, opts...)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := ExprSelector(`upper(title)`, opts...); err != nil {
		t.Fatalf("compile cached: %v", err)
	}
	out, err := first(todoState(), "todos")
	if err != nil || out != "TODOS" {
		t.Fatalf("expected TODOS, got %v err=%v", out, err)
	}
}

func TestExprSelectorErrors(t *testing.T) {
	if _, err := ExprSelector("  "); !IsBadInput(err) {
		t.Fatalf("expected bad input for empty expression, got %v", err)
	}
	if _, err := ExprSelector("list1 +"); err == nil {
		t.Fatalf("expected compile error")
	}

	selector, err := ExprSelector(`list1[10]`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err = selector(todoState(), "todos")
	var selErr *SelectorError
	if !errors.As(err, &selErr) || selErr.Engine != "expr" {
		t.Fatalf("expected SelectorError, got %v", err)
	}
}

func TestCELSelector(t *testing.T) {
	selector, err := CELSelector(`size(list1) > 1 && !loading && name == "todos"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := selector(todoState(), "todos")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != true {
		t.Fatalf("expected true, got %v", out)
	}

	out, err = selector(State{"list1": []any{}, "loading": false}, "todos")
	if err != nil || out != false {
		t.Fatalf("expected false for a new key set, got %v err=%v", out, err)
	}
}

func TestCELSelectorReturnsNativeCollections(t *testing.T) {
	selector, err := CELSelector(`{"first": state.list1[0], "total": size(list1)}`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := selector(todoState(), "todos")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected native map, got %T", out)
	}
	if got["first"] != "My first todo" || got["total"] != int64(2) {
		t.Fatalf("unexpected projection: %v", got)
	}
}

func TestCELSelectorCallsRegistry(t *testing.T) {
	selector, err := CELSelector(`call("upper", [title])`, WithSelectorFunctions(upperRegistry(t)))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := selector(todoState(), "todos")
	if err != nil || out != "TODOS" {
		t.Fatalf("expected TODOS, got %v err=%v", out, err)
	}
}

func TestCELSelectorSkipsUndeclarableKeys(t *testing.T) {
	selector, err := CELSelector(`state["odd-key"] + 1`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := selector(State{"odd-key": int64(1), "in": true}, "x")
	if err != nil || out != int64(2) {
		t.Fatalf("expected 2, got %v err=%v", out, err)
	}
}

func TestCELSelectorSyntaxErrorAtBuild(t *testing.T) {
	if _, err := CELSelector(`size(`); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestAsNarrowsExpressionSelectors(t *testing.T) {
	selector, err := ExprSelector(`loading`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	busy := As[bool](selector)
	got, err := busy(State{"loading": true}, "todos")
	if err != nil || !got {
		t.Fatalf("expected true, got %v err=%v", got, err)
	}
	if _, err := As[int](selector)(State{"loading": true}, "todos"); err == nil {
		t.Fatalf("expected type mismatch")
	}
}

func TestExpressionSelectorDrivesWatcher(t *testing.T) {
	c, _ := newWatchedContainer(t, todoState())
	selector, err := ExprSelector(`len(list1)`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var counts []int
	w := NewWatcher(c, As[int](selector), WithNotify(func(n int) { counts = append(counts, n) }))
	initial, err := w.Activate()
	if err != nil || initial != 2 {
		t.Fatalf("expected initial 2, got %d err=%v", initial, err)
	}

	ctx := context.Background()
	_, _ = c.SetState(ctx, Patch{"loading": true})
	_, _ = c.SetState(ctx, Patch{"list1": []any{"a", "b", "c"}})
	if len(counts) != 1 || counts[0] != 3 {
		t.Fatalf("expected a single notification with 3, got %v", counts)
	}
}

func TestFunctionRegistryRejectsDuplicates(t *testing.T) {
	registry := upperRegistry(t)
	if err := registry.Register("UPPER", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected missing function error")
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "upper" {
		t.Fatalf("unexpected names: %v", names)
	}
}
