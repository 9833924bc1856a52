package decode

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type todos struct {
	List1   []string `json:"list1"`
	List2   []string `json:"list2"`
	Loading bool     `json:"loading"`
}

func TestDecodeIntoStruct(t *testing.T) {
	got, err := New[todos]().Decode("todos", map[string]any{
		"list1":   []any{"My first todo"},
		"list2":   []any{},
		"loading": true,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.List1) != 1 || got.List1[0] != "My first todo" || !got.Loading {
		t.Fatalf("unexpected decoded value: %+v", got)
	}
}

func TestDecodeNilStateYieldsZero(t *testing.T) {
	got, err := New[todos]().Decode("todos", nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Loading || got.List1 != nil {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestDecodeDisallowUnknownFields(t *testing.T) {
	_, err := New(WithDisallowUnknownFields[todos]()).Decode("todos", map[string]any{"other": 1})
	if err == nil || !strings.Contains(err.Error(), `decode: state for "todos"`) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestDecodeUseNumber(t *testing.T) {
	type counter struct {
		Count any `json:"count"`
	}
	got, err := New(WithUseNumber[counter]()).Decode("counter", map[string]any{"count": 3})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.Count.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", got.Count)
	}
}

func TestDecodePostHookError(t *testing.T) {
	boom := errors.New("boom")
	decoder := New(WithPostHook(func(name string, v *todos) error {
		if v.Loading {
			return boom
		}
		return nil
	}))
	_, err := decoder.Decode("todos", map[string]any{"loading": true})
	if !errors.Is(err, boom) {
		t.Fatalf("expected post-hook error, got %v", err)
	}
}
