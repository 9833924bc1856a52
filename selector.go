package lightstate

import (
	"fmt"

	"github.com/goliatone/go-lightstate/internal/decode"
)

// Selector projects the container state into the value a consumer renders.
// Selectors should be deterministic and free of side effects; they run on
// every write.
type Selector[P any] func(state State, name string) (P, error)

// Identity returns the full state. It is the default projection.
func Identity(state State, _ string) (State, error) {
	return state, nil
}

// Keys projects the named top-level keys into a new map. Missing keys are
// omitted.
func Keys(keys ...string) Selector[State] {
	picked := append([]string{}, keys...)
	return func(state State, _ string) (State, error) {
		out := make(State, len(picked))
		for _, key := range picked {
			if value, ok := state[key]; ok {
				out[key] = value
			}
		}
		return out, nil
	}
}

// Field projects a single top-level key as P. A missing key yields the zero
// value; a value of another type is an error.
func Field[P any](key string) Selector[P] {
	return func(state State, name string) (P, error) {
		var zero P
		raw, ok := state[key]
		if !ok || raw == nil {
			return zero, nil
		}
		value, ok := raw.(P)
		if !ok {
			return zero, fmt.Errorf("lightstate: field %q of %q is %T, not %T", key, name, raw, zero)
		}
		return value, nil
	}
}

// Struct decodes the state into T through its json tags.
func Struct[T any]() Selector[T] {
	return decodeSelector(decode.New[T]())
}

// StrictStruct is Struct but fails on state keys T does not declare.
func StrictStruct[T any]() Selector[T] {
	return decodeSelector(decode.New[T](decode.WithDisallowUnknownFields[T]()))
}

func decodeSelector[T any](decoder *decode.Decoder[T]) Selector[T] {
	return func(state State, name string) (T, error) {
		return decoder.Decode(name, state)
	}
}

func safeSelect[P any](selector Selector[P], state State, name string) (value P, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lightstate: selector panicked: %v", r)
		}
	}()
	return selector(state, name)
}
