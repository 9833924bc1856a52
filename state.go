package lightstate

import (
	"sort"

	"github.com/goliatone/go-lightstate/internal/clone"
)

// State is the opaque state blob held by a Container. Merges are shallow and
// no shape is enforced.
type State = map[string]any

// Callback receives the value committed by a write.
type Callback[T any] func(T)

// Merge returns a new State with patch applied shallowly on top of base.
// Neither argument is modified.
func Merge(base State, patch Patch) State {
	out := make(State, len(base)+len(patch))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range patch {
		out[key] = value
	}
	return out
}

// Clone deep copies a State.
func Clone(state State) State {
	if state == nil {
		return nil
	}
	return clone.Of(state)
}

func sortedKeys(state map[string]any) []string {
	if len(state) == 0 {
		return nil
	}
	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
