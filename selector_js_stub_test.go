//go:build !js_eval

package lightstate

import (
	"errors"
	"testing"
)

func TestJSSelectorUnavailableWithoutTag(t *testing.T) {
	_, err := JSSelector(`1 + 1`)
	if !errors.Is(err, ErrSelectorUnavailable) {
		t.Fatalf("expected ErrSelectorUnavailable, got %v", err)
	}
	if jsSelectorAvailable() {
		t.Fatalf("expected js selector unavailable")
	}
}
