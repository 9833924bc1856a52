//go:build js_eval

package lightstate

import "testing"

func TestJSSelector(t *testing.T) {
	selector, err := JSSelector(`list1.length + (loading ? 100 : 0)`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := selector(todoState(), "todos")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out != int64(2) {
		t.Fatalf("expected 2, got %v (%T)", out, out)
	}
	if !jsSelectorAvailable() {
		t.Fatalf("expected js selector available")
	}
}
