//go:build !js_eval

package lightstate

// JSSelector is unavailable without the js_eval build tag.
func JSSelector(expression string, opts ...SelectorOption) (Selector[any], error) {
	_ = applySelectorOptions(opts)
	return nil, wrapSelectorError("js", expression, ErrSelectorUnavailable)
}

func jsSelectorAvailable() bool {
	return false
}
