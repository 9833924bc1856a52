// Package decode converts untyped state maps into typed structs for selectors
// that want a struct view of container state.
package decode

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PostHook lets callers adjust or validate the decoded struct.
type PostHook[T any] func(name string, value *T) error

// Option configures a Decoder instance.
type Option[T any] func(*Decoder[T])

// Decoder converts state maps into values of type T through a JSON round trip.
type Decoder[T any] struct {
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) Option[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber enables json.Decoder.UseNumber during decoding.
func WithUseNumber[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithDisallowUnknownFields invokes json.Decoder.DisallowUnknownFields.
func WithDisallowUnknownFields[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// New builds a Decoder.
func New[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts state into T. A nil state decodes into the zero value.
func (d *Decoder[T]) Decode(name string, state map[string]any) (T, error) {
	var result T
	if state == nil {
		return result, nil
	}

	buffer, err := json.Marshal(state)
	if err != nil {
		return result, fmt.Errorf("decode: marshal state for %q: %w", name, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configureDec {
		configure(decoder)
	}
	if err := decoder.Decode(&result); err != nil {
		var zero T
		return zero, fmt.Errorf("decode: state for %q: %w", name, err)
	}

	for _, hook := range d.postHooks {
		if err := hook(name, &result); err != nil {
			var zero T
			return zero, fmt.Errorf("decode: post-hook for %q failed: %w", name, err)
		}
	}
	return result, nil
}
