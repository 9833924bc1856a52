package lightstate

import (
	"math"
	"reflect"
)

// ShallowEqual reports whether a and b are the same value or, for maps,
// slices, arrays and structs (or pointers to structs), whether their elements
// or fields are identical one level deep. Nested containers are compared by
// identity, not content.
//
// Functions are never equal unless both are nil. NaN is identical to NaN.
func ShallowEqual(a, b any) bool {
	if identicalValues(a, b) {
		return true
	}
	return shallow(reflect.ValueOf(a), reflect.ValueOf(b))
}

func identicalValues(a, b any) bool {
	return identical(reflect.ValueOf(a), reflect.ValueOf(b))
}

// identical is reference equality: containers compare by address, scalars by
// value.
func identical(a, b reflect.Value) bool {
	for a.IsValid() && a.Kind() == reflect.Interface {
		if a.IsNil() {
			a = reflect.Value{}
			break
		}
		a = a.Elem()
	}
	for b.IsValid() && b.Kind() == reflect.Interface {
		if b.IsNil() {
			b = reflect.Value{}
			break
		}
		b = b.Elem()
	}
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		x, y := a.Float(), b.Float()
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !identical(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !identical(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	}
	return false
}

func shallow(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() || a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			other := b.MapIndex(iter.Key())
			if !other.IsValid() || !identical(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !identical(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return false
		}
		if a.Elem().Kind() != reflect.Struct {
			return false
		}
		return identical(a.Elem(), b.Elem())
	}
	return false
}
