// Package clone produces detached deep copies of state snapshots so that the
// initial state kept by a container can never be mutated through an alias.
package clone

import "reflect"

// Of returns a deep copy of value. Maps, slices, arrays, pointers and structs
// made only of exported fields are copied recursively. A struct with any
// unexported field (time.Time, big.Int, url.URL) is copied as a whole value.
// Shared and cyclic references are copied once and keep their shape.
func Of[T any](value T) T {
	var zero T
	c := cloner{seen: map[visit]reflect.Value{}}
	copied := c.value(reflect.ValueOf(value))
	if !copied.IsValid() {
		return zero
	}
	typ := reflect.TypeOf(zero)
	if typ == nil {
		// T is an interface type; the dynamic value carries the type.
		out, _ := copied.Interface().(T)
		return out
	}
	if copied.Type() != typ {
		result := reflect.New(typ).Elem()
		result.Set(copied.Convert(typ))
		return result.Interface().(T)
	}
	return copied.Interface().(T)
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type cloner struct {
	seen map[visit]reflect.Value
}

func (c cloner) value(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		clone := reflect.New(v.Type().Elem())
		c.seen[key] = clone
		clone.Elem().Set(c.value(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := c.value(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		if !exportedOnly(v.Type()) {
			return atomic(v)
		}
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			clone.Field(i).Set(c.value(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = clone
		iter := v.MapRange()
		for iter.Next() {
			value := c.value(iter.Value())
			if !value.IsValid() {
				value = reflect.Zero(v.Type().Elem())
			}
			clone.SetMapIndex(iter.Key(), value)
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		c.seen[key] = clone
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(c.value(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(c.value(v.Index(i)))
		}
		return clone
	default:
		return atomic(v)
	}
}

func atomic(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out
}

func exportedOnly(typ reflect.Type) bool {
	for i := 0; i < typ.NumField(); i++ {
		if !typ.Field(i).IsExported() {
			return false
		}
	}
	return true
}
