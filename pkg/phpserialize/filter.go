package phpserialize

import (
	"reflect"
)

// Built-in filter names usable as bare struct tag options.
const (
	FilterOmitNull  = "omitnull"
	FilterOmitEmpty = "omitempty"
)

// SlotFilter intercepts one struct slot during serialization. It returns the
// value to write in place of value, or false to drop the key/value pair.
// Filters are referenced from struct tags as filter=name and registered with
// WithSlotFilter.
type SlotFilter func(key string, value interface{}) (interface{}, bool)

var builtinFilters = map[string]SlotFilter{
	FilterOmitNull:  OmitNull,
	FilterOmitEmpty: OmitEmpty,
}

// OmitNull drops slots holding nil, a nil pointer, map, slice or interface.
func OmitNull(_ string, value interface{}) (interface{}, bool) {
	return value, !isNilValue(reflect.ValueOf(value))
}

// OmitEmpty drops slots holding the zero value of their type or an empty
// map, slice or string.
func OmitEmpty(_ string, value interface{}) (interface{}, bool) {
	return value, !isEmptyValue(reflect.ValueOf(value))
}

func lookupFilter(name string, o SerializeOptions) (SlotFilter, bool) {
	if f, ok := o.Filters[name]; ok {
		return f, true
	}
	f, ok := builtinFilters[name]
	return f, ok
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	if v.Type() == valueType {
		return v.Interface().(Value).IsNull()
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	if isNilValue(v) {
		return true
	}
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	}
	if v.Type() == valueType {
		dv := v.Interface().(Value)
		switch dv.Type() {
		case TypeList, TypeMap, TypeObject:
			return dv.Len() == 0
		}
		return isEmptyValue(reflect.ValueOf(dv.Interface()))
	}
	return v.IsZero()
}
