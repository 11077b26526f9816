package phpserialize

import (
	"reflect"
)

// EnumMember is one declared member of an enum shape.
type EnumMember struct {
	Name  string
	Value int64
}

// Enum is implemented by integer types that behave like PHP backed enums.
// Decoding matches a string token against member names and a numeric token
// against member values; encoding writes the value or, with
// WithNumericEnums(false), the member name.
type Enum interface {
	PhpEnumMembers() []EnumMember
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// isEnumShape reports whether t is an integer type implementing Enum.
func isEnumShape(t reflect.Type) bool {
	if !t.Implements(enumType) {
		return false
	}
	return isIntKind(t.Kind()) || isUintKind(t.Kind())
}

func enumMembers(t reflect.Type) []EnumMember {
	return reflect.Zero(t).Interface().(Enum).PhpEnumMembers()
}

func memberByName(members []EnumMember, name string) (EnumMember, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

func memberByValue(members []EnumMember, value int64) (EnumMember, bool) {
	for _, m := range members {
		if m.Value == value {
			return m, true
		}
	}
	return EnumMember{}, false
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
