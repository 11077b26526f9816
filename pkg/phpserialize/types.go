package phpserialize

import (
	"fmt"
	"math"
	"strconv"
)

// Type represents the type of a dynamically decoded PHP value.
type Type uint8

const (
	TypeNull Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeList
	TypeMap
	TypeObject
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeObject:
		return "object"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Value is the dynamic result of decoding without a static target: one of
// null, bool, int, float, string, list, ordered map or object.
type Value struct {
	typ  Type
	data interface{}
}

// Null and the scalar constructors below wrap a PHP primitive.
func Null() Value {
	return Value{typ: TypeNull}
}

func Bool(b bool) Value {
	return Value{typ: TypeBool, data: b}
}

func Int(n int64) Value {
	return Value{typ: TypeInt, data: n}
}

func Float(f float64) Value {
	return Value{typ: TypeFloat, data: f}
}

func String(s string) Value {
	return Value{typ: TypeString, data: s}
}

// List wraps an array whose keys are 0..n-1. A nil slice becomes an empty list.
func List(elements []Value) Value {
	if elements == nil {
		elements = []Value{}
	}
	return Value{typ: TypeList, data: elements}
}

// MapValue wraps an ordered array; nil means empty.
func MapValue(m *OrderedMap) Value {
	if m == nil {
		m = NewOrderedMap(0)
	}
	return Value{typ: TypeMap, data: m}
}

// ObjectValue wraps an object; nil becomes an empty stdClass.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject(StdClass)
	}
	return Value{typ: TypeObject, data: o}
}

// Type returns the PHP type of this value.
func (v Value) Type() Type {
	return v.typ
}

// The Is* predicates report the variant held by v.
func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

func (v Value) IsBool() bool {
	return v.typ == TypeBool
}

func (v Value) IsInt() bool {
	return v.typ == TypeInt
}

func (v Value) IsFloat() bool {
	return v.typ == TypeFloat
}

func (v Value) IsNumber() bool {
	return v.typ == TypeInt || v.typ == TypeFloat
}

func (v Value) IsString() bool {
	return v.typ == TypeString
}

func (v Value) IsList() bool {
	return v.typ == TypeList
}

func (v Value) IsMap() bool {
	return v.typ == TypeMap
}

func (v Value) IsObject() bool {
	return v.typ == TypeObject
}

// AsBool unwraps the boolean value; v must hold a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("phpserialize: Value.AsBool: expected bool, got %s", v.typ))
	}
	return v.data.(bool)
}

// AsInt unwraps the int64 value; v must hold an int.
func (v Value) AsInt() int64 {
	if v.typ != TypeInt {
		panic(fmt.Sprintf("phpserialize: Value.AsInt: expected int, got %s", v.typ))
	}
	return v.data.(int64)
}

// AsFloat unwraps the float64 value; v must hold a float.
func (v Value) AsFloat() float64 {
	if v.typ != TypeFloat {
		panic(fmt.Sprintf("phpserialize: Value.AsFloat: expected float, got %s", v.typ))
	}
	return v.data.(float64)
}

// AsNumber widens an int or float to float64.
func (v Value) AsNumber() float64 {
	switch v.typ {
	case TypeInt:
		return float64(v.data.(int64))
	case TypeFloat:
		return v.data.(float64)
	default:
		panic(fmt.Sprintf("phpserialize: Value.AsNumber: expected number, got %s", v.typ))
	}
}

// AsString unwraps the string value; v must hold a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("phpserialize: Value.AsString: expected string, got %s", v.typ))
	}
	return v.data.(string)
}

// AsList unwraps the list elements; v must hold a list.
func (v Value) AsList() []Value {
	if v.typ != TypeList {
		panic(fmt.Sprintf("phpserialize: Value.AsList: expected list, got %s", v.typ))
	}
	return v.data.([]Value)
}

// AsMap unwraps the ordered map; v must hold a map.
func (v Value) AsMap() *OrderedMap {
	if v.typ != TypeMap {
		panic(fmt.Sprintf("phpserialize: Value.AsMap: expected map, got %s", v.typ))
	}
	return v.data.(*OrderedMap)
}

// AsObject unwraps the object; v must hold an object.
func (v Value) AsObject() *Object {
	if v.typ != TypeObject {
		panic(fmt.Sprintf("phpserialize: Value.AsObject: expected object, got %s", v.typ))
	}
	return v.data.(*Object)
}

// Len returns the number of elements of a list, map or object, and 0 otherwise.
func (v Value) Len() int {
	switch v.typ {
	case TypeList:
		return len(v.data.([]Value))
	case TypeMap:
		return v.data.(*OrderedMap).Len()
	case TypeObject:
		return v.data.(*Object).Len()
	}
	return 0
}

// Interface returns the payload, nil for null.
func (v Value) Interface() interface{} {
	if v.typ == TypeNull {
		return nil
	}
	return v.data
}

// Equal reports whether two values are deeply equal. NaN equals NaN and
// maps compare in order.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeNull:
		return true
	case TypeFloat:
		a, b := v.AsFloat(), other.AsFloat()
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}
		return a == b
	case TypeList:
		a, b := v.AsList(), other.AsList()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		return v.AsMap().Equal(other.AsMap())
	case TypeObject:
		return v.AsObject().Equal(other.AsObject())
	default:
		return v.data == other.data
	}
}

// GoString renders a short debug form.
func (v Value) GoString() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBool:
		return strconv.FormatBool(v.data.(bool))
	case TypeInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.data.(float64), 'g', -1, 64)
	case TypeString:
		return strconv.Quote(v.data.(string))
	case TypeList:
		return fmt.Sprintf("List[%d]", len(v.data.([]Value)))
	case TypeMap:
		return fmt.Sprintf("Map{%d entries}", v.data.(*OrderedMap).Len())
	case TypeObject:
		o := v.data.(*Object)
		return fmt.Sprintf("%s{%d properties}", o.ClassName(), o.Len())
	default:
		return fmt.Sprintf("%s(%v)", v.typ, v.data)
	}
}

// keyString renders a scalar value the way PHP uses it as an array key.
func (v Value) keyString() string {
	switch v.typ {
	case TypeNull:
		return ""
	case TypeBool:
		if v.data.(bool) {
			return "1"
		}
		return "0"
	case TypeInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.data.(float64), 'g', -1, 64)
	case TypeString:
		return v.data.(string)
	default:
		return v.GoString()
	}
}
