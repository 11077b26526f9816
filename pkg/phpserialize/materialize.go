package phpserialize

import (
	"strconv"

	"github.com/acolita/phpwire/internal/wire"
)

// Materialize converts a token tree into a dynamic Value. It honors the
// ListPromotion and StdClass options; NumericStringToBool does not apply here.
func Materialize(tok *Token, opts ...Option) (Value, error) {
	return materialize(tok, newDecodeOptions(opts))
}

func materialize(tok *Token, o DecodeOptions) (Value, error) {
	switch tok.Kind {
	case KindNull:
		return Null(), nil
	case KindBool:
		return Bool(tok.Raw == "1"), nil
	case KindInt:
		n, err := parseIntToken(tok)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case KindFloat:
		f, err := parseFloatToken(tok)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case KindString:
		return String(tok.Raw), nil
	case KindArray:
		return materializeArray(tok, o)
	case KindObject:
		return materializeObject(tok, o)
	}
	return Value{}, &BindingError{Shape: "Value", Value: tok.Literal(), Pos: tok.Pos, Msg: "unknown token kind"}
}

func parseIntToken(tok *Token) (int64, error) {
	n, err := strconv.ParseInt(tok.Raw, 10, 64)
	if err != nil {
		return 0, &BindingError{Shape: "int64", Value: tok.Raw, Pos: tok.Pos, Msg: "integer out of range", Cause: err}
	}
	return n, nil
}

func parseFloatToken(tok *Token) (float64, error) {
	f, err := wire.ParseFloat(tok.Raw)
	if err != nil {
		return 0, &BindingError{Shape: "float64", Value: tok.Raw, Pos: tok.Pos, Cause: err}
	}
	return f, nil
}

func materializeArray(tok *Token, o DecodeOptions) (Value, error) {
	if isList(tok, o.ListPromotion) {
		elems := make([]Value, len(tok.Children))
		for i, p := range tok.Children {
			v, err := materialize(p.Value, o)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return List(elems), nil
	}

	m := NewOrderedMap(len(tok.Children))
	for _, p := range tok.Children {
		k, err := materialize(p.Key, o)
		if err != nil {
			return Value{}, err
		}
		v, err := materialize(p.Value, o)
		if err != nil {
			return Value{}, err
		}
		m.Set(k, v)
	}
	return MapValue(m), nil
}

// isList applies the list promotion policy to an array token.
func isList(tok *Token, policy ListPromotion) bool {
	if policy == ListNever {
		return false
	}
	for i, p := range tok.Children {
		if p.Key.Kind != KindInt {
			return false
		}
		if policy == ListOnConsecutiveKeys && p.Key.Raw != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

func materializeObject(tok *Token, o DecodeOptions) (Value, error) {
	if tok.Raw == StdClass {
		switch o.StdClass {
		case StdClassThrow:
			return Value{}, &UnsupportedStdClassError{Pos: tok.Pos}
		case StdClassToMap:
			m := NewOrderedMap(len(tok.Children))
			for _, p := range tok.Children {
				v, err := materialize(p.Value, o)
				if err != nil {
					return Value{}, err
				}
				m.Set(String(p.Key.Raw), v)
			}
			return MapValue(m), nil
		}
	}

	obj := NewObject(tok.Raw)
	for _, p := range tok.Children {
		v, err := materialize(p.Value, o)
		if err != nil {
			return Value{}, err
		}
		obj.Set(p.Key.Raw, v)
	}
	return ObjectValue(obj), nil
}

// ToGo converts a Value to its closest Go equivalent:
//   - null → nil
//   - bool → bool
//   - int → int64
//   - float → float64
//   - string → string
//   - list → []interface{}
//   - map → map[string]interface{} (keys in their PHP string form)
//   - object → map[string]interface{}
func ToGo(v Value) interface{} {
	switch v.Type() {
	case TypeNull:
		return nil
	case TypeList:
		list := v.AsList()
		result := make([]interface{}, len(list))
		for i, e := range list {
			result[i] = ToGo(e)
		}
		return result
	case TypeMap:
		m := v.AsMap()
		result := make(map[string]interface{}, m.Len())
		for _, e := range m.Entries() {
			result[e.Key.keyString()] = ToGo(e.Value)
		}
		return result
	case TypeObject:
		obj := v.AsObject()
		result := make(map[string]interface{}, obj.Len())
		for _, p := range obj.Properties() {
			result[p.Name] = ToGo(p.Value)
		}
		return result
	default:
		return v.Interface()
	}
}
