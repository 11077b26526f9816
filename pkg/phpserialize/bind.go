package phpserialize

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/acolita/phpwire/internal/wire"
)

var valueType = reflect.TypeOf(Value{})

// binder maps tokens onto statically known Go shapes.
type binder struct {
	opts DecodeOptions
}

func (b *binder) fail(tok *Token, t reflect.Type, msg string, cause error) error {
	return &BindingError{Shape: t.String(), Value: tok.Literal(), Pos: tok.Pos, Msg: msg, Cause: cause}
}

// bind stores tok into v, which must be settable.
func (b *binder) bind(tok *Token, v reflect.Value) error {
	t := v.Type()
	if tok.Kind == KindNull {
		v.Set(reflect.Zero(t))
		return nil
	}

	switch {
	case t == valueType:
		dv, err := materialize(tok, b.opts)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(dv))
		return nil
	case t == timeType:
		return b.bindTime(tok, v)
	case isEnumShape(t):
		return b.bindEnum(tok, v)
	}

	switch t.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(b.opts.Provider.New(t.Elem()).Addr())
		}
		return b.bind(tok, v.Elem())
	case reflect.Interface:
		return b.bindInterface(tok, v)
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return b.bindScalar(tok, v)
	case reflect.Slice:
		if tok.Kind == KindString && t.Elem().Kind() == reflect.Uint8 {
			v.SetBytes([]byte(tok.Raw))
			return nil
		}
		return b.bindList(tok, v)
	case reflect.Array:
		return b.bindList(tok, v)
	case reflect.Map:
		return b.bindMap(tok, v)
	case reflect.Struct:
		return b.bindStruct(tok, v)
	}
	return b.fail(tok, t, "unsupported shape", ErrUnsupportedType)
}

func (b *binder) bindScalar(tok *Token, v reflect.Value) error {
	t := v.Type()
	k := t.Kind()
	if tok.IsContainer() {
		return b.fail(tok, t, "expected a scalar", nil)
	}
	raw := tok.Raw

	switch tok.Kind {
	case KindString:
		if k == reflect.String {
			v.SetString(raw)
			return nil
		}
		if raw == "" && b.opts.EmptyStringToDefault {
			v.Set(reflect.Zero(t))
			return nil
		}
		if k == reflect.Bool {
			return b.bindBoolText(tok, v)
		}
	case KindBool:
		switch k {
		case reflect.Bool:
			v.SetBool(raw == "1")
			return nil
		case reflect.String:
			v.SetString(strconv.FormatBool(raw == "1"))
			return nil
		}
	}

	switch {
	case k == reflect.String:
		v.SetString(raw)
	case k == reflect.Bool:
		return b.fail(tok, t, "", nil)
	case isIntKind(k):
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return b.fail(tok, t, "", err)
		}
		v.SetInt(n)
	case isUintKind(k):
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return b.fail(tok, t, "", err)
		}
		v.SetUint(n)
	case isFloatKind(k):
		f, err := parseFloatText(raw, t.Bits())
		if err != nil {
			return b.fail(tok, t, "", err)
		}
		v.SetFloat(f)
	default:
		return b.fail(tok, t, "unsupported shape", ErrUnsupportedType)
	}
	return nil
}

// bindBoolText accepts "true"/"false" in any case, and "0"/"1" when
// NumericStringToBool is set.
func (b *binder) bindBoolText(tok *Token, v reflect.Value) error {
	switch raw := tok.Raw; {
	case b.opts.NumericStringToBool && (raw == "0" || raw == "1"):
		v.SetBool(raw == "1")
	case strings.EqualFold(raw, "true"):
		v.SetBool(true)
	case strings.EqualFold(raw, "false"):
		v.SetBool(false)
	default:
		return b.fail(tok, v.Type(), "", nil)
	}
	return nil
}

func parseFloatText(raw string, bits int) (float64, error) {
	f, err := wire.ParseFloat(raw)
	if err != nil {
		return strconv.ParseFloat(raw, bits)
	}
	if bits == 32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("%s overflows float32", raw)
	}
	return f, nil
}

func setInteger(v reflect.Value, n int64) error {
	switch {
	case isIntKind(v.Kind()):
		if v.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetInt(n)
	case isUintKind(v.Kind()):
		if n < 0 || v.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetUint(uint64(n))
	default:
		return fmt.Errorf("%s is not an integer type", v.Type())
	}
	return nil
}

func (b *binder) bindEnum(tok *Token, v reflect.Value) error {
	t := v.Type()
	members := enumMembers(t)

	var (
		m  EnumMember
		ok bool
	)
	switch tok.Kind {
	case KindString:
		if tok.Raw == "" && b.opts.EmptyStringToDefault {
			v.Set(reflect.Zero(t))
			return nil
		}
		m, ok = memberByName(members, tok.Raw)
	case KindInt:
		n, err := strconv.ParseInt(tok.Raw, 10, 64)
		if err != nil {
			return b.fail(tok, t, "", err)
		}
		m, ok = memberByValue(members, n)
	case KindFloat:
		f, err := wire.ParseFloat(tok.Raw)
		if err != nil {
			return b.fail(tok, t, "", err)
		}
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			m, ok = memberByValue(members, int64(f))
		}
	default:
		return b.fail(tok, t, "expected a member name or value", nil)
	}
	if !ok {
		return b.fail(tok, t, fmt.Sprintf("no member of enum %s matches %s", t, tok.Literal()), nil)
	}
	if err := setInteger(v, m.Value); err != nil {
		return b.fail(tok, t, "", err)
	}
	return nil
}

func (b *binder) bindList(tok *Token, v reflect.Value) error {
	t := v.Type()
	if tok.Kind != KindArray {
		return b.fail(tok, t, "expected an array", nil)
	}
	n := len(tok.Children)
	if t.Kind() == reflect.Array {
		if n > t.Len() {
			return b.fail(tok, t, fmt.Sprintf("%d elements do not fit in %d slots", n, t.Len()), nil)
		}
		v.Set(reflect.Zero(t))
	} else {
		v.Set(reflect.MakeSlice(t, n, n))
	}

	for i, p := range tok.Children {
		if p.Key.Kind != KindInt {
			return &BindingError{
				Shape: t.String(),
				Value: p.Key.Literal(),
				Pos:   p.Key.Pos,
				Msg:   fmt.Sprintf("key of element %d is not an integer", i),
			}
		}
		if err := b.bind(p.Value, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (b *binder) bindMap(tok *Token, v reflect.Value) error {
	t := v.Type()
	if tok.Kind != KindArray {
		return b.fail(tok, t, "expected an array", nil)
	}
	m := reflect.MakeMapWithSize(t, len(tok.Children))
	for _, p := range tok.Children {
		key := reflect.New(t.Key()).Elem()
		if err := b.bind(p.Key, key); err != nil {
			return err
		}
		elem := reflect.New(t.Elem()).Elem()
		if err := b.bind(p.Value, elem); err != nil {
			return err
		}
		m.SetMapIndex(key, elem)
	}
	v.Set(m)
	return nil
}

func (b *binder) bindStruct(tok *Token, v reflect.Value) error {
	t := v.Type()
	if !tok.IsContainer() {
		return b.fail(tok, t, "expected an array or object", nil)
	}
	desc, err := b.opts.Provider.Describe(t)
	if err != nil {
		return b.fail(tok, t, "", err)
	}
	if tok.Kind == KindObject {
		if err := b.assignClassName(tok, v); err != nil {
			return err
		}
	}

	for _, p := range tok.Children {
		if p.Key.Kind != KindString && p.Key.Kind != KindInt {
			return &BindingError{Shape: t.String(), Value: p.Key.Literal(), Pos: p.Key.Pos, Msg: "struct keys must be strings or integers"}
		}
		key := propertyName(p.Key.Raw)
		slot, ok := desc.Lookup(key, b.opts.CaseSensitiveKeys)
		if !ok {
			if b.opts.AllowExcessKeys {
				continue
			}
			return &BindingError{Shape: t.String(), Slot: key, Value: p.Value.Literal(), Pos: p.Key.Pos, Msg: "no such field/property"}
		}
		if slot.Ignore {
			continue
		}
		if err := b.bind(p.Value, v.FieldByIndex(slot.Index)); err != nil {
			return &BindingError{Shape: t.String(), Slot: slot.Name, Value: p.Value.Literal(), Pos: p.Value.Pos, Cause: err}
		}
	}
	return nil
}

// propertyName strips the "\0Class\0" and "\0*\0" prefixes PHP writes for
// private and protected properties.
func propertyName(key string) string {
	if len(key) == 0 || key[0] != 0 {
		return key
	}
	if i := strings.IndexByte(key[1:], 0); i >= 0 {
		return key[i+2:]
	}
	return key
}

func (b *binder) assignClassName(tok *Token, v reflect.Value) error {
	if !v.CanAddr() {
		return nil
	}
	named, ok := v.Addr().Interface().(Named)
	if !ok {
		return nil
	}
	if err := named.SetClassName(tok.Raw); err != nil {
		return &BindingError{Shape: v.Type().String(), Value: "class " + strconv.Quote(tok.Raw), Pos: tok.Pos, Cause: err}
	}
	return nil
}

// bindTime accepts a DateTime object, an RFC 3339 or DateTimeLayout string,
// or a Unix timestamp.
func (b *binder) bindTime(tok *Token, v reflect.Value) error {
	var tm time.Time
	switch tok.Kind {
	case KindObject:
		var d DateTime
		if err := b.bind(tok, reflect.ValueOf(&d).Elem()); err != nil {
			return err
		}
		var err error
		if tm, err = d.Time(); err != nil {
			return b.fail(tok, timeType, "", err)
		}
	case KindString:
		if tok.Raw == "" && b.opts.EmptyStringToDefault {
			v.Set(reflect.Zero(timeType))
			return nil
		}
		var err error
		if tm, err = time.Parse(time.RFC3339Nano, tok.Raw); err != nil {
			if tm, err = time.Parse(DateTimeLayout, tok.Raw); err != nil {
				return b.fail(tok, timeType, "", err)
			}
		}
	case KindInt:
		n, err := strconv.ParseInt(tok.Raw, 10, 64)
		if err != nil {
			return b.fail(tok, timeType, "", err)
		}
		tm = time.Unix(n, 0).UTC()
	default:
		return b.fail(tok, timeType, "expected a DateTime object, a date string or a timestamp", nil)
	}
	v.Set(reflect.ValueOf(tm))
	return nil
}

func (b *binder) bindInterface(tok *Token, v reflect.Value) error {
	t := v.Type()
	dyn, err := b.dynamic(tok)
	if err != nil {
		return err
	}
	if dyn == nil {
		v.Set(reflect.Zero(t))
		return nil
	}
	dv := reflect.ValueOf(dyn)
	if !dv.Type().AssignableTo(t) {
		return b.fail(tok, t, fmt.Sprintf("decoded %s does not implement %s", dv.Type(), t), nil)
	}
	v.Set(dv)
	return nil
}

// dynamic builds a Go-native tree: nil, bool, int64, float64, string,
// []interface{}, map[string]interface{} and *GoObject. Objects whose class the
// resolver knows are bound to that shape and returned as a pointer, at any depth.
func (b *binder) dynamic(tok *Token) (interface{}, error) {
	switch tok.Kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return tok.Raw == "1", nil
	case KindInt:
		return parseIntToken(tok)
	case KindFloat:
		return parseFloatToken(tok)
	case KindString:
		return tok.Raw, nil
	case KindArray:
		if isList(tok, b.opts.ListPromotion) {
			list := make([]interface{}, len(tok.Children))
			for i, p := range tok.Children {
				e, err := b.dynamic(p.Value)
				if err != nil {
					return nil, err
				}
				list[i] = e
			}
			return list, nil
		}
		return b.dynamicMap(tok)
	case KindObject:
		return b.dynamicObject(tok)
	}
	return nil, b.fail(tok, reflect.TypeOf((*interface{})(nil)).Elem(), "unknown token kind", nil)
}

func (b *binder) dynamicMap(tok *Token) (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(tok.Children))
	for _, p := range tok.Children {
		e, err := b.dynamic(p.Value)
		if err != nil {
			return nil, err
		}
		m[p.Key.Raw] = e
	}
	return m, nil
}

func (b *binder) dynamicObject(tok *Token) (interface{}, error) {
	if t, ok := resolveClass(b.opts.Resolver, tok.Raw); ok {
		p := b.opts.Provider.New(t).Addr()
		if err := b.bind(tok, p.Elem()); err != nil {
			return nil, err
		}
		return p.Interface(), nil
	}
	if tok.Raw == StdClass {
		switch b.opts.StdClass {
		case StdClassThrow:
			return nil, &UnsupportedStdClassError{Pos: tok.Pos}
		case StdClassToMap:
			return b.dynamicMap(tok)
		}
	}
	obj := &GoObject{Class: tok.Raw, Properties: make([]GoProperty, 0, len(tok.Children))}
	for _, p := range tok.Children {
		e, err := b.dynamic(p.Value)
		if err != nil {
			return nil, err
		}
		obj.set(p.Key.Raw, e)
	}
	return obj, nil
}
