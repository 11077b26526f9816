package phpserialize

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/acolita/phpwire/internal/wire"
)

// Serializer writes Go values in PHP serialize format. A Serializer is not
// safe for concurrent use; Serialize creates one per call.
type Serializer struct {
	writer *wire.Writer
	opts   SerializeOptions
	open   map[visitKey]struct{}
}

var (
	orderedMapType = reflect.TypeOf((*OrderedMap)(nil))
	objectType     = reflect.TypeOf((*Object)(nil))
	goObjectType   = reflect.TypeOf((*GoObject)(nil))
)

// visitKey identifies a reference currently being written. Slices sharing a
// backing array but differing in length are distinct.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

// NewSerializer creates a new serializer.
func NewSerializer(opts ...SerializeOption) *Serializer {
	return &Serializer{
		writer: wire.NewWriter(256),
		opts:   newSerializeOptions(opts),
		open:   make(map[visitKey]struct{}),
	}
}

// Serialize writes v in PHP serialize format.
// Supported types:
//   - nil, nil pointers, maps and slices → N;
//   - bool → b:
//   - int*, uint* → i: (uint64 above MaxInt64 → d:)
//   - float32, float64 → d: (INF, -INF, NAN)
//   - string → s:
//   - []byte → s:
//   - Enum → i: or s: depending on NumericEnums
//   - slices, arrays → a: with keys 0..n-1
//   - maps with string or integer keys → a: with sorted keys
//   - structs → a:, or O: for ClassNamer and Named shapes
//   - time.Time → DateTime object
//   - Value, *OrderedMap, *Object, *GoObject → in their own order
func Serialize(v interface{}, opts ...SerializeOption) (data []byte, err error) {
	defer func() { countEncode(err) }()
	return NewSerializer(opts...).Serialize(v)
}

// Serialize writes v and returns the encoded bytes.
func (s *Serializer) Serialize(v interface{}) ([]byte, error) {
	s.writer.Reset()
	if err := s.writeGoValue(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	out := make([]byte, s.writer.Len())
	copy(out, s.writer.Bytes())
	return out, nil
}

// enter marks a reference as open. It returns false when the reference is
// already being written, after handling the cycle.
func (s *Serializer) enter(k visitKey) (bool, error) {
	if _, ok := s.open[k]; ok {
		if s.opts.ThrowOnCircularReference {
			return false, fmt.Errorf("%w: %s visited twice", ErrCircularReference, k.typ)
		}
		s.writer.WriteNull()
		return false, nil
	}
	s.open[k] = struct{}{}
	return true, nil
}

func (s *Serializer) leave(k visitKey) {
	delete(s.open, k)
}

func (s *Serializer) writeGoValue(v reflect.Value) error {
	if !v.IsValid() {
		s.writer.WriteNull()
		return nil
	}
	t := v.Type()

	switch {
	case t == valueType:
		return s.writeValue(v.Interface().(Value))
	case t == timeType:
		return s.writeGoValue(reflect.ValueOf(NewDateTime(v.Interface().(time.Time))))
	case isEnumShape(t):
		return s.writeEnum(v)
	}

	switch t.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			s.writer.WriteNull()
			return nil
		}
		switch p := v.Interface().(type) {
		case *OrderedMap:
			return s.writeMap(p)
		case *Object:
			return s.writeObject(p)
		case *GoObject:
			return s.writeGoObject(p)
		}
		k := visitKey{ptr: v.Pointer(), typ: t}
		ok, err := s.enter(k)
		if !ok {
			return err
		}
		defer s.leave(k)
		return s.writeGoValue(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			s.writer.WriteNull()
			return nil
		}
		return s.writeGoValue(v.Elem())
	case reflect.Bool:
		s.writer.WriteBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.writer.WriteInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.writeUint(v.Uint())
	case reflect.Float32:
		// shortest float32 text, so 0.1f is written as 0.1
		f, _ := strconv.ParseFloat(strconv.FormatFloat(v.Float(), 'g', -1, 32), 64)
		s.writer.WriteFloat(f)
	case reflect.Float64:
		s.writer.WriteFloat(v.Float())
	case reflect.String:
		s.writer.WriteString(v.String())
	case reflect.Slice:
		if v.IsNil() {
			s.writer.WriteNull()
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 && !isEnumShape(t.Elem()) {
			s.writer.WriteString(string(v.Bytes()))
			return nil
		}
		k := visitKey{ptr: v.Pointer(), typ: t, n: v.Len()}
		ok, err := s.enter(k)
		if !ok {
			return err
		}
		defer s.leave(k)
		return s.writeList(v)
	case reflect.Array:
		return s.writeList(v)
	case reflect.Map:
		if v.IsNil() {
			s.writer.WriteNull()
			return nil
		}
		k := visitKey{ptr: v.Pointer(), typ: t}
		ok, err := s.enter(k)
		if !ok {
			return err
		}
		defer s.leave(k)
		return s.writeGoMap(v)
	case reflect.Struct:
		return s.writeStruct(v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return nil
}

// writeUint writes values above MaxInt64 as floats, since PHP integers are signed.
func (s *Serializer) writeUint(u uint64) {
	if u > math.MaxInt64 {
		s.writer.WriteFloat(float64(u))
		return
	}
	s.writer.WriteInt(int64(u))
}

func (s *Serializer) writeEnum(v reflect.Value) error {
	var n int64
	if isUintKind(v.Kind()) {
		u := v.Uint()
		if u > math.MaxInt64 {
			s.writeUint(u)
			return nil
		}
		n = int64(u)
	} else {
		n = v.Int()
	}
	if !s.opts.NumericEnums {
		if m, ok := memberByValue(enumMembers(v.Type()), n); ok {
			s.writer.WriteString(m.Name)
			return nil
		}
	}
	s.writer.WriteInt(n)
	return nil
}

func (s *Serializer) writeList(v reflect.Value) error {
	n := v.Len()
	s.writer.WriteArrayHeader(n)
	for i := 0; i < n; i++ {
		s.writer.WriteInt(int64(i))
		if err := s.writeGoValue(v.Index(i)); err != nil {
			return err
		}
	}
	s.writer.WriteEnd()
	return nil
}

// mapKeyEntry is a Go map key converted to its PHP array key form.
type mapKeyEntry struct {
	isInt bool
	i     int64
	s     string
	key   reflect.Value
}

func phpKey(k reflect.Value) (mapKeyEntry, error) {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	e := mapKeyEntry{key: k}
	switch {
	case k.Kind() == reflect.String:
		e.s = k.String()
	case isIntKind(k.Kind()):
		e.isInt, e.i = true, k.Int()
	case isUintKind(k.Kind()) && k.Uint() <= math.MaxInt64:
		e.isInt, e.i = true, int64(k.Uint())
	case isUintKind(k.Kind()):
		e.s = strconv.FormatUint(k.Uint(), 10)
	default:
		name := "nil"
		if k.IsValid() {
			name = k.Type().String()
		}
		return e, &UnsupportedKeyError{Type: name}
	}
	return e, nil
}

// writeGoMap writes integer keys in ascending order followed by string keys
// in lexical order.
func (s *Serializer) writeGoMap(v reflect.Value) error {
	keys := make([]mapKeyEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		e, err := phpKey(iter.Key())
		if err != nil {
			return err
		}
		e.key = iter.Key()
		keys = append(keys, e)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.isInt != b.isInt {
			return a.isInt
		}
		if a.isInt {
			return a.i < b.i
		}
		return a.s < b.s
	})

	s.writer.WriteArrayHeader(len(keys))
	for _, k := range keys {
		if k.isInt {
			s.writer.WriteInt(k.i)
		} else {
			s.writer.WriteString(k.s)
		}
		if err := s.writeGoValue(v.MapIndex(k.key)); err != nil {
			return err
		}
	}
	s.writer.WriteEnd()
	return nil
}

// classNameFor decides between a: and O: for a struct. A non-empty runtime
// name from Named wins over the ClassNamer name.
func classNameFor(v reflect.Value, desc *Descriptor) (string, bool) {
	var named Named
	if v.CanAddr() {
		named, _ = v.Addr().Interface().(Named)
	} else {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		named, _ = p.Interface().(Named)
	}
	if named != nil {
		if name := named.ClassName(); name != "" {
			return name, true
		}
	}
	return desc.ClassName, desc.AsObject
}

func (s *Serializer) writeStruct(v reflect.Value) error {
	desc, err := s.opts.Provider.Describe(v.Type())
	if err != nil {
		return err
	}

	// Filters may drop pairs, so the body is buffered to get the count.
	outer := s.writer
	s.writer = wire.NewWriter(64)
	count, err := s.writeSlots(v, desc)
	body := s.writer
	s.writer = outer
	if err != nil {
		return err
	}

	if name, ok := classNameFor(v, desc); ok {
		s.writer.WriteObjectHeader(name, count)
	} else {
		s.writer.WriteArrayHeader(count)
	}
	s.writer.WriteBytes(body.Bytes())
	s.writer.WriteEnd()
	return nil
}

func (s *Serializer) writeSlots(v reflect.Value, desc *Descriptor) (int, error) {
	count := 0
	for i := range desc.Slots {
		slot := &desc.Slots[i]
		if slot.Ignore {
			continue
		}
		fv := v.FieldByIndex(slot.Index)
		value, emit, err := s.applyFilters(slot, fv)
		if err != nil {
			return 0, err
		}
		if !emit {
			continue
		}
		s.writer.WriteString(slot.WireName)
		if err := s.writeGoValue(value); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (s *Serializer) applyFilters(slot *Slot, fv reflect.Value) (reflect.Value, bool, error) {
	if len(slot.Filters) == 0 {
		return fv, true, nil
	}
	value := fv.Interface()
	for _, name := range slot.Filters {
		f, ok := lookupFilter(name, s.opts)
		if !ok {
			return fv, false, fmt.Errorf("phpserialize: slot %s uses unknown filter %q", slot.Name, name)
		}
		var emit bool
		if value, emit = f(slot.WireName, value); !emit {
			return fv, false, nil
		}
	}
	return reflect.ValueOf(value), true, nil
}

// writeValue writes a dynamic Value.
func (s *Serializer) writeValue(v Value) error {
	switch v.Type() {
	case TypeNull:
		s.writer.WriteNull()
	case TypeBool:
		s.writer.WriteBool(v.AsBool())
	case TypeInt:
		s.writer.WriteInt(v.AsInt())
	case TypeFloat:
		s.writer.WriteFloat(v.AsFloat())
	case TypeString:
		s.writer.WriteString(v.AsString())
	case TypeList:
		list := v.AsList()
		s.writer.WriteArrayHeader(len(list))
		for i, e := range list {
			s.writer.WriteInt(int64(i))
			if err := s.writeValue(e); err != nil {
				return err
			}
		}
		s.writer.WriteEnd()
	case TypeMap:
		return s.writeMap(v.AsMap())
	case TypeObject:
		return s.writeObject(v.AsObject())
	default:
		return fmt.Errorf("%w: value of type %s", ErrUnsupportedType, v.Type())
	}
	return nil
}

func (s *Serializer) writeMap(m *OrderedMap) error {
	k := visitKey{ptr: reflect.ValueOf(m).Pointer(), typ: orderedMapType}
	ok, err := s.enter(k)
	if !ok {
		return err
	}
	defer s.leave(k)

	s.writer.WriteArrayHeader(m.Len())
	for _, e := range m.Entries() {
		if err := s.writeKey(e.Key); err != nil {
			return err
		}
		if err := s.writeValue(e.Value); err != nil {
			return err
		}
	}
	s.writer.WriteEnd()
	return nil
}

func (s *Serializer) writeObject(o *Object) error {
	k := visitKey{ptr: reflect.ValueOf(o).Pointer(), typ: objectType}
	ok, err := s.enter(k)
	if !ok {
		return err
	}
	defer s.leave(k)

	name := o.ClassName()
	if name == "" {
		name = StdClass
	}
	s.writer.WriteObjectHeader(name, o.Len())
	for _, p := range o.Properties() {
		s.writer.WriteString(p.Name)
		if err := s.writeValue(p.Value); err != nil {
			return err
		}
	}
	s.writer.WriteEnd()
	return nil
}

// writeKey writes a map key. PHP arrays are keyed by int or string only;
// anything else would be coerced on the PHP side and could collide.
func (s *Serializer) writeKey(k Value) error {
	switch k.Type() {
	case TypeInt:
		s.writer.WriteInt(k.AsInt())
	case TypeString:
		s.writer.WriteString(k.AsString())
	default:
		return &UnsupportedKeyError{Type: k.Type().String()}
	}
	return nil
}

func (s *Serializer) writeGoObject(o *GoObject) error {
	k := visitKey{ptr: reflect.ValueOf(o).Pointer(), typ: goObjectType}
	ok, err := s.enter(k)
	if !ok {
		return err
	}
	defer s.leave(k)

	name := o.Class
	if name == "" {
		name = StdClass
	}
	s.writer.WriteObjectHeader(name, len(o.Properties))
	for _, p := range o.Properties {
		s.writer.WriteString(p.Name)
		if err := s.writeGoValue(reflect.ValueOf(p.Value)); err != nil {
			return err
		}
	}
	s.writer.WriteEnd()
	return nil
}
