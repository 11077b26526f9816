package phpserialize

import (
	"fmt"
	"strings"
)

// MapEntry is a key-value pair in an OrderedMap.
type MapEntry struct {
	Key   Value
	Value Value
}

// mapKey identifies a key by type and canonical text, so that Int(1) and
// String("1") stay distinct entries.
type mapKey struct {
	typ  Type
	repr string
}

// OrderedMap represents a PHP array that is not a list. It preserves
// insertion order; overwriting a key keeps its original position.
type OrderedMap struct {
	entries []MapEntry
	index   map[mapKey]int
}

// NewOrderedMap creates an empty map with room for n entries.
func NewOrderedMap(n int) *OrderedMap {
	return &OrderedMap{
		entries: make([]MapEntry, 0, n),
		index:   make(map[mapKey]int, n),
	}
}

func keyOf(k Value) mapKey {
	return mapKey{typ: k.typ, repr: k.keyString()}
}

// Set stores value under key.
func (m *OrderedMap) Set(key, value Value) {
	if m.index == nil {
		m.index = make(map[mapKey]int)
	}
	k := keyOf(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key Value) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[keyOf(key)]
	if !ok {
		return Value{}, false
	}
	return m.entries[i].Value, true
}

// GetString is a shorthand for Get(String(key)).
func (m *OrderedMap) GetString(key string) (Value, bool) {
	return m.Get(String(key))
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in insertion order. The slice must not be modified.
func (m *OrderedMap) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []Value {
	keys := make([]Value, 0, m.Len())
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// Equal reports whether both maps hold equal entries in the same order.
func (m *OrderedMap) Equal(other *OrderedMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	a, b := m.Entries(), other.Entries()
	for i := range a {
		if !a[i].Key.Equal(b[i].Key) || !a[i].Value.Equal(b[i].Value) {
			return false
		}
	}
	return true
}

func (m *OrderedMap) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m.Entries() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%#v: %#v", e.Key, e.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Property is one named field of an Object.
type Property struct {
	Name  string
	Value Value
}

// Object is an open record decoded from a PHP object whose class has no
// registered Go shape. Properties keep their wire order.
type Object struct {
	className  string
	properties []Property
	index      map[string]int
}

// NewObject creates an empty object of the given class.
func NewObject(className string) *Object {
	return &Object{className: className, index: make(map[string]int)}
}

// ClassName returns the PHP class name.
func (o *Object) ClassName() string {
	return o.className
}

// SetClassName implements Named.
func (o *Object) SetClassName(name string) error {
	o.className = name
	return nil
}

// Set stores a property, keeping the position of an existing one.
func (o *Object) Set(name string, value Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[name]; ok {
		o.properties[i].Value = value
		return
	}
	o.index[name] = len(o.properties)
	o.properties = append(o.properties, Property{Name: name, Value: value})
}

// Get returns the named property.
func (o *Object) Get(name string) (Value, bool) {
	i, ok := o.index[name]
	if !ok {
		return Value{}, false
	}
	return o.properties[i].Value, true
}

// Len returns the number of properties.
func (o *Object) Len() int {
	return len(o.properties)
}

// Keys returns the property names in wire order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.properties))
	for i, p := range o.properties {
		keys[i] = p.Name
	}
	return keys
}

// Properties returns the properties in wire order. The slice must not be modified.
func (o *Object) Properties() []Property {
	return o.properties
}

// Equal reports whether both objects share a class name and equal
// properties in the same order.
func (o *Object) Equal(other *Object) bool {
	if o.className != other.className || len(o.properties) != len(other.properties) {
		return false
	}
	for i, p := range o.properties {
		q := other.properties[i]
		if p.Name != q.Name || !p.Value.Equal(q.Value) {
			return false
		}
	}
	return true
}

// GoObject is an object of unresolved class inside a tree decoded into an
// interface{} target. Its property values are Go-native, so registered
// classes nested in it are bound to their shapes.
type GoObject struct {
	Class      string
	Properties []GoProperty
}

// GoProperty is one named field of a GoObject.
type GoProperty struct {
	Name  string
	Value interface{}
}

// ClassName returns the PHP class name.
func (o *GoObject) ClassName() string {
	return o.Class
}

// Get returns the named property.
func (o *GoObject) Get(name string) (interface{}, bool) {
	for _, p := range o.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func (o *GoObject) set(name string, value interface{}) {
	for i := range o.Properties {
		if o.Properties[i].Name == name {
			o.Properties[i].Value = value
			return
		}
	}
	o.Properties = append(o.Properties, GoProperty{Name: name, Value: value})
}
