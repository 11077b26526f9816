// Package phpserialize reads and writes the text format produced by PHP's
// serialize() and consumed by unserialize().
//
// # Basic Usage
//
// Decode without a target shape:
//
//	val, err := phpserialize.Deserialize([]byte(`a:2:{i:0;s:3:"foo";i:1;b:1;}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(val.AsList()[0].AsString()) // foo
//
// Decode into a struct:
//
//	type User struct {
//	    Name string `php:"name"`
//	    Age  int    `php:"age"`
//	}
//	u, err := phpserialize.DeserializeAs[User](data)
//
// Encode Go values:
//
//	data, err := phpserialize.Serialize(map[string]interface{}{
//	    "message": "Hello from Go!",
//	    "numbers": []int{1, 2, 3},
//	})
//
// # Decoding
//
// Decoding runs in two stages. The tokenizer parses the input into a Token
// tree and validates the grammar: string lengths are byte counts, declared
// element counts are cross-checked against the actual pairs, and exactly one
// value must make up the input. The tree is then either materialized into a
// dynamic Value or bound onto a Go shape by reflection.
//
// Struct fields are matched by the php struct tag or the field name:
//
//	Name   string `php:"name"`             // wire name
//	Secret string `php:"-"`                // never bound or written
//	Note   string `php:"note,omitempty"`   // dropped when empty
//	Email  string `php:"email,filter=pii"` // routed through a SlotFilter
//
// Objects whose class implements ClassNamer are written with O:, and shapes
// implementing Named (or embedding NamedObject) receive the decoded class
// name. Objects decoded into interface{} targets are looked up through the
// configured ClassResolver.
//
// # Caches
//
// Struct descriptors and class-name lookups are cached for the life of the
// process. ClearFieldCache and ClearTypeCache drop them.
package phpserialize

import (
	"fmt"
	"reflect"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("phpserialize")

// Cache tracing stays off until the host installs a backend with a lower level.
func init() {
	logging.SetLevel(logging.WARNING, "phpserialize")
}

// Deserialize decodes data into a dynamic Value.
func Deserialize(data []byte, opts ...Option) (v Value, err error) {
	defer func() { countDecode(err) }()
	o := newDecodeOptions(opts)
	tok, err := newTokenizer(data, o).Tokenize()
	if err != nil {
		return Value{}, err
	}
	return materialize(tok, o)
}

// DeserializeAs decodes data into a value of type T.
func DeserializeAs[T any](data []byte, opts ...Option) (T, error) {
	var out T
	err := decodeInto(data, reflect.ValueOf(&out).Elem(), newDecodeOptions(opts))
	countDecode(err)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DeserializeType decodes data into a new value of type t and returns it.
func DeserializeType(data []byte, t reflect.Type, opts ...Option) (v interface{}, err error) {
	defer func() { countDecode(err) }()
	if t == nil {
		return nil, &InvalidArgumentError{Argument: "t", Reason: "shape must not be nil"}
	}
	o := newDecodeOptions(opts)
	target := o.Provider.New(t)
	if err := decodeInto(data, target, o); err != nil {
		return nil, err
	}
	return target.Interface(), nil
}

// Unmarshal decodes data into the value pointed to by v. On failure v is left
// unchanged.
func Unmarshal(data []byte, v interface{}, opts ...Option) (err error) {
	defer func() { countDecode(err) }()
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &InvalidArgumentError{Argument: "v", Reason: fmt.Sprintf("target must be a non-nil pointer, got %T", v)}
	}
	o := newDecodeOptions(opts)
	target := o.Provider.New(rv.Elem().Type())
	if err := decodeInto(data, target, o); err != nil {
		return err
	}
	rv.Elem().Set(target)
	return nil
}

func decodeInto(data []byte, v reflect.Value, o DecodeOptions) error {
	tok, err := newTokenizer(data, o).Tokenize()
	if err != nil {
		return err
	}
	b := &binder{opts: o}
	return b.bind(tok, v)
}

// IsValid reports whether data is a single well-formed serialized value.
func IsValid(data []byte) bool {
	_, err := Tokenize(data)
	return err == nil
}

// MustDeserialize decodes data and panics on error.
// Use this only when you're certain the data is valid.
func MustDeserialize(data []byte, opts ...Option) Value {
	v, err := Deserialize(data, opts...)
	if err != nil {
		panic(fmt.Sprintf("phpserialize.MustDeserialize: %v", err))
	}
	return v
}
