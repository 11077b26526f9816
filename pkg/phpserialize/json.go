package phpserialize

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// ClassKey is the JSON member that carries the class name of an object.
const ClassKey = "__class"

// MarshalJSON renders the value as JSON, keeping map and property order.
// Objects gain a leading "__class" member; INF, -INF and NAN become strings.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	switch v.Type() {
	case TypeNull:
		buf.WriteString("null")
	case TypeBool:
		buf.WriteString(strconv.FormatBool(v.AsBool()))
	case TypeInt:
		buf.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case TypeFloat:
		f := v.AsFloat()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return appendJSONString(buf, floatSentinel(f))
		}
		b, err := gojson.Marshal(f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case TypeString:
		return appendJSONString(buf, v.AsString())
	case TypeList:
		buf.WriteByte('[')
		for i, e := range v.AsList() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case TypeMap:
		buf.WriteByte('{')
		for i, e := range v.AsMap().Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSONMember(buf, e.Key.keyString(), e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case TypeObject:
		o := v.AsObject()
		buf.WriteByte('{')
		if err := appendJSONMember(buf, ClassKey, String(o.ClassName())); err != nil {
			return err
		}
		for _, p := range o.Properties() {
			buf.WriteByte(',')
			if err := appendJSONMember(buf, p.Name, p.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func appendJSONMember(buf *bytes.Buffer, key string, v Value) error {
	if err := appendJSONString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return v.appendJSON(buf)
}

func appendJSONString(buf *bytes.Buffer, s string) error {
	b, err := gojson.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func floatSentinel(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case f > 0:
		return "INF"
	default:
		return "-INF"
	}
}

// UnmarshalJSON decodes JSON into a Value. Object members keep their order
// and an object with a "__class" member becomes an *Object.
func (v *Value) UnmarshalJSON(data []byte) error {
	if !gojson.Valid(data) {
		return fmt.Errorf("%w: invalid JSON document", ErrMalformedInput)
	}
	dv, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*v = dv
	return nil
}

// IndentJSON pretty-prints JSON produced by MarshalJSON.
func IndentJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := gojson.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
