package phpserialize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ObjectTagPrefix prefixes the YAML tag of mappings that represent objects,
// e.g. !php/object:App\User.
const ObjectTagPrefix = "!php/object:"

// MarshalYAML implements yaml.Marshaler. Map and property order is kept and
// objects are tagged with their class name.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.Type() {
	case TypeNull:
		return scalarNode("!!null", "null")
	case TypeBool:
		return scalarNode("!!bool", strconv.FormatBool(v.AsBool()))
	case TypeInt:
		return scalarNode("!!int", strconv.FormatInt(v.AsInt(), 10))
	case TypeFloat:
		return scalarNode("!!float", yamlFloat(v.AsFloat()))
	case TypeString:
		return scalarNode("!!str", v.AsString())
	case TypeList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.AsList() {
			n.Content = append(n.Content, e.yamlNode())
		}
		return n
	case TypeMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v.AsMap().Entries() {
			key := scalarNode("!!str", e.Key.keyString())
			if e.Key.IsInt() {
				key.Tag = "!!int"
			}
			n.Content = append(n.Content, key, e.Value.yamlNode())
		}
		return n
	case TypeObject:
		o := v.AsObject()
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: ObjectTagPrefix + o.ClassName()}
		for _, p := range o.Properties() {
			n.Content = append(n.Content, scalarNode("!!str", p.Name), p.Value.yamlNode())
		}
		return n
	}
	return scalarNode("!!null", "null")
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	dv, err := FromYAMLNode(node)
	if err != nil {
		return err
	}
	*v = dv
	return nil
}

// ParseDocument decodes a JSON or YAML document into a Value.
func ParseDocument(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return FromYAMLNode(&doc)
}

// FromYAMLNode converts a YAML node tree. Mappings tagged with
// ObjectTagPrefix, or whose first key is "__class", become objects; integer
// mapping keys stay integers.
func FromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return FromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return FromYAMLNode(n.Alias)
	case yaml.ScalarNode:
		return yamlScalar(n)
	case yaml.SequenceNode:
		list := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			e, err := FromYAMLNode(c)
			if err != nil {
				return Value{}, err
			}
			list = append(list, e)
		}
		return List(list), nil
	case yaml.MappingNode:
		return yamlMapping(n)
	}
	return Value{}, fmt.Errorf("phpserialize: unsupported YAML node kind %d at line %d", n.Kind, n.Line)
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			var f float64
			if ferr := n.Decode(&f); ferr != nil {
				return Value{}, err
			}
			return Float(f), nil
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	return String(n.Value), nil
}

func yamlMapping(n *yaml.Node) (Value, error) {
	pairs := n.Content
	var obj *Object
	switch {
	case strings.HasPrefix(n.Tag, ObjectTagPrefix):
		obj = NewObject(strings.TrimPrefix(n.Tag, ObjectTagPrefix))
	case len(pairs) >= 2 && pairs[0].Kind == yaml.ScalarNode && pairs[0].Value == ClassKey && pairs[1].Kind == yaml.ScalarNode:
		obj = NewObject(pairs[1].Value)
		pairs = pairs[2:]
	}

	var m *OrderedMap
	if obj == nil {
		m = NewOrderedMap(len(pairs) / 2)
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		k, vn := pairs[i], pairs[i+1]
		if k.Kind != yaml.ScalarNode {
			return Value{}, fmt.Errorf("phpserialize: mapping key at line %d must be a scalar", k.Line)
		}
		val, err := FromYAMLNode(vn)
		if err != nil {
			return Value{}, err
		}
		if obj != nil {
			obj.Set(k.Value, val)
			continue
		}
		key := String(k.Value)
		if k.ShortTag() == "!!int" {
			if iv, err := strconv.ParseInt(k.Value, 10, 64); err == nil {
				key = Int(iv)
			}
		}
		m.Set(key, val)
	}
	if obj != nil {
		return ObjectValue(obj), nil
	}
	return MapValue(m), nil
}
