package phpserialize

import (
	"fmt"
	"strings"
)

// Kind identifies which wire tag produced a Token.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Boolean"
	case KindInt:
		return "Integer"
	case KindFloat:
		return "Floating"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func kindForTag(tag byte) (Kind, bool) {
	switch tag {
	case tagNull:
		return KindNull, true
	case tagBool:
		return KindBool, true
	case tagInt:
		return KindInt, true
	case tagFloat:
		return KindFloat, true
	case tagString:
		return KindString, true
	case tagArray:
		return KindArray, true
	case tagObject:
		return KindObject, true
	}
	return 0, false
}

// Token is one parsed value of the wire format.
//
// Raw holds the literal payload: digits for integers, the float text, "0" or
// "1" for booleans, the decoded string for strings and the declared class name
// for objects. Children is only populated for arrays and objects, in
// encounter order. Pos is the byte offset of the tag character.
type Token struct {
	Kind     Kind
	Pos      int
	Raw      string
	Children []Pair
}

// Pair is one key/value entry of an array or object.
type Pair struct {
	Key   *Token
	Value *Token
}

// Len returns the number of children.
func (t *Token) Len() int {
	return len(t.Children)
}

// IsContainer reports whether t is an array or object.
func (t *Token) IsContainer() bool {
	return t.Kind == KindArray || t.Kind == KindObject
}

// Literal renders the token payload for diagnostics.
func (t *Token) Literal() string {
	switch t.Kind {
	case KindNull:
		return "null"
	case KindString:
		return fmt.Sprintf("%q", t.Raw)
	case KindArray:
		return fmt.Sprintf("array(%d)", len(t.Children))
	case KindObject:
		return fmt.Sprintf("object %s(%d)", t.Raw, len(t.Children))
	default:
		return t.Raw
	}
}

// Dump renders the token tree with positions, one token per line.
func (t *Token) Dump() string {
	var b strings.Builder
	t.dump(&b, "", 0)
	return b.String()
}

func (t *Token) dump(b *strings.Builder, label string, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		b.WriteString(label)
		b.WriteString(" => ")
	}
	fmt.Fprintf(b, "%s %s @%d\n", t.Kind, t.Literal(), t.Pos)
	for _, p := range t.Children {
		p.Value.dump(b, p.Key.Literal(), depth+1)
	}
}
