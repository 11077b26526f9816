package phpserialize

import (
	"errors"
	"fmt"

	"github.com/acolita/phpwire/internal/wire"
	"golang.org/x/text/encoding"
)

// minPairBytes is the size of the smallest possible pair (N;N;). It bounds
// the capacity hint derived from a declared element count.
const minPairBytes = 4

// Tokenizer parses PHP serialize text into a Token tree. It has no
// knowledge of target types.
type Tokenizer struct {
	reader   *wire.Reader
	decoder  *encoding.Decoder
	maxDepth int
	depth    int
}

// NewTokenizer creates a tokenizer for the given data. Only the
// InputEncoding and MaxDepth options are relevant here.
func NewTokenizer(data []byte, opts ...Option) *Tokenizer {
	o := newDecodeOptions(opts)
	return newTokenizer(data, o)
}

func newTokenizer(data []byte, o DecodeOptions) *Tokenizer {
	t := &Tokenizer{
		reader:   wire.NewReader(data),
		maxDepth: o.MaxDepth,
	}
	if o.InputEncoding != nil {
		t.decoder = o.InputEncoding.NewDecoder()
	}
	return t
}

// Tokenize parses exactly one value from data.
func Tokenize(data []byte, opts ...Option) (*Token, error) {
	return NewTokenizer(data, opts...).Tokenize()
}

// Tokenize reads the root value and verifies nothing follows it.
func (t *Tokenizer) Tokenize() (*Token, error) {
	if t.reader.Len() == 0 {
		return nil, emptyInputError()
	}
	tok, err := t.readValue()
	if err != nil {
		return nil, err
	}
	if !t.reader.EOF() {
		b, _ := t.reader.Peek()
		return nil, &MalformedInputError{
			Pos:      t.reader.Pos(),
			Expected: wire.EndOfInput,
			Found:    wire.Describe(b),
			Msg:      "unexpected trailing token",
		}
	}
	return tok, nil
}

// readValue reads a single value starting at a tag byte.
func (t *Tokenizer) readValue() (*Token, error) {
	t.depth++
	if t.maxDepth > 0 && t.depth > t.maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d at position %d", ErrMaxDepthExceeded, t.maxDepth, t.reader.Pos())
	}
	defer func() { t.depth-- }()

	pos := t.reader.Pos()
	tag, err := t.reader.ReadByte()
	if err != nil {
		return nil, &MalformedInputError{Pos: pos, Expected: "a value tag", Found: wire.EndOfInput}
	}
	kind, ok := kindForTag(tag)
	if !ok {
		return nil, &MalformedInputError{
			Pos:      pos,
			Expected: "one of 'N', 'b', 'i', 'd', 's', 'a', 'O'",
			Found:    wire.Describe(tag),
			Msg:      "unknown type tag",
		}
	}

	tok := &Token{Kind: kind, Pos: pos}
	switch kind {
	case KindNull:
		err = t.expect(delimSemi)
	case KindBool:
		err = t.readBool(tok)
	case KindInt:
		err = t.readInt(tok)
	case KindFloat:
		err = t.readFloat(tok)
	case KindString:
		err = t.readString(tok)
	case KindArray:
		err = t.readArray(tok)
	case KindObject:
		err = t.readObject(tok)
	}
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// readBool reads :0; or :1;
func (t *Tokenizer) readBool(tok *Token) error {
	if err := t.expect(delimColon); err != nil {
		return err
	}
	pos := t.reader.Pos()
	b, err := t.reader.ReadByte()
	if err != nil {
		return &MalformedInputError{Pos: pos, Expected: "'0' or '1'", Found: wire.EndOfInput}
	}
	if b != '0' && b != '1' {
		return &MalformedInputError{Pos: pos, Expected: "'0' or '1'", Found: wire.Describe(b), Msg: "invalid boolean"}
	}
	tok.Raw = string(b)
	return t.expect(delimSemi)
}

// readInt reads :<digits>; where digits is an optional '-' followed by decimal digits.
func (t *Tokenizer) readInt(tok *Token) error {
	if err := t.expect(delimColon); err != nil {
		return err
	}
	pos := t.reader.Pos()
	text := t.reader.ReadWhile(wire.IsIntByte)
	if !validIntLiteral(text) {
		if len(text) == 0 {
			return &MalformedInputError{Pos: pos, Expected: "a digit", Found: t.describeAt(pos)}
		}
		return &MalformedInputError{Pos: pos, Msg: fmt.Sprintf("invalid integer literal %q", text)}
	}
	tok.Raw = string(text)
	return t.expect(delimSemi)
}

func validIntLiteral(text []byte) bool {
	if len(text) > 0 && text[0] == '-' {
		text = text[1:]
	}
	if len(text) == 0 {
		return false
	}
	for _, b := range text {
		if !wire.IsDigit(b) {
			return false
		}
	}
	return true
}

// readFloat reads :<floattext>; accepting INF, -INF and NAN verbatim.
func (t *Tokenizer) readFloat(tok *Token) error {
	if err := t.expect(delimColon); err != nil {
		return err
	}
	pos := t.reader.Pos()
	text := t.reader.ReadWhile(wire.IsFloatByte)
	if len(text) == 0 {
		return &MalformedInputError{Pos: pos, Expected: "a float literal", Found: t.describeAt(pos)}
	}
	if _, err := wire.ParseFloat(string(text)); err != nil {
		return &MalformedInputError{Pos: pos, Msg: fmt.Sprintf("invalid float literal %q", text)}
	}
	tok.Raw = string(text)
	return t.expect(delimSemi)
}

// readString reads :<len>:"<bytes>"; where len counts bytes, not characters.
func (t *Tokenizer) readString(tok *Token) error {
	if err := t.expect(delimColon); err != nil {
		return err
	}
	payload, err := t.readQuoted(tok.Pos, "string")
	if err != nil {
		return err
	}
	s, err := t.decode(payload, tok.Pos)
	if err != nil {
		return err
	}
	tok.Raw = s
	return t.expect(delimSemi)
}

// readQuoted reads <len>:"<bytes>" and returns the bytes.
func (t *Tokenizer) readQuoted(tagPos int, what string) ([]byte, error) {
	n, err := t.readLength()
	if err != nil {
		return nil, err
	}
	if err := t.expect(delimColon); err != nil {
		return nil, err
	}
	if err := t.expect(delimQuote); err != nil {
		return nil, err
	}
	start := t.reader.Pos()
	if end := start + n; end > t.reader.Len() {
		return nil, &MalformedInputError{
			Pos: tagPos,
			Msg: fmt.Sprintf("%s length %d is out of bounds: payload would end at index %d but input is %d bytes long",
				what, n, end, t.reader.Len()),
		}
	}
	payload, _ := t.reader.ReadBytes(n)
	if err := t.expect(delimQuote); err != nil {
		return nil, err
	}
	return payload, nil
}

// readArray reads :<count>:{<pairs>}
func (t *Tokenizer) readArray(tok *Token) error {
	if err := t.expect(delimColon); err != nil {
		return err
	}
	declared, err := t.readLength()
	if err != nil {
		return err
	}
	if err := t.expect(delimColon); err != nil {
		return err
	}
	return t.readBody(tok, declared)
}

// readObject reads :<namelen>:"<name>":<count>:{<pairs>}
func (t *Tokenizer) readObject(tok *Token) error {
	if err := t.expect(delimColon); err != nil {
		return err
	}
	name, err := t.readQuoted(tok.Pos, "class name")
	if err != nil {
		return err
	}
	if tok.Raw, err = t.decode(name, tok.Pos); err != nil {
		return err
	}
	if err := t.expect(delimColon); err != nil {
		return err
	}
	declared, err := t.readLength()
	if err != nil {
		return err
	}
	if err := t.expect(delimColon); err != nil {
		return err
	}
	return t.readBody(tok, declared)
}

// readBody reads {<pairs>} until the closing brace and cross-checks the
// number of pairs against the declared count.
func (t *Tokenizer) readBody(tok *Token, declared int) error {
	if err := t.expect(delimOpen); err != nil {
		return err
	}

	hint := declared
	if limit := t.reader.Remaining() / minPairBytes; hint > limit {
		hint = limit
	}
	children := make([]Pair, 0, hint)

	for {
		b, err := t.reader.Peek()
		if err != nil {
			return &MalformedInputError{Pos: t.reader.Pos(), Expected: wire.Describe(delimClose), Found: wire.EndOfInput}
		}
		if b == delimClose {
			_, _ = t.reader.ReadByte() // consume end brace (already peeked)
			break
		}

		key, err := t.readValue()
		if err != nil {
			return err
		}
		if key.IsContainer() {
			return &MalformedInputError{Pos: key.Pos, Msg: fmt.Sprintf("%s cannot be used as a key", key.Kind)}
		}
		val, err := t.readValue()
		if err != nil {
			return err
		}
		children = append(children, Pair{Key: key, Value: val})
	}

	if len(children) != declared {
		return &LengthMismatchError{Kind: tok.Kind, Pos: tok.Pos, Declared: declared, Actual: len(children)}
	}
	tok.Children = children
	return nil
}

// expect consumes a delimiter or reports what was found instead.
func (t *Tokenizer) expect(b byte) error {
	err := t.reader.Expect(b)
	if err == nil {
		return nil
	}
	var de *wire.DelimiterError
	if errors.As(err, &de) {
		return &MalformedInputError{Pos: de.Pos, Expected: wire.Describe(de.Expected), Found: de.FoundString()}
	}
	return err
}

// readLength reads a decimal length prefix.
func (t *Tokenizer) readLength() (int, error) {
	pos := t.reader.Pos()
	n, err := t.reader.ReadLength()
	if err == nil {
		return n, nil
	}
	var de *wire.DigitError
	if errors.As(err, &de) {
		return 0, &MalformedInputError{Pos: de.Pos, Expected: "a digit", Found: de.Found, Msg: "invalid length"}
	}
	return 0, &MalformedInputError{Pos: pos, Msg: fmt.Sprintf("invalid length: %v", err)}
}

// decode converts a payload from the input charset to UTF-8.
func (t *Tokenizer) decode(b []byte, pos int) (string, error) {
	if t.decoder == nil {
		return string(b), nil
	}
	out, err := t.decoder.Bytes(b)
	if err != nil {
		return "", &MalformedInputError{Pos: pos, Msg: fmt.Sprintf("cannot decode payload from input encoding: %v", err)}
	}
	return string(out), nil
}

func (t *Tokenizer) describeAt(pos int) string {
	if pos >= t.reader.Len() {
		return wire.EndOfInput
	}
	return wire.Describe(t.reader.Data()[pos])
}
