// Package wire implements low-level text primitives for the PHP serialize format.
//
// This package handles the mechanical byte scanning required to read PHP's
// wire format: delimiters, decimal lengths, length-prefixed byte runs and
// number literals. It knows nothing about values or target types.
package wire

import (
	"errors"
	"fmt"
)

// Common errors returned by Reader methods.
var (
	ErrUnexpectedEOF = errors.New("wire: unexpected end of input")
	ErrLengthRange   = errors.New("wire: length out of range")
)

// EndOfInput is the description used for a missing byte in diagnostics.
const EndOfInput = "end of input"

// MaxLength bounds any decimal length prefix.
const MaxLength = 1<<31 - 1

// Reader reads PHP serialized data from a byte buffer.
// It tracks position for sequential reads; positions are byte offsets.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader from the given byte slice.
// The Reader does not copy the data; it reads directly from the slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, pos: 0}
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the total length of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of bytes left to read.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// EOF returns true if all bytes have been consumed.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.data)
}

// Peek returns the next byte without advancing the position.
// Returns 0 and ErrUnexpectedEOF if at end of input.
func (r *Reader) Peek() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	return r.data[r.pos], nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes and advances the position.
// Returns ErrUnexpectedEOF if fewer than n bytes remain.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	result := r.data[r.pos : r.pos+n]
	r.pos += n
	return result, nil
}

// ReadWhile consumes bytes as long as accept returns true and returns them.
// The returned slice aliases the underlying data.
func (r *Reader) ReadWhile(accept func(byte) bool) []byte {
	start := r.pos
	for r.pos < len(r.data) && accept(r.data[r.pos]) {
		r.pos++
	}
	return r.data[start:r.pos]
}

// Expect consumes the next byte if it equals want. On mismatch the position
// is left unchanged and a *DelimiterError is returned.
func (r *Reader) Expect(want byte) error {
	if r.pos >= len(r.data) {
		return &DelimiterError{Pos: r.pos, Expected: want, EOF: true}
	}
	if got := r.data[r.pos]; got != want {
		return &DelimiterError{Pos: r.pos, Expected: want, Found: got}
	}
	r.pos++
	return nil
}

// ReadLength reads an unsigned decimal length. At least one digit is required.
func (r *Reader) ReadLength() (int, error) {
	start := r.pos
	digits := r.ReadWhile(IsDigit)
	if len(digits) == 0 {
		return 0, &DigitError{Pos: start, Found: r.describe(start)}
	}
	n := 0
	for _, d := range digits {
		n = n*10 + int(d-'0')
		if n > MaxLength {
			return 0, fmt.Errorf("%w: %s at position %d", ErrLengthRange, digits, start)
		}
	}
	return n, nil
}

// describe renders the byte at pos for diagnostics.
func (r *Reader) describe(pos int) string {
	if pos >= len(r.data) {
		return EndOfInput
	}
	return Describe(r.data[pos])
}

// Data returns the underlying byte slice.
func (r *Reader) Data() []byte {
	return r.data
}

// DelimiterError reports a byte that did not match the expected delimiter.
type DelimiterError struct {
	Pos      int
	Expected byte
	Found    byte
	EOF      bool
}

func (e *DelimiterError) Error() string {
	return fmt.Sprintf("wire: expected %s but found %s at position %d", Describe(e.Expected), e.FoundString(), e.Pos)
}

// FoundString renders the offending byte, or EndOfInput.
func (e *DelimiterError) FoundString() string {
	if e.EOF {
		return EndOfInput
	}
	return Describe(e.Found)
}

// DigitError reports a missing decimal digit where a length was required.
type DigitError struct {
	Pos   int
	Found string
}

func (e *DigitError) Error() string {
	return fmt.Sprintf("wire: expected a digit but found %s at position %d", e.Found, e.Pos)
}

// Describe quotes a byte for diagnostics, e.g. ';' or 0x00.
func Describe(b byte) string {
	if b >= 0x20 && b < 0x7F {
		return fmt.Sprintf("'%c'", b)
	}
	return fmt.Sprintf("0x%02X", b)
}

// IsDigit reports whether b is an ASCII decimal digit.
func IsDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
