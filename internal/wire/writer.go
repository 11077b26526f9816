package wire

import (
	"math"
	"strconv"
	"strings"
)

// Writer writes PHP serialized data to a byte buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates a new Writer with an initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// WriteByte writes a single byte. Implements io.ByteWriter.
// Always returns nil error for in-memory buffer.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteBytes writes a slice of bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteNull writes N;
func (w *Writer) WriteNull() {
	w.buf = append(w.buf, 'N', ';')
}

// WriteBool writes b:0; or b:1;
func (w *Writer) WriteBool(b bool) {
	if b {
		w.buf = append(w.buf, "b:1;"...)
	} else {
		w.buf = append(w.buf, "b:0;"...)
	}
}

// WriteInt writes i:<n>;
func (w *Writer) WriteInt(n int64) {
	w.buf = append(w.buf, 'i', ':')
	w.buf = strconv.AppendInt(w.buf, n, 10)
	w.buf = append(w.buf, ';')
}

// WriteFloat writes d:<f>; using PHP's literal rules (see FormatFloat).
func (w *Writer) WriteFloat(f float64) {
	w.buf = append(w.buf, 'd', ':')
	w.buf = append(w.buf, FormatFloat(f)...)
	w.buf = append(w.buf, ';')
}

// WriteString writes s:<len>:"<bytes>"; where len is the byte length of s.
// The payload is copied raw; the format has no escaping.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, 's', ':')
	w.buf = strconv.AppendInt(w.buf, int64(len(s)), 10)
	w.buf = append(w.buf, ':', '"')
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, '"', ';')
}

// WriteArrayHeader writes a:<count>:{
func (w *Writer) WriteArrayHeader(count int) {
	w.buf = append(w.buf, 'a', ':')
	w.buf = strconv.AppendInt(w.buf, int64(count), 10)
	w.buf = append(w.buf, ':', '{')
}

// WriteObjectHeader writes O:<namelen>:"<name>":<count>:{
func (w *Writer) WriteObjectHeader(name string, count int) {
	w.buf = append(w.buf, 'O', ':')
	w.buf = strconv.AppendInt(w.buf, int64(len(name)), 10)
	w.buf = append(w.buf, ':', '"')
	w.buf = append(w.buf, name...)
	w.buf = append(w.buf, '"', ':')
	w.buf = strconv.AppendInt(w.buf, int64(count), 10)
	w.buf = append(w.buf, ':', '{')
}

// WriteEnd closes an array or object body.
func (w *Writer) WriteEnd() {
	w.buf = append(w.buf, '}')
}

// Float sentinels accepted and produced verbatim.
const (
	FloatInf    = "INF"
	FloatNegInf = "-INF"
	FloatNaN    = "NAN"
)

// FormatFloat renders f the way PHP's serialize does with
// serialize_precision=-1: the shortest representation that round-trips,
// switching to exponent notation (1.0E+25) for very large or small
// magnitudes, and INF/-INF/NAN for the special values.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return FloatNaN
	case math.IsInf(f, 1):
		return FloatInf
	case math.IsInf(f, -1):
		return FloatNegInf
	}

	e := strconv.FormatFloat(f, 'e', -1, 64)
	idx := strings.IndexByte(e, 'e')
	mant, expPart := e[:idx], e[idx+1:]
	exp, _ := strconv.Atoi(expPart)
	if f != 0 && (exp < -4 || exp >= 15) {
		if !strings.Contains(mant, ".") {
			mant += ".0"
		}
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		return mant + "E" + sign + strconv.Itoa(exp)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseFloat parses a float literal, honoring the INF/-INF/NAN sentinels
// case-sensitively. Any other literal must be a plain decimal number.
func ParseFloat(s string) (float64, error) {
	switch s {
	case FloatInf:
		return math.Inf(1), nil
	case FloatNegInf:
		return math.Inf(-1), nil
	case FloatNaN:
		return math.NaN(), nil
	}
	for i := 0; i < len(s); i++ {
		if !IsFloatByte(s[i]) || s[i] == 'I' || s[i] == 'N' || s[i] == 'F' || s[i] == 'A' {
			return 0, &strconv.NumError{Func: "ParseFloat", Num: s, Err: strconv.ErrSyntax}
		}
	}
	return strconv.ParseFloat(s, 64)
}

// IsFloatByte reports whether b may appear in a float literal, sentinels included.
func IsFloatByte(b byte) bool {
	switch {
	case IsDigit(b):
		return true
	case b == '.', b == 'e', b == 'E', b == '+', b == '-':
		return true
	case b == 'I', b == 'N', b == 'F', b == 'A':
		return true
	}
	return false
}

// IsIntByte reports whether b may appear in an integer literal.
func IsIntByte(b byte) bool {
	return IsDigit(b) || b == '-'
}
