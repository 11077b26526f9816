package phpserialize

import (
	"errors"
	"testing"
)

// FuzzDeserialize checks that arbitrary input never panics.
func FuzzDeserialize(f *testing.F) {
	seeds := []string{
		`N;`,
		`b:1;`,
		`i:42;`,
		`i:-9223372036854775808;`,
		`d:0.1;`,
		`d:-INF;`,
		`s:5:"hello";`,
		`s:4:"👻";`,
		`a:2:{i:0;s:1:"a";i:1;s:1:"b";}`,
		`a:1:{s:1:"k";a:0:{}}`,
		`O:8:"stdClass":1:{s:1:"a";N;}`,
		`O:3:"Foo":1:{s:1:"x";O:3:"Bar":0:{}}`,
		// Invalid/edge cases
		``,
		`i:1`,
		`s:2147483647:"x";`,
		`a:2147483647:{}`,
		`a:1:{a:0:{}i:1;}`,
		`x:0;`,
	}
	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		val, err := Deserialize(data, WithStdClassPolicy(StdClassToDynamic), WithMaxDepth(64))
		if err != nil {
			return
		}
		_ = ToGo(val)

		// A decoded value contains no cycles, so it must serialize unless it
		// carries a float or bool key, and the result must decode again.
		out, err := Serialize(val, WithThrowOnCircularReference(true))
		if errors.Is(err, ErrUnsupportedKey) {
			return
		}
		if err != nil {
			t.Fatalf("Serialize failed for %q: %v", data, err)
		}
		if _, err := Deserialize(out, WithStdClassPolicy(StdClassToDynamic)); err != nil {
			t.Fatalf("re-decode of %q failed: %v", out, err)
		}
	})
}

// FuzzStringRoundTrip checks that any byte string survives encoding.
func FuzzStringRoundTrip(f *testing.F) {
	f.Add("hello")
	f.Add("")
	f.Add(`";}`)
	f.Add("\x00\x01\x02")
	f.Add("\xff\xfe")
	f.Add("emoji: 🎉")

	f.Fuzz(func(t *testing.T, s string) {
		data, err := Serialize(s)
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		val, err := Deserialize(data)
		if err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if val.AsString() != s {
			t.Fatalf("round-trip mismatch: got %q, want %q", val.AsString(), s)
		}
	})
}

// FuzzIntRoundTrip checks int64 round-trips.
func FuzzIntRoundTrip(f *testing.F) {
	for _, n := range []int64{0, 1, -1, 42, 1<<63 - 1, -1 << 63} {
		f.Add(n)
	}

	f.Fuzz(func(t *testing.T, n int64) {
		data, err := Serialize(n)
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		val, err := Deserialize(data)
		if err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if val.AsInt() != n {
			t.Fatalf("got %d, want %d", val.AsInt(), n)
		}
	})
}

// FuzzFloatRoundTrip checks that formatted floats parse back exactly.
func FuzzFloatRoundTrip(f *testing.F) {
	for _, x := range []float64{0, 0.1, -1.5, 1e25, 1.5e-7, 1e15, 123456789012345.6} {
		f.Add(x)
	}

	f.Fuzz(func(t *testing.T, x float64) {
		data, err := Serialize(x)
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		val, err := Deserialize(data)
		if err != nil {
			t.Fatalf("Deserialize of %s failed: %v", data, err)
		}
		if !val.Equal(Float(x)) {
			t.Fatalf("got %v, want %v (%s)", val.AsFloat(), x, data)
		}
	})
}
