package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// run executes the root command with fresh flag values.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(RootCmd)
	var stdout, stderr bytes.Buffer
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{"json", `a:2:{s:1:"a";i:1;s:1:"b";a:1:{i:0;b:1;}}`, nil, `{"a":1,"b":[true]}` + "\n"},
		{"object", `O:3:"Foo":1:{s:1:"x";N;}`, nil, `{"__class":"Foo","x":null}` + "\n"},
		{"trailing-newline", "i:7;\n", nil, "7\n"},
		{"list-never", `a:1:{i:0;i:1;}`, []string{"--list-promotion", "never"}, `{"0":1}` + "\n"},
		{"stdclass-dynamic", `O:8:"stdClass":0:{}`, []string{"--stdclass", "dynamic"}, `{"__class":"stdClass"}` + "\n"},
		{"yaml", `a:2:{s:1:"a";i:1;s:1:"b";s:1:"x";}`, []string{"--format", "yaml"}, "a: 1\nb: x\n"},
		{"pretty", `a:1:{s:1:"a";i:1;}`, []string{"--pretty"}, "{\n  \"a\": 1\n}\n"},
		{"latin1", "s:4:\"caf\xe9\";", []string{"--encoding", "iso-8859-1"}, `"café"` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"decode"}, tt.args...)
			out, _, err := run(t, tt.input, args...)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
	}{
		{"malformed", `i:1`, nil},
		{"stdclass-throw", `O:8:"stdClass":0:{}`, []string{"--stdclass", "throw"}},
		{"bad-format", `N;`, []string{"--format", "xml"}},
		{"bad-policy", `N;`, []string{"--list-promotion", "sometimes"}},
		{"bad-encoding", `N;`, []string{"--encoding", "klingon"}},
		{"bad-log-level", `N;`, []string{"--log-level", "loud"}},
		{"too-deep", `a:1:{i:0;a:0:{}}`, []string{"--max-depth", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"decode"}, tt.args...)
			if _, _, err := run(t, tt.input, args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{decodeCmd, inspectCmd, checkCmd} {
		for _, name := range []string{"list-promotion", "stdclass", "encoding", "max-depth"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("%s lacks --%s", cmd.Name(), name)
			}
		}
		for _, name := range []string{"case-insensitive", "allow-excess"} {
			if cmd.Flags().Lookup(name) != nil {
				t.Errorf("%s has struct-only flag --%s", cmd.Name(), name)
			}
		}
	}
}

func TestDecodeFromEnvironment(t *testing.T) {
	t.Setenv("PHPSER_LIST_PROMOTION", "never")
	out, _, err := run(t, `a:1:{i:0;i:1;}`, "decode")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != `{"0":1}`+"\n" {
		t.Errorf("got %q", out)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.txt")
	if err := os.WriteFile(path, []byte(`s:2:"hi";`), 0o600); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "", "decode", path)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != `"hi"`+"\n" {
		t.Errorf("got %q", out)
	}

	if _, _, err := run(t, "", "decode", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json", `{"a":1,"b":[true,null]}`, `a:2:{s:1:"a";i:1;s:1:"b";a:2:{i:0;b:1;i:1;N;}}`},
		{"json-object", `{"__class":"Foo","x":1.5}`, `O:3:"Foo":1:{s:1:"x";d:1.5;}`},
		{"yaml", "name: Ann\nage: 41\n", `a:2:{s:4:"name";s:3:"Ann";s:3:"age";i:41;}`},
		{"yaml-object", "!php/object:User\nname: Ann\n", `O:4:"User":1:{s:4:"name";s:3:"Ann";}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.input, "encode")
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if out != tt.want+"\n" {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	encoded, _, err := run(t, `{"__class":"Foo","list":[1,2],"map":{"k":"v"}}`, "encode")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, _, err := run(t, encoded, "decode")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if want := `{"__class":"Foo","list":[1,2],"map":{"k":"v"}}` + "\n"; decoded != want {
		t.Errorf("got %q, want %q", decoded, want)
	}
}

func TestInspect(t *testing.T) {
	out, _, err := run(t, `a:1:{s:1:"k";i:5;}`, "inspect")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if want := "Array array(1) @0\n  \"k\" => Integer 5 @13\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestCheck(t *testing.T) {
	out, _, err := run(t, `b:1;`, "check")
	if err != nil || out != "ok\n" {
		t.Errorf("valid input: got %q, %v", out, err)
	}

	_, _, err = run(t, `a:2:{i:0;i:1;}`, "check")
	if err == nil || !strings.Contains(err.Error(), "declares 2 elements but contains 1") {
		t.Errorf("invalid input: got %v", err)
	}
}

func TestMetricsFlag(t *testing.T) {
	_, stderr, err := run(t, `N;`, "decode", "--metrics")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !strings.Contains(stderr, "phpserialize_deserialize_total") {
		t.Errorf("stderr lacks counters: %q", stderr)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "phpser v"+Version+"\n" {
		t.Errorf("got %q", out)
	}
}

func TestWrapString(t *testing.T) {
	got := WrapString("the quick brown fox jumps over the lazy dog and keeps running far away")
	for _, line := range strings.Split(got, "\n") {
		if len(line) > Wrap {
			t.Errorf("line %q exceeds %d characters", line, Wrap)
		}
	}
	if strings.Join(strings.Fields(got), " ") != "the quick brown fox jumps over the lazy dog and keeps running far away" {
		t.Errorf("words changed: %q", got)
	}
}
