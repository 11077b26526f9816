package phpserialize

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

type bindAddress struct {
	City string `php:"city"`
	Zip  string `php:"zip"`
}

type bindUser struct {
	ID      int            `php:"id"`
	Name    string         `php:"name"`
	Email   *string        `php:"email"`
	Tags    []string       `php:"tags"`
	Scores  map[string]int `php:"scores"`
	Address bindAddress    `php:"address"`
	Secret  string         `php:"-"`
}

type bindBase struct {
	ID int `php:"id"`
}

type bindEmbedded struct {
	bindBase
	Name string `php:"name"`
}

type namedUser struct {
	NamedObject
	Name string `php:"name"`
}

type color int

const (
	red   color = 1
	green color = 2
)

func (color) PhpEnumMembers() []EnumMember {
	return []EnumMember{{Name: "Red", Value: 1}, {Name: "Green", Value: 2}}
}

const userInput = `a:7:{s:2:"id";i:7;s:4:"name";s:3:"Ann";s:5:"email";N;` +
	`s:4:"tags";a:2:{i:0;s:1:"a";i:1;s:1:"b";}s:6:"scores";a:1:{s:4:"math";i:90;}` +
	`s:7:"address";a:2:{s:4:"city";s:4:"Oslo";s:3:"zip";i:150;}s:6:"Secret";s:1:"x";}`

func TestBindStruct(t *testing.T) {
	u, err := DeserializeAs[bindUser]([]byte(userInput))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	want := bindUser{
		ID:      7,
		Name:    "Ann",
		Tags:    []string{"a", "b"},
		Scores:  map[string]int{"math": 90},
		Address: bindAddress{City: "Oslo", Zip: "150"},
	}
	if !reflect.DeepEqual(u, want) {
		t.Errorf("got %+v, want %+v", u, want)
	}
}

func TestBindObjectIntoStruct(t *testing.T) {
	u, err := DeserializeAs[bindUser]([]byte(`O:4:"User":1:{s:4:"name";s:3:"Bob";}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if u.Name != "Bob" {
		t.Errorf("name = %q, want Bob", u.Name)
	}
}

func TestBindIntegerKeysIntoStruct(t *testing.T) {
	type pair struct {
		First  string `php:"0"`
		Second string `php:"1"`
	}
	p, err := DeserializeAs[pair]([]byte(`a:2:{i:0;s:1:"x";i:1;s:1:"y";}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if p.First != "x" || p.Second != "y" {
		t.Errorf("got %+v", p)
	}

	_, err = DeserializeAs[pair]([]byte(`a:1:{d:0.5;s:1:"x";}`))
	if !errors.Is(err, ErrBinding) {
		t.Errorf("float key: got %v, want ErrBinding", err)
	}
}

func TestBindEmbeddedStruct(t *testing.T) {
	e, err := DeserializeAs[bindEmbedded]([]byte(`a:2:{s:2:"id";i:3;s:4:"name";s:1:"n";}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if e.ID != 3 || e.Name != "n" {
		t.Errorf("got %+v", e)
	}
}

func TestBindCaseSensitivity(t *testing.T) {
	input := []byte(`a:1:{s:4:"NAME";s:3:"Ann";}`)

	if _, err := DeserializeAs[bindUser](input); !errors.Is(err, ErrBinding) {
		t.Errorf("case-sensitive: got %v, want ErrBinding", err)
	}
	u, err := DeserializeAs[bindUser](input, WithCaseSensitiveKeys(false))
	if err != nil {
		t.Fatalf("case-insensitive: %v", err)
	}
	if u.Name != "Ann" {
		t.Errorf("name = %q, want Ann", u.Name)
	}
}

func TestBindExcessKeys(t *testing.T) {
	input := []byte(`a:2:{s:4:"name";s:3:"Ann";s:5:"extra";i:1;}`)

	_, err := DeserializeAs[bindUser](input)
	var be *BindingError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BindingError", err)
	}
	if be.Slot != "extra" || !strings.Contains(err.Error(), "no such field/property") {
		t.Errorf("got %v", err)
	}

	u, err := DeserializeAs[bindUser](input, WithAllowExcessKeys(true))
	if err != nil {
		t.Fatalf("AllowExcessKeys: %v", err)
	}
	if u.Name != "Ann" {
		t.Errorf("name = %q, want Ann", u.Name)
	}
}

func TestBindPrivateProperties(t *testing.T) {
	type priv struct {
		Name string `php:"name"`
		Age  int    `php:"age"`
	}
	input := "O:4:\"Priv\":2:{s:10:\"\x00Priv\x00name\";s:1:\"a\";s:6:\"\x00*\x00age\";i:3;}"
	p, err := DeserializeAs[priv]([]byte(input))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if p.Name != "a" || p.Age != 3 {
		t.Errorf("got %+v", p)
	}
}

func TestBindPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  interface{}
	}{
		{"string-to-int", `s:2:"42";`, 42},
		{"empty-string-to-int", `s:0:"";`, 0},
		{"empty-string-to-bool", `s:0:"";`, false},
		{"int-to-float", `i:3;`, float64(3)},
		{"float-to-int", `d:3;`, int64(3)},
		{"float-to-float32", `d:0.5;`, float32(0.5)},
		{"bool-to-int", `b:1;`, 1},
		{"bool-to-float", `b:1;`, float64(1)},
		{"bool-to-string", `b:1;`, "true"},
		{"int-to-string", `i:5;`, "5"},
		{"true-text-to-bool", `s:4:"True";`, true},
		{"int8-max", `i:127;`, int8(127)},
		{"uint", `i:5;`, uint(5)},
		{"uint64-large", `s:20:"18446744073709551615";`, uint64(math.MaxUint64)},
		{"float-inf", `d:INF;`, math.Inf(1)},
		{"null-to-int", `N;`, 0},
		{"null-to-string", `N;`, ""},
		{"string-to-bytes", `s:3:"abc";`, []byte("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeserializeType([]byte(tt.input), reflect.TypeOf(tt.want))
			if err != nil {
				t.Fatalf("DeserializeType failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBindPrimitiveErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		shape interface{}
	}{
		{"int8-overflow", `i:128;`, int8(0)},
		{"uint-negative", `i:-1;`, uint(0)},
		{"text-to-int", `s:3:"abc";`, 0},
		{"fraction-to-int", `d:1.5;`, 0},
		{"numeric-string-to-bool", `s:1:"1";`, false},
		{"int-to-bool", `i:1;`, false},
		{"array-to-int", `a:0:{}`, 0},
		{"float32-overflow", `d:1.0E+300;`, float32(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeserializeType([]byte(tt.input), reflect.TypeOf(tt.shape))
			if !errors.Is(err, ErrBinding) {
				t.Fatalf("got %v, want ErrBinding", err)
			}
			var be *BindingError
			if errors.As(err, &be) && be.Shape != reflect.TypeOf(tt.shape).String() {
				t.Errorf("shape = %q, want %q", be.Shape, reflect.TypeOf(tt.shape))
			}
		})
	}
}

func TestBindErrorMessage(t *testing.T) {
	_, err := DeserializeAs[int]([]byte(`s:3:"abc";`))
	if err == nil || !strings.HasPrefix(err.Error(), `phpserialize: cannot bind "abc" at position 0 to int`) {
		t.Errorf("got %v", err)
	}
}

func TestEmptyStringToDefaultDisabled(t *testing.T) {
	_, err := DeserializeAs[int]([]byte(`s:0:"";`), WithEmptyStringToDefault(false))
	if !errors.Is(err, ErrBinding) {
		t.Errorf("got %v, want ErrBinding", err)
	}
}

func TestNumericStringToBool(t *testing.T) {
	for input, want := range map[string]bool{`s:1:"1";`: true, `s:1:"0";`: false} {
		got, err := DeserializeAs[bool]([]byte(input), WithNumericStringToBool(true))
		if err != nil {
			t.Fatalf("%s: %v", input, err)
		}
		if got != want {
			t.Errorf("%s: got %v, want %v", input, got, want)
		}
	}
}

func TestBindEnum(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  color
	}{
		{"by-name", `s:5:"Green";`, green},
		{"by-value", `i:1;`, red},
		{"by-float-value", `d:2;`, green},
		{"empty-string", `s:0:"";`, 0},
		{"null", `N;`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeserializeAs[color]([]byte(tt.input))
			if err != nil {
				t.Fatalf("DeserializeAs failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBindEnumNoMatch(t *testing.T) {
	for _, input := range []string{`s:4:"Blue";`, `s:3:"red";`, `i:9;`} {
		_, err := DeserializeAs[color]([]byte(input))
		if !errors.Is(err, ErrBinding) || !strings.Contains(err.Error(), "no member of enum") {
			t.Errorf("%s: got %v", input, err)
		}
	}
}

func TestBindList(t *testing.T) {
	got, err := DeserializeAs[[]int]([]byte(`a:3:{i:0;i:10;i:2;i:30;i:1;i:20;}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{10, 30, 20}) {
		t.Errorf("got %v, want encounter order [10 30 20]", got)
	}

	arr, err := DeserializeAs[[3]int]([]byte(`a:2:{i:0;i:1;i:1;i:2;}`))
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if arr != [3]int{1, 2, 0} {
		t.Errorf("got %v", arr)
	}

	if _, err := DeserializeAs[[1]int]([]byte(`a:2:{i:0;i:1;i:1;i:2;}`)); !errors.Is(err, ErrBinding) {
		t.Errorf("overfull array: got %v, want ErrBinding", err)
	}
}

func TestBindListRejectsStringKeys(t *testing.T) {
	_, err := DeserializeAs[[]int]([]byte(`a:2:{i:0;i:1;s:1:"a";i:2;}`))
	var be *BindingError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BindingError", err)
	}
	if be.Pos != 13 || be.Value != `"a"` || !strings.Contains(be.Msg, "element 1") {
		t.Errorf("got pos=%d value=%s msg=%q", be.Pos, be.Value, be.Msg)
	}
}

func TestBindMap(t *testing.T) {
	got, err := DeserializeAs[map[int]string]([]byte(`a:2:{i:3;s:1:"c";i:1;s:1:"a";}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if !reflect.DeepEqual(got, map[int]string{1: "a", 3: "c"}) {
		t.Errorf("got %v", got)
	}

	if _, err := DeserializeAs[map[string]int]([]byte(`O:8:"stdClass":0:{}`)); !errors.Is(err, ErrBinding) {
		t.Errorf("object into map: got %v, want ErrBinding", err)
	}
}

func TestBindNestedFailureNamesSlots(t *testing.T) {
	_, err := DeserializeAs[bindUser]([]byte(`a:1:{s:7:"address";a:1:{s:3:"zip";a:0:{}}}`))
	var be *BindingError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BindingError", err)
	}
	if be.Shape != "phpserialize.bindUser" || be.Slot != "Address" {
		t.Errorf("outer error names %s.%s", be.Shape, be.Slot)
	}
	if !strings.Contains(err.Error(), "phpserialize.bindAddress.Zip") {
		t.Errorf("error %q does not name the inner slot", err)
	}
}

func TestBindNamedObject(t *testing.T) {
	u, err := DeserializeAs[namedUser]([]byte(`O:8:"App\User":1:{s:4:"name";s:1:"x";}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if u.ClassName() != `App\User` || u.Name != "x" {
		t.Errorf("got class %q, name %q", u.ClassName(), u.Name)
	}
}

func TestBindDateTime(t *testing.T) {
	input := `O:8:"DateTime":3:{s:4:"date";s:26:"2024-01-02 03:04:05.000000";` +
		`s:13:"timezone_type";i:3;s:8:"timezone";s:3:"UTC";}`

	tm, err := DeserializeAs[time.Time]([]byte(input))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC); !tm.Equal(want) {
		t.Errorf("got %v, want %v", tm, want)
	}

	d, err := DeserializeAs[DateTime]([]byte(input))
	if err != nil {
		t.Fatalf("DateTime: %v", err)
	}
	if d.Timezone != "UTC" || d.TimezoneType != TimezoneIdentifier {
		t.Errorf("got %+v", d)
	}
}

func TestBindDateTimeRejectsOtherClass(t *testing.T) {
	_, err := DeserializeAs[DateTime]([]byte(`O:3:"Foo":0:{}`))
	if !errors.Is(err, ErrBinding) || !strings.Contains(err.Error(), "cannot be stored in a DateTime") {
		t.Errorf("got %v", err)
	}
}

func TestBindInterfaceWithResolver(t *testing.T) {
	input := []byte(`a:1:{i:0;O:4:"User":1:{s:4:"name";s:3:"Ann";}}`)

	var plain interface{}
	if err := Unmarshal(input, &plain); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if obj, ok := plain.([]interface{})[0].(*GoObject); !ok || obj.ClassName() != "User" {
		t.Errorf("without resolver got %#v, want *GoObject", plain)
	}

	reg := NewClassRegistry()
	reg.Register("User", &bindUser{})
	var typed interface{}
	if err := Unmarshal(input, &typed, WithClassResolver(reg)); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	u, ok := typed.([]interface{})[0].(*bindUser)
	if !ok || u.Name != "Ann" {
		t.Errorf("with resolver got %#v, want *bindUser", typed)
	}
}

func TestBindInterfaceResolvesNestedObjects(t *testing.T) {
	reg := NewClassRegistry()
	reg.Register("Inner", &bindAddress{})

	tests := []struct {
		name  string
		input string
		opts  []Option
	}{
		{"unregistered-object", `O:5:"Outer":1:{s:1:"b";O:5:"Inner":1:{s:4:"city";s:4:"Oslo";}}`, nil},
		{"stdclass-dynamic", `O:8:"stdClass":1:{s:1:"b";O:5:"Inner":1:{s:4:"city";s:4:"Oslo";}}`,
			[]Option{WithStdClassPolicy(StdClassToDynamic)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v interface{}
			opts := append([]Option{WithClassResolver(reg)}, tt.opts...)
			if err := Unmarshal([]byte(tt.input), &v, opts...); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			outer, ok := v.(*GoObject)
			if !ok {
				t.Fatalf("got %T, want *GoObject", v)
			}
			inner, _ := outer.Get("b")
			if a, ok := inner.(*bindAddress); !ok || a.City != "Oslo" {
				t.Errorf("nested got %#v, want *bindAddress", inner)
			}
		})
	}

	var v interface{}
	input := `O:8:"stdClass":1:{s:1:"b";O:5:"Inner":1:{s:4:"city";s:4:"Oslo";}}`
	if err := Unmarshal([]byte(input), &v, WithClassResolver(reg)); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m, ok := v.(map[string]interface{}); !ok {
		t.Errorf("stdClass as map: got %T", v)
	} else if _, ok := m["b"].(*bindAddress); !ok {
		t.Errorf("nested in map: got %T, want *bindAddress", m["b"])
	}
}

func TestTypeCacheClear(t *testing.T) {
	reg := NewClassRegistry()
	input := []byte(`O:4:"Late":1:{s:4:"name";s:1:"z";}`)

	var v interface{}
	if err := Unmarshal(input, &v, WithClassResolver(reg)); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := v.(*GoObject); !ok {
		t.Fatalf("got %T, want *GoObject", v)
	}

	reg.Register("Late", namedUser{})
	if err := Unmarshal(input, &v, WithClassResolver(reg)); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := v.(*GoObject); !ok {
		t.Errorf("cached miss: got %T, want *GoObject", v)
	}

	ClearTypeCache()
	if err := Unmarshal(input, &v, WithClassResolver(reg)); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	u, ok := v.(*namedUser)
	if !ok || u.Name != "z" || u.ClassName() != "Late" {
		t.Errorf("after clear: got %#v", v)
	}
}

func TestUnmarshalArguments(t *testing.T) {
	var u bindUser
	for _, target := range []interface{}{nil, u, (*bindUser)(nil)} {
		err := Unmarshal([]byte(`N;`), target)
		var ie *InvalidArgumentError
		if !errors.As(err, &ie) || ie.Argument != "v" {
			t.Errorf("%T: got %v, want InvalidArgumentError", target, err)
		}
	}

	if _, err := DeserializeType([]byte(`N;`), nil); err == nil {
		t.Error("nil shape accepted")
	}
}

func TestUnmarshalLeavesTargetOnFailure(t *testing.T) {
	u := bindUser{Name: "keep"}
	if err := Unmarshal([]byte(`a:2:{s:4:"name";s:3:"new";s:2:"id";s:1:"x";}`), &u); err == nil {
		t.Fatal("expected error")
	}
	if u.Name != "keep" {
		t.Errorf("name = %q, want it unchanged", u.Name)
	}
}

func TestBindValueTarget(t *testing.T) {
	type holder struct {
		Payload Value `php:"payload"`
	}
	h, err := DeserializeAs[holder]([]byte(`a:1:{s:7:"payload";a:1:{s:1:"k";d:1.5;}}`))
	if err != nil {
		t.Fatalf("DeserializeAs failed: %v", err)
	}
	if got, _ := h.Payload.AsMap().GetString("k"); got.AsFloat() != 1.5 {
		t.Errorf("got %#v", h.Payload)
	}
}

func TestFieldCacheClear(t *testing.T) {
	if _, err := DeserializeAs[bindUser]([]byte(userInput)); err != nil {
		t.Fatal(err)
	}
	ClearFieldCache()
	if _, err := DeserializeAs[bindUser]([]byte(userInput)); err != nil {
		t.Fatalf("after clear: %v", err)
	}
}
