package phpserialize

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
)

// DefaultMaxDepth is the default maximum nesting depth of arrays and objects.
const DefaultMaxDepth = 1000

// ListPromotion decides when a PHP array becomes a list rather than a map.
type ListPromotion uint8

const (
	// ListOnConsecutiveKeys promotes arrays whose keys are exactly 0..n-1 in order.
	ListOnConsecutiveKeys ListPromotion = iota
	// ListNever keeps every array as a map.
	ListNever
	// ListOnAnyIntegerKeys promotes arrays whose keys are all integers.
	ListOnAnyIntegerKeys
)

// String returns the policy name.
func (p ListPromotion) String() string {
	switch p {
	case ListOnConsecutiveKeys:
		return "consecutive"
	case ListNever:
		return "never"
	case ListOnAnyIntegerKeys:
		return "any"
	default:
		return fmt.Sprintf("ListPromotion(%d)", p)
	}
}

// ParseListPromotion parses the names returned by ListPromotion.String.
func ParseListPromotion(s string) (ListPromotion, error) {
	switch strings.ToLower(s) {
	case "consecutive", "":
		return ListOnConsecutiveKeys, nil
	case "never":
		return ListNever, nil
	case "any":
		return ListOnAnyIntegerKeys, nil
	}
	return 0, fmt.Errorf("phpserialize: unknown list promotion %q (want consecutive, never or any)", s)
}

// StdClassPolicy decides what an anonymous stdClass object decodes to.
type StdClassPolicy uint8

const (
	// StdClassToMap decodes stdClass as an ordered string-keyed map.
	StdClassToMap StdClassPolicy = iota
	// StdClassToDynamic decodes stdClass as an *Object, or a *GoObject for
	// interface{} targets.
	StdClassToDynamic
	// StdClassThrow rejects stdClass with an UnsupportedStdClassError.
	StdClassThrow
)

// String returns the policy name.
func (p StdClassPolicy) String() string {
	switch p {
	case StdClassToMap:
		return "map"
	case StdClassToDynamic:
		return "dynamic"
	case StdClassThrow:
		return "throw"
	default:
		return fmt.Sprintf("StdClassPolicy(%d)", p)
	}
}

// ParseStdClassPolicy parses the names returned by StdClassPolicy.String.
func ParseStdClassPolicy(s string) (StdClassPolicy, error) {
	switch strings.ToLower(s) {
	case "map", "":
		return StdClassToMap, nil
	case "dynamic":
		return StdClassToDynamic, nil
	case "throw":
		return StdClassThrow, nil
	}
	return 0, fmt.Errorf("phpserialize: unknown stdClass policy %q (want map, dynamic or throw)", s)
}

// DecodeOptions configures tokenizing, materializing and binding. A value is
// built once per call and never mutated afterwards.
type DecodeOptions struct {
	// CaseSensitiveKeys controls struct field matching.
	CaseSensitiveKeys bool
	// AllowExcessKeys skips keys that match no struct field instead of failing.
	AllowExcessKeys bool
	ListPromotion   ListPromotion
	// EmptyStringToDefault binds "" to the zero value of non-string shapes.
	EmptyStringToDefault bool
	// NumericStringToBool binds the strings "0" and "1" to bool targets.
	NumericStringToBool bool
	// InputEncoding decodes string payloads. Nil means UTF-8 (bytes kept as is).
	InputEncoding encoding.Encoding
	StdClass      StdClassPolicy
	// MaxDepth bounds array/object nesting. Zero or negative disables the check.
	MaxDepth int
	Provider DescriptorProvider
	Resolver ClassResolver
}

// DefaultDecodeOptions returns the default decode configuration.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		CaseSensitiveKeys:    true,
		AllowExcessKeys:      false,
		ListPromotion:        ListOnConsecutiveKeys,
		EmptyStringToDefault: true,
		NumericStringToBool:  false,
		StdClass:             StdClassToMap,
		MaxDepth:             DefaultMaxDepth,
	}
}

// Option configures decoding.
type Option func(*DecodeOptions)

// WithDecodeOptions replaces the whole configuration.
func WithDecodeOptions(o DecodeOptions) Option {
	return func(d *DecodeOptions) {
		*d = o
	}
}

// WithCaseSensitiveKeys sets whether struct keys match case-sensitively (default true).
func WithCaseSensitiveKeys(enabled bool) Option {
	return func(d *DecodeOptions) {
		d.CaseSensitiveKeys = enabled
	}
}

// WithAllowExcessKeys sets whether unknown struct keys are skipped (default false).
func WithAllowExcessKeys(enabled bool) Option {
	return func(d *DecodeOptions) {
		d.AllowExcessKeys = enabled
	}
}

// WithListPromotion sets the array-to-list policy.
func WithListPromotion(p ListPromotion) Option {
	return func(d *DecodeOptions) {
		d.ListPromotion = p
	}
}

// WithEmptyStringToDefault sets whether "" binds to zero values (default true).
func WithEmptyStringToDefault(enabled bool) Option {
	return func(d *DecodeOptions) {
		d.EmptyStringToDefault = enabled
	}
}

// WithNumericStringToBool sets whether "0"/"1" bind to bool (default false).
func WithNumericStringToBool(enabled bool) Option {
	return func(d *DecodeOptions) {
		d.NumericStringToBool = enabled
	}
}

// WithInputEncoding sets the charset of string payloads, e.g. charmap.ISO8859_1.
func WithInputEncoding(enc encoding.Encoding) Option {
	return func(d *DecodeOptions) {
		d.InputEncoding = enc
	}
}

// WithStdClassPolicy sets how stdClass objects decode.
func WithStdClassPolicy(p StdClassPolicy) Option {
	return func(d *DecodeOptions) {
		d.StdClass = p
	}
}

// WithMaxDepth sets the maximum nesting depth (default 1000).
func WithMaxDepth(depth int) Option {
	return func(d *DecodeOptions) {
		d.MaxDepth = depth
	}
}

// WithDescriptorProvider replaces the reflection-based descriptor provider.
func WithDescriptorProvider(p DescriptorProvider) Option {
	return func(d *DecodeOptions) {
		d.Provider = p
	}
}

// WithClassResolver enables class-name lookup for objects bound into
// interface{} targets.
func WithClassResolver(r ClassResolver) Option {
	return func(d *DecodeOptions) {
		d.Resolver = r
	}
}

func newDecodeOptions(opts []Option) DecodeOptions {
	o := DefaultDecodeOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Provider == nil {
		o.Provider = defaultProvider
	}
	return o
}

// SerializeOptions configures serialization.
type SerializeOptions struct {
	// ThrowOnCircularReference fails instead of writing N; for a revisited reference.
	ThrowOnCircularReference bool
	// NumericEnums writes Enum values as integers rather than member names.
	NumericEnums bool
	Filters      map[string]SlotFilter
	Provider     DescriptorProvider
}

// DefaultSerializeOptions returns the default serialize configuration.
func DefaultSerializeOptions() SerializeOptions {
	return SerializeOptions{
		ThrowOnCircularReference: false,
		NumericEnums:             true,
	}
}

// SerializeOption configures serialization.
type SerializeOption func(*SerializeOptions)

// WithThrowOnCircularReference sets whether cycles are an error (default false).
func WithThrowOnCircularReference(enabled bool) SerializeOption {
	return func(s *SerializeOptions) {
		s.ThrowOnCircularReference = enabled
	}
}

// WithNumericEnums sets whether enums are written by value (default true).
func WithNumericEnums(enabled bool) SerializeOption {
	return func(s *SerializeOptions) {
		s.NumericEnums = enabled
	}
}

// WithSlotFilter registers a filter usable from struct tags as filter=name.
func WithSlotFilter(name string, f SlotFilter) SerializeOption {
	return func(s *SerializeOptions) {
		filters := make(map[string]SlotFilter, len(s.Filters)+1)
		for k, v := range s.Filters {
			filters[k] = v
		}
		filters[name] = f
		s.Filters = filters
	}
}

// WithSerializeProvider replaces the descriptor provider used for structs.
func WithSerializeProvider(p DescriptorProvider) SerializeOption {
	return func(s *SerializeOptions) {
		s.Provider = p
	}
}

func newSerializeOptions(opts []SerializeOption) SerializeOptions {
	o := DefaultSerializeOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Provider == nil {
		o.Provider = defaultProvider
	}
	return o
}
