package phpserialize

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// TagKey is the struct tag consulted for wire names and slot options.
const TagKey = "php"

// ClassNamer is implemented by struct shapes that are written as PHP objects
// (O:) instead of arrays. An empty result means the Go type name.
type ClassNamer interface {
	PhpClassName() string
}

// Named is implemented by shapes that carry the runtime class name of the
// object they were decoded from. SetClassName may reject a name.
type Named interface {
	ClassName() string
	SetClassName(name string) error
}

// NamedObject can be embedded in a struct to record the decoded class name.
type NamedObject struct {
	name string
}

// ClassName returns the recorded class name.
func (n *NamedObject) ClassName() string {
	return n.name
}

// SetClassName records the class name.
func (n *NamedObject) SetClassName(name string) error {
	n.name = name
	return nil
}

// Slot describes one settable field of a struct shape.
type Slot struct {
	// Name is the Go field name.
	Name string
	// WireName is the key used on the wire.
	WireName string
	Index    []int
	Type     reflect.Type
	Ignore   bool
	// Filters lists slot filter names in tag order.
	Filters []string
}

// Descriptor is the metadata the binder and serializer need for a struct shape.
type Descriptor struct {
	Type      reflect.Type
	ClassName string
	AsObject  bool
	Slots     []Slot

	exact  map[string]int
	folded map[string]int
}

// NewDescriptor builds the lookup tables for the given slots.
func NewDescriptor(t reflect.Type, className string, asObject bool, slots []Slot) *Descriptor {
	d := &Descriptor{
		Type:      t,
		ClassName: className,
		AsObject:  asObject,
		Slots:     slots,
		exact:     make(map[string]int, len(slots)),
		folded:    make(map[string]int, len(slots)),
	}
	for i, s := range slots {
		if _, dup := d.exact[s.WireName]; !dup {
			d.exact[s.WireName] = i
		}
		key := strings.ToLower(s.WireName)
		if _, dup := d.folded[key]; !dup {
			d.folded[key] = i
		}
	}
	return d
}

// Lookup finds the slot for a wire key.
func (d *Descriptor) Lookup(key string, caseSensitive bool) (*Slot, bool) {
	i, ok := d.exact[key]
	if !ok && !caseSensitive {
		i, ok = d.folded[strings.ToLower(key)]
	}
	if !ok {
		return nil, false
	}
	return &d.Slots[i], true
}

// DescriptorProvider supplies shape metadata and default construction.
type DescriptorProvider interface {
	Describe(t reflect.Type) (*Descriptor, error)
	New(t reflect.Type) reflect.Value
}

type describeResult struct {
	desc *Descriptor
	err  error
}

// ReflectProvider discovers descriptors from struct fields and tags and
// caches them per type.
type ReflectProvider struct {
	cache *xsync.MapOf[reflect.Type, describeResult]
}

// NewReflectProvider creates a provider with its own cache.
func NewReflectProvider() *ReflectProvider {
	return &ReflectProvider{cache: xsync.NewMapOf[reflect.Type, describeResult]()}
}

var defaultProvider = NewReflectProvider()

// Describe returns the cached descriptor for a struct type.
func (p *ReflectProvider) Describe(t reflect.Type) (*Descriptor, error) {
	hit := true
	r, _ := p.cache.LoadOrCompute(t, func() describeResult {
		hit = false
		d, err := describe(t)
		log.Debugf("field cache: described %s (%d slots)", t, slotCount(d))
		return describeResult{desc: d, err: err}
	})
	if hit {
		fieldCacheHits.Inc()
	} else {
		fieldCacheMisses.Inc()
	}
	return r.desc, r.err
}

// New returns a settable zero value of t.
func (p *ReflectProvider) New(t reflect.Type) reflect.Value {
	return reflect.New(t).Elem()
}

// Clear drops every cached descriptor.
func (p *ReflectProvider) Clear() {
	p.cache.Clear()
}

// ClearFieldCache drops the descriptors cached by the default provider.
func ClearFieldCache() {
	defaultProvider.Clear()
	log.Debug("field cache cleared")
}

func slotCount(d *Descriptor) int {
	if d == nil {
		return 0
	}
	return len(d.Slots)
}

func describe(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}
	className, asObject := classNameOf(t)
	return NewDescriptor(t, className, asObject, collectSlots(t)), nil
}

func classNameOf(t reflect.Type) (string, bool) {
	cn, ok := reflect.New(t).Interface().(ClassNamer)
	if !ok {
		return "", false
	}
	if name := cn.PhpClassName(); name != "" {
		return name, true
	}
	return t.Name(), true
}

type depthSlot struct {
	Slot
	depth  int
	tagged bool
}

// collectSlots walks exported fields, flattening value-embedded structs. A
// shallower field hides a deeper one with the same wire name.
func collectSlots(t reflect.Type) []Slot {
	var all []depthSlot
	var walk func(t reflect.Type, index []int, depth int)
	walk = func(t reflect.Type, index []int, depth int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag, hasTag := sf.Tag.Lookup(TagKey)
			idx := append(append([]int(nil), index...), i)
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct && (!hasTag || tagName(tag) == "") {
				walk(sf.Type, idx, depth+1)
				continue
			}
			if !sf.IsExported() {
				continue
			}
			s := parseSlot(sf, tag)
			s.Index = idx
			all = append(all, depthSlot{Slot: s, depth: depth, tagged: hasTag && tagName(tag) != ""})
		}
	}
	walk(t, nil, 0)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].WireName != all[j].WireName {
			return all[i].WireName < all[j].WireName
		}
		if all[i].depth != all[j].depth {
			return all[i].depth < all[j].depth
		}
		return all[i].tagged && !all[j].tagged
	})
	kept := all[:0]
	for i, s := range all {
		if i > 0 && s.WireName == all[i-1].WireName {
			continue
		}
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool {
		return lessIndex(kept[i].Index, kept[j].Index)
	})

	slots := make([]Slot, len(kept))
	for i, s := range kept {
		slots[i] = s.Slot
	}
	return slots
}

func lessIndex(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func tagName(tag string) string {
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i]
	}
	return tag
}

// parseSlot reads php:"name,ignore,omitnull,omitempty,filter=x". A bare "-"
// ignores the field.
func parseSlot(sf reflect.StructField, tag string) Slot {
	s := Slot{Name: sf.Name, WireName: sf.Name, Type: sf.Type}
	if tag == "-" {
		s.Ignore = true
		return s
	}
	parts := strings.Split(tag, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		s.WireName = name
	}
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "ignore" || opt == "-":
			s.Ignore = true
		case opt == FilterOmitNull || opt == FilterOmitEmpty:
			s.Filters = append(s.Filters, opt)
		case strings.HasPrefix(opt, "filter="):
			s.Filters = append(s.Filters, strings.TrimPrefix(opt, "filter="))
		}
	}
	return s
}
