package phpserialize

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// ClassResolver maps a PHP class name to a Go shape. It is consulted when an
// object is decoded into an interface{} target.
type ClassResolver interface {
	ResolveClass(name string) (reflect.Type, bool)
}

// ClassResolverFunc adapts a function to ClassResolver. Lookups through a
// function are not cached.
type ClassResolverFunc func(name string) (reflect.Type, bool)

// ResolveClass calls f(name).
func (f ClassResolverFunc) ResolveClass(name string) (reflect.Type, bool) {
	return f(name)
}

// ClassRegistry is a ClassResolver backed by explicit registrations.
type ClassRegistry struct {
	types *xsync.MapOf[string, reflect.Type]
}

// NewClassRegistry creates an empty registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{types: xsync.NewMapOf[string, reflect.Type]()}
}

// Register maps name to the type of sample. Pointer samples register their
// element type.
func (r *ClassRegistry) Register(name string, sample interface{}) {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.RegisterType(name, t)
}

// RegisterType maps name to t.
func (r *ClassRegistry) RegisterType(name string, t reflect.Type) {
	r.types.Store(name, t)
}

// ResolveClass implements ClassResolver.
func (r *ClassRegistry) ResolveClass(name string) (reflect.Type, bool) {
	return r.types.Load(name)
}

type typeCacheKey struct {
	resolver ClassResolver
	name     string
}

type typeCacheEntry struct {
	typ   reflect.Type
	found bool
}

// typeCache remembers lookups, including misses, per resolver and class name.
var typeCache = xsync.NewMapOf[typeCacheKey, typeCacheEntry]()

// resolveClass looks a class up through r, caching the answer when r can be
// used as a map key.
func resolveClass(r ClassResolver, name string) (reflect.Type, bool) {
	if r == nil {
		return nil, false
	}
	if !reflect.TypeOf(r).Comparable() {
		return r.ResolveClass(name)
	}
	hit := true
	e, _ := typeCache.LoadOrCompute(typeCacheKey{resolver: r, name: name}, func() typeCacheEntry {
		hit = false
		t, ok := r.ResolveClass(name)
		log.Debugf("type cache: class %q resolved=%t", name, ok)
		return typeCacheEntry{typ: t, found: ok}
	})
	if hit {
		typeCacheHits.Inc()
	} else {
		typeCacheMisses.Inc()
	}
	return e.typ, e.found
}

// ClearTypeCache forgets every cached class-name lookup. Call it after
// registering new classes on a resolver that was already used.
func ClearTypeCache() {
	typeCache.Clear()
	log.Debug("type cache cleared")
}
