// Package reflector names Go types for routing, logging and metric labels.
// Lookups are cached per reflect.Type.
package reflector

import (
	"path"
	"reflect"
	"sync"
)

// maxCacheSize bounds the type cache. Programs only ever see a small, fixed
// set of action types, so hitting the bound simply resets the cache.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds naming metadata for a type. Pointer types are described by
// their element type, with Pointer set.
type TypeInfo struct {
	Name    string       // "pkg/path.TypeName"
	Short   string       // "pkg.TypeName", suitable as a metric label
	Type    reflect.Type // element type for pointers
	Pointer bool
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for t. A nil type yields the zero TypeInfo.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = describe(t)

	muCache.Lock()
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	muCache.Unlock()

	return ti
}

func describe(t reflect.Type) TypeInfo {
	ti := TypeInfo{Type: t}
	if t.Kind() == reflect.Pointer {
		ti.Pointer = true
		ti.Type = t.Elem()
	}

	et := ti.Type
	if et.Name() == "" {
		// unnamed types (func literals, anonymous structs) have no package
		ti.Name = et.String()
		ti.Short = ti.Name
		return ti
	}
	ti.Name = et.PkgPath() + "." + et.Name()
	ti.Short = path.Base(et.PkgPath()) + "." + et.Name()
	if et.PkgPath() == "" {
		ti.Name = et.Name()
		ti.Short = et.Name()
	}
	return ti
}
