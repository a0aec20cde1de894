package entity

import (
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ComponentID is a stable identifier of a concrete component type, derived
// from its fully qualified type name.
type ComponentID uint64

// Kind tags an entity for type-based queries. Kinds compare by value, so two
// entities spawned from unrelated templates with the same kind name match.
type Kind uint64

// NoKind is the kind of an entity created without one.
const NoKind Kind = 0

func KindOf(name string) Kind {
	if name == "" {
		return NoKind
	}
	return Kind(xxhash.Sum64String(name))
}

var componentIDs sync.Map // reflect.Type -> ComponentID

// ComponentIDOf returns the identifier of T. T is normally a pointer to a
// component struct, e.g. ComponentIDOf[*attack.EntityAttack]().
func ComponentIDOf[T any]() ComponentID {
	return componentIDFor(reflect.TypeOf((*T)(nil)).Elem())
}

func componentIDFor(t reflect.Type) ComponentID {
	if id, ok := componentIDs.Load(t); ok {
		return id.(ComponentID)
	}
	id := ComponentID(xxhash.Sum64String(qualifiedName(t)))
	componentIDs.Store(t, id)
	return id
}

func qualifiedName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + qualifiedName(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
