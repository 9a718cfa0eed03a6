// Package reflection describes the domain types that feed the mapping graph.
//
// It is the discovery side of the mapping: a Model holds the types known to
// the application (domain objects, persistent mixins, interfaces and value
// types) together with their declared members. The mapping package consumes
// these values as opaque handles, the load package produces them from
// descriptor files.
package reflection

import (
	"strings"
)

// Kind classifies a type for mapping purposes.
type Kind uint8

// Type kinds.
const (
	KindValue        Kind = iota // Scalar value (string, int, time, ...).
	KindObjectID                 // Identifier of a domain object.
	KindDomainObject             // Mapped domain object type.
	KindCollection               // Collection of domain objects.
	KindMixin                    // Persistent mixin contributing members to domain types.
	KindInterface                // Interface implemented by domain types or mixins.
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindObjectID:
		return "object-id"
	case KindDomainObject:
		return "domain"
	case KindCollection:
		return "collection"
	case KindMixin:
		return "mixin"
	case KindInterface:
		return "interface"
	default:
		return "unknown"
	}
}

// Type is a handle for one type known to the discovery layer. Type values are
// compared by identity.
type Type struct {
	// Name is the qualified type name, e.g. "Shop.Order".
	Name string
	// Kind classifies the type.
	Kind Kind
	// Base is the base type, nil for inheritance roots.
	Base *Type
	// Abstract marks types that cannot be instantiated.
	Abstract bool
	// Elem holds the element type of collection types.
	Elem *Type
	// Definition holds the generic type definition of an instantiated
	// generic type. Nil for non-generic types.
	Definition *Type
	// Interfaces are the interfaces declared by this type.
	Interfaces []*Type
	// Mixins are the persistent mixins applied to this domain type.
	Mixins []*Type
	// Members holds the members declared on this type (not inherited ones).
	Members []*Member
	// Implementations maps an interface member (qualified as
	// "Interface.Member") to the name of the member implementing it on this
	// type. Members implemented by name do not need an entry.
	Implementations map[string]string

	// ClassID overrides the class ID derived from the short type name.
	ClassID string
	// EntityName is the storage entity (table) declared for the type.
	EntityName string
	// StorageGroup selects the storage provider of an inheritance hierarchy.
	StorageGroup string
}

// String implements the fmt.Stringer interface.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// ShortName returns the type name without its namespace.
func (t *Type) ShortName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// AddMember declares a new member on the type and returns it.
func (t *Type) AddMember(m *Member) *Member {
	m.DeclaringType = t
	t.Members = append(t.Members, m)
	return m
}

// Member returns the member with the given name declared on t, or nil.
func (t *Type) Member(name string) *Member {
	for _, m := range t.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindMember looks up a member by name on t and then on its base types.
func (t *Type) FindMember(name string) *Member {
	for c := t; c != nil; c = c.Base {
		if m := c.Member(name); m != nil {
			return m
		}
	}
	return nil
}

// IsSubclassOf reports whether other is a strict ancestor of t.
func (t *Type) IsSubclassOf(other *Type) bool {
	if other == nil {
		return false
	}
	for c := t.Base; c != nil; c = c.Base {
		if c == other {
			return true
		}
	}
	return false
}

// IsSameOrSubclassOf reports whether t is other or derives from it.
func (t *Type) IsSameOrSubclassOf(other *Type) bool {
	return t == other || t.IsSubclassOf(other)
}

// Implements reports whether t, or one of its base types, implements the
// given interface, directly or through interface inheritance.
func (t *Type) Implements(iface *Type) bool {
	if iface == nil || iface.Kind != KindInterface {
		return false
	}
	for c := t; c != nil; c = c.Base {
		for _, i := range c.Interfaces {
			if i.extends(iface) {
				return true
			}
		}
	}
	return false
}

func (t *Type) extends(iface *Type) bool {
	if t == iface {
		return true
	}
	for _, i := range t.Interfaces {
		if i.extends(iface) {
			return true
		}
	}
	return false
}

// ImplementationOf maps a member declared on an interface to the member of t
// (or one of its base types) implementing it. It returns nil if t does not
// implement the interface or no implementing member exists.
func (t *Type) ImplementationOf(m *Member) *Member {
	if m == nil || m.DeclaringType == nil || !t.Implements(m.DeclaringType) {
		return nil
	}
	key := m.String()
	for c := t; c != nil; c = c.Base {
		if name, ok := c.Implementations[key]; ok {
			return c.FindMember(name)
		}
	}
	return t.FindMember(m.Name)
}

// GenericDefinition returns the generic type definition of t, or t itself
// if it is not an instantiated generic type.
func (t *Type) GenericDefinition() *Type {
	if t.Definition != nil {
		return t.Definition
	}
	return t
}

// Predeclared value types shared by all models.
var (
	String   = &Type{Name: "string", Kind: KindValue}
	Int      = &Type{Name: "int", Kind: KindValue}
	Int32    = &Type{Name: "int32", Kind: KindValue}
	Int64    = &Type{Name: "int64", Kind: KindValue}
	Bool     = &Type{Name: "bool", Kind: KindValue}
	Float64  = &Type{Name: "float64", Kind: KindValue}
	Decimal  = &Type{Name: "decimal", Kind: KindValue}
	Time     = &Type{Name: "time", Kind: KindValue}
	UUID     = &Type{Name: "uuid", Kind: KindValue}
	Bytes    = &Type{Name: "bytes", Kind: KindValue}
	ObjectID = &Type{Name: "ObjectID", Kind: KindObjectID}
)

var predeclared = []*Type{String, Int, Int32, Int64, Bool, Float64, Decimal, Time, UUID, Bytes, ObjectID}
