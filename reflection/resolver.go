package reflection

import "strings"

// NameResolver maps members to the qualified identifiers used by the
// mapping graph, and back.
type NameResolver interface {
	// PropertyName returns the qualified identifier of the member.
	PropertyName(m *Member) string
	// Member returns the member of t (its base types or mixins) that the
	// given identifier denotes, or nil.
	Member(t *Type, propertyName string) *Member
}

// ReflectionNameResolver qualifies members with the name of their declaring
// type: "Shop.Order.Number".
type ReflectionNameResolver struct{}

// PropertyName implements NameResolver.
func (ReflectionNameResolver) PropertyName(m *Member) string {
	return m.String()
}

// Member implements NameResolver.
func (ReflectionNameResolver) Member(t *Type, propertyName string) *Member {
	i := strings.LastIndexByte(propertyName, '.')
	if i <= 0 || i == len(propertyName)-1 {
		return nil
	}
	typeName, name := propertyName[:i], propertyName[i+1:]
	for c := t; c != nil; c = c.Base {
		if c.Name == typeName {
			return c.Member(name)
		}
		for _, mx := range c.Mixins {
			if mx.Name == typeName {
				return mx.Member(name)
			}
		}
	}
	return nil
}

var _ NameResolver = ReflectionNameResolver{}

// MixinFinder reports the persistent mixins applied to a domain type.
type MixinFinder interface {
	PersistentMixins(t *Type) []*Type
}

// The MixinFinderFunc type is an adapter to allow the use of ordinary
// functions as MixinFinder.
type MixinFinderFunc func(*Type) []*Type

// PersistentMixins calls f(t).
func (f MixinFinderFunc) PersistentMixins(t *Type) []*Type { return f(t) }

// DeclaredMixins finds the mixins declared on the type itself.
type DeclaredMixins struct{}

// PersistentMixins implements MixinFinder.
func (DeclaredMixins) PersistentMixins(t *Type) []*Type {
	var mixins []*Type
	for _, mx := range t.Mixins {
		if mx.Kind == KindMixin {
			mixins = append(mixins, mx)
		}
	}
	return mixins
}
