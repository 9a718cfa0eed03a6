package mapping

import (
	"strings"
	"sync"

	"github.com/syssam/ormap/reflection"
)

// AccessorKind tells how a property is accessed on a domain object.
type AccessorKind uint8

// Accessor kinds.
const (
	PropertyValue AccessorKind = iota
	RelatedObject
	RelatedObjectCollection
)

// String returns the accessor kind name.
func (k AccessorKind) String() string {
	switch k {
	case PropertyValue:
		return "PropertyValue"
	case RelatedObject:
		return "RelatedObject"
	case RelatedObjectCollection:
		return "RelatedObjectCollection"
	default:
		return "Unknown"
	}
}

// PropertyAccessorData describes how one property of a class is accessed.
type PropertyAccessorData struct {
	ClassDefinition    *ClassDefinition
	PropertyIdentifier string
	Kind               AccessorKind
	// DeclaringTypeName and ShortName split the identifier.
	DeclaringTypeName string
	ShortName         string
	// PropertyDefinition is nil for virtual relation end points.
	PropertyDefinition *PropertyDefinition
	// RelationEndPoint is nil for plain value properties.
	RelationEndPoint RelationEndPointDefinition
}

type accessorKey struct {
	typeName  string
	shortName string
}

// PropertyAccessorDataCache indexes the accessor data of a class by
// identifier and by declaring type and short name. Both indices are built
// on first use.
type PropertyAccessorDataCache struct {
	class     *ClassDefinition
	resolver  reflection.NameResolver
	byID      func() map[string]*PropertyAccessorData
	byTypeKey func() map[accessorKey]*PropertyAccessorData
}

// NewPropertyAccessorDataCache returns the accessor cache of the class.
func NewPropertyAccessorDataCache(class *ClassDefinition, resolver reflection.NameResolver) *PropertyAccessorDataCache {
	if resolver == nil {
		resolver = reflection.ReflectionNameResolver{}
	}
	c := &PropertyAccessorDataCache{class: class, resolver: resolver}
	c.byID = sync.OnceValue(c.buildByID)
	c.byTypeKey = sync.OnceValue(c.buildByTypeKey)
	return c
}

// ClassDefinition returns the class the cache describes.
func (c *PropertyAccessorDataCache) ClassDefinition() *ClassDefinition { return c.class }

// GetPropertyAccessorData returns the accessor data of the property with
// the given identifier, or nil.
func (c *PropertyAccessorDataCache) GetPropertyAccessorData(identifier string) *PropertyAccessorData {
	return c.byID()[identifier]
}

// GetMandatoryPropertyAccessorData is like GetPropertyAccessorData but
// fails if the property does not exist.
func (c *PropertyAccessorDataCache) GetMandatoryPropertyAccessorData(identifier string) (*PropertyAccessorData, error) {
	if d := c.GetPropertyAccessorData(identifier); d != nil {
		return d, nil
	}
	return nil, NewMappingError(c.class.ID(), identifier, "class has no mapped property with that identifier")
}

// ResolvePropertyAccessorData returns the accessor data of the property the
// member denotes, or nil. Members declared on interfaces are resolved
// through the class type and then the persistent mixins of the class and
// its ancestors.
func (c *PropertyAccessorDataCache) ResolvePropertyAccessorData(m *reflection.Member) *PropertyAccessorData {
	if m == nil {
		return nil
	}
	if m.DeclaringType == nil || m.DeclaringType.Kind != reflection.KindInterface {
		return c.GetPropertyAccessorData(c.resolver.PropertyName(m))
	}
	for _, t := range c.implementationCandidates() {
		if !t.Implements(m.DeclaringType) {
			continue
		}
		impl := t.ImplementationOf(m)
		if impl == nil {
			continue
		}
		if d := c.GetPropertyAccessorData(c.resolver.PropertyName(impl)); d != nil {
			return d
		}
	}
	return nil
}

// ResolveMandatoryPropertyAccessorData is like ResolvePropertyAccessorData
// but fails if the member cannot be resolved.
func (c *PropertyAccessorDataCache) ResolveMandatoryPropertyAccessorData(m *reflection.Member) (*PropertyAccessorData, error) {
	if d := c.ResolvePropertyAccessorData(m); d != nil {
		return d, nil
	}
	return nil, NewMappingError(c.class.ID(), "", "member %q of type %s is not a mapped property", m.Name, m.DeclaringType)
}

// FindPropertyAccessorData looks up a property by short name, starting at
// the given type and walking up its base types. Instantiated generic types
// are normalized to their definition.
func (c *PropertyAccessorDataCache) FindPropertyAccessorData(t *reflection.Type, shortName string) *PropertyAccessorData {
	index := c.byTypeKey()
	for cur := t; cur != nil; cur = cur.Base {
		if d, ok := index[accessorKey{cur.GenericDefinition().Name, shortName}]; ok {
			return d
		}
		if d, ok := index[accessorKey{cur.Name, shortName}]; ok {
			return d
		}
	}
	return nil
}

func (c *PropertyAccessorDataCache) implementationCandidates() []*reflection.Type {
	var candidates []*reflection.Type
	if t := c.class.Type(); t != nil {
		candidates = append(candidates, t)
	}
	for cls := c.class; cls != nil; cls = cls.BaseClass() {
		candidates = append(candidates, cls.PersistentMixins()...)
	}
	return candidates
}

func (c *PropertyAccessorDataCache) buildByID() map[string]*PropertyAccessorData {
	props := c.class.GetPropertyDefinitions()
	eps := c.class.GetRelationEndPointDefinitions()
	index := make(map[string]*PropertyAccessorData, len(props)+len(eps))
	for _, p := range props {
		d := c.newAccessorData(p.PropertyName(), p.Member())
		d.PropertyDefinition = p
		if ep := c.class.GetRelationEndPointDefinition(p.PropertyName()); ep != nil {
			d.RelationEndPoint = ep
			d.Kind = accessorKind(ep)
		}
		index[d.PropertyIdentifier] = d
	}
	for _, ep := range eps {
		if !ep.IsVirtual() || ep.IsAnonymous() {
			continue
		}
		var m *reflection.Member
		if t := c.class.Type(); t != nil {
			m = c.resolver.Member(t, ep.PropertyName())
		}
		d := c.newAccessorData(ep.PropertyName(), m)
		d.RelationEndPoint = ep
		d.Kind = accessorKind(ep)
		index[d.PropertyIdentifier] = d
	}
	return index
}

func (c *PropertyAccessorDataCache) buildByTypeKey() map[accessorKey]*PropertyAccessorData {
	byID := c.byID()
	index := make(map[accessorKey]*PropertyAccessorData, len(byID))
	for _, d := range byID {
		index[accessorKey{d.DeclaringTypeName, d.ShortName}] = d
	}
	return index
}

func (c *PropertyAccessorDataCache) newAccessorData(identifier string, m *reflection.Member) *PropertyAccessorData {
	d := &PropertyAccessorData{
		ClassDefinition:    c.class,
		PropertyIdentifier: identifier,
		Kind:               PropertyValue,
	}
	switch {
	case m != nil && m.DeclaringType != nil:
		d.DeclaringTypeName, d.ShortName = m.DeclaringType.Name, m.Name
	default:
		if i := strings.LastIndexByte(identifier, '.'); i >= 0 {
			d.DeclaringTypeName, d.ShortName = identifier[:i], identifier[i+1:]
		} else {
			d.ShortName = identifier
		}
	}
	return d
}

func accessorKind(ep RelationEndPointDefinition) AccessorKind {
	if c, ok := ep.(CardinalEndPoint); ok && c.Cardinality() == Many {
		return RelatedObjectCollection
	}
	return RelatedObject
}
