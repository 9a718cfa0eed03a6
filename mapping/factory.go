package mapping

import (
	"fmt"

	"github.com/syssam/ormap/reflection"
)

// ClassDefinitionFactory creates the class definition of one type.
type ClassDefinitionFactory interface {
	CreateClassDefinition(t *reflection.Type, base *ClassDefinition) (*ClassDefinition, error)
}

// ClassDefinitionCollectionFactory builds the class definitions of a set of
// types, base classes before derived classes.
type ClassDefinitionCollectionFactory struct {
	factory ClassDefinitionFactory
}

// NewClassDefinitionCollectionFactory returns a collection factory creating
// each class with the given factory.
func NewClassDefinitionCollectionFactory(f ClassDefinitionFactory) *ClassDefinitionCollectionFactory {
	return &ClassDefinitionCollectionFactory{factory: f}
}

// CreateClassDefinitions builds the class definitions of the given types and
// of their domain base types. Derived classes are linked once all classes
// exist.
func (f *ClassDefinitionCollectionFactory) CreateClassDefinitions(types []*reflection.Type) ([]*ClassDefinition, error) {
	var (
		created = make(map[*reflection.Type]*ClassDefinition, len(types))
		ordered []*ClassDefinition
	)
	var create func(t *reflection.Type) (*ClassDefinition, error)
	create = func(t *reflection.Type) (*ClassDefinition, error) {
		if cls, ok := created[t]; ok {
			return cls, nil
		}
		var base *ClassDefinition
		if t.Base != nil && t.Base.Kind == reflection.KindDomainObject {
			var err error
			if base, err = create(t.Base); err != nil {
				return nil, err
			}
		}
		cls, err := f.factory.CreateClassDefinition(t, base)
		if err != nil {
			return nil, err
		}
		created[t] = cls
		ordered = append(ordered, cls)
		return cls, nil
	}
	for _, t := range leafTypes(types) {
		if _, err := create(t); err != nil {
			return nil, err
		}
	}
	derived := make(map[*ClassDefinition][]*ClassDefinition)
	for _, cls := range ordered {
		if cls.base != nil {
			derived[cls.base] = append(derived[cls.base], cls)
		}
	}
	for _, cls := range ordered {
		if err := cls.SetDerivedClasses(derived[cls]); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// leafTypes returns the types no other given type derives from.
func leafTypes(types []*reflection.Type) []*reflection.Type {
	var leaves []*reflection.Type
	for _, t := range types {
		leaf := true
		for _, other := range types {
			if other != t && other.IsSubclassOf(t) {
				leaf = false
				break
			}
		}
		if leaf {
			leaves = append(leaves, t)
		}
	}
	return leaves
}

// PropertyDefinitionFactory creates the property definitions of a class.
type PropertyDefinitionFactory struct {
	resolver reflection.NameResolver
}

// CreatePropertyDefinitions creates one property definition per value
// member and per real relation member.
func (f *PropertyDefinitionFactory) CreatePropertyDefinitions(cls *ClassDefinition, members []*reflection.Member) (*PropertyDefinitionCollection, error) {
	props := &PropertyDefinitionCollection{}
	for _, m := range members {
		p, err := f.createPropertyDefinition(cls, m)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if err := props.Add(p); err != nil {
			return nil, err
		}
	}
	return props, nil
}

func (f *PropertyDefinitionFactory) createPropertyDefinition(cls *ClassDefinition, m *reflection.Member) (*PropertyDefinition, error) {
	name := f.resolver.PropertyName(m)
	if m.IsRelation() {
		if virtual, _ := relationSide(m); virtual {
			return nil, nil
		}
		column := m.Storage.Column
		if column == "" {
			column = m.Name + "ID"
		}
		return NewPropertyDefinition(cls, m, name, PropertyOptions{
			PropertyType:        reflection.ObjectID,
			IsObjectID:          true,
			IsNullable:          !m.Mandatory,
			StorageClass:        StorageClassPersistent,
			StorageSpecificName: column,
		})
	}
	opts := PropertyOptions{
		PropertyType: m.Type,
		IsObjectID:   m.Type != nil && m.Type.Kind == reflection.KindObjectID,
		IsNullable:   m.Nullable,
		MaxLength:    m.Storage.MaxLength,
	}
	if m.Storage.Transient {
		opts.StorageClass = StorageClassTransient
	} else {
		opts.StorageSpecificName = m.Storage.Column
		if opts.StorageSpecificName == "" {
			opts.StorageSpecificName = m.Name
		}
	}
	return NewPropertyDefinition(cls, m, name, opts)
}

// relationSide tells whether a relation member is a virtual end point and
// its cardinality. Collections are virtual. A single reference is virtual
// when its opposite is a single reference too and it does not hold the
// foreign key.
func relationSide(m *reflection.Member) (virtual bool, card Cardinality) {
	if m.Type.Kind == reflection.KindCollection {
		return true, Many
	}
	if m.Relation == nil || m.Relation.Opposite == "" || m.Relation.ForeignKey {
		return false, One
	}
	om := findMember(m.RelatedType(), m.Relation.Opposite)
	if om == nil || om.Type == nil || om.Type.Kind != reflection.KindDomainObject {
		return false, One
	}
	return true, One
}

// findMember looks up a member by name on t, its base types and the mixins
// applied to them.
func findMember(t *reflection.Type, name string) *reflection.Member {
	for c := t; c != nil; c = c.Base {
		if m := c.Member(name); m != nil {
			return m
		}
		for _, mx := range c.Mixins {
			if m := mx.Member(name); m != nil {
				return m
			}
		}
	}
	return nil
}

// RelationEndPointDefinitionFactory creates the end points of a class.
type RelationEndPointDefinitionFactory struct {
	resolver reflection.NameResolver
}

// CreateRelationEndPointDefinitions creates one end point per relation
// member.
func (f *RelationEndPointDefinitionFactory) CreateRelationEndPointDefinitions(cls *ClassDefinition, members []*reflection.Member) (*RelationEndPointDefinitionCollection, error) {
	eps := &RelationEndPointDefinitionCollection{}
	for _, m := range members {
		if !m.IsRelation() {
			continue
		}
		ep, err := f.createEndPoint(cls, m)
		if err != nil {
			return nil, err
		}
		if err := eps.Add(ep); err != nil {
			return nil, err
		}
	}
	return eps, nil
}

func (f *RelationEndPointDefinitionFactory) createEndPoint(cls *ClassDefinition, m *reflection.Member) (RelationEndPointDefinition, error) {
	name := f.resolver.PropertyName(m)
	virtual, card := relationSide(m)
	if !virtual {
		return NewRelationEndPoint(cls, name, m.Mandatory)
	}
	opts := VirtualEndPointOptions{
		Mandatory:    m.Mandatory,
		Cardinality:  card,
		PropertyType: m.Type,
		NameResolver: f.resolver,
	}
	if m.Relation != nil {
		opts.SortExpression = m.Relation.SortExpression
	}
	return NewVirtualRelationEndPoint(cls, name, opts)
}

// RelationDefinitionFactory pairs the end points of a set of classes into
// relations.
type RelationDefinitionFactory struct {
	resolver reflection.NameResolver
}

// CreateRelationDefinitions creates and wires the relations of the given
// classes. End points without a declared opposite get an anonymous far
// side. Declared opposites that do not exist get a placeholder end point.
func (f *RelationDefinitionFactory) CreateRelationDefinitions(classes *ClassDefinitionCollection) ([]*RelationDefinition, error) {
	var relations []*RelationDefinition
	for _, cls := range classes.Items() {
		for _, ep := range cls.MyRelationEndPointDefinitions().Items() {
			if ep.RelationDefinition() != nil {
				continue
			}
			rd, err := f.createRelationDefinition(classes, cls, ep)
			if err != nil {
				return nil, err
			}
			relations = append(relations, rd)
		}
	}
	return relations, nil
}

func (f *RelationDefinitionFactory) createRelationDefinition(classes *ClassDefinitionCollection, cls *ClassDefinition, ep RelationEndPointDefinition) (*RelationDefinition, error) {
	m := f.resolver.Member(cls.Type(), ep.PropertyName())
	if m == nil {
		return nil, NewMappingError(cls.ID(), ep.PropertyName(), "relation property cannot be resolved on type %s", cls.Type())
	}
	related := classes.GetByType(m.RelatedType())
	if related == nil {
		return nil, NewMappingError(cls.ID(), ep.PropertyName(), "related type %s is not a mapped class", m.RelatedType())
	}
	opposite, err := f.oppositeEndPoint(cls, related, ep, m)
	if err != nil {
		return nil, err
	}
	first, second := ep, opposite
	if endPointPrecedes(second, first) {
		first, second = second, first
	}
	return NewRelationDefinition(relationID(first, second), first, second).Wire(), nil
}

func (f *RelationDefinitionFactory) oppositeEndPoint(cls, related *ClassDefinition, ep RelationEndPointDefinition, m *reflection.Member) (RelationEndPointDefinition, error) {
	name := m.Opposite()
	if name == "" {
		return NewAnonymousRelationEndPoint(related), nil
	}
	om := findMember(related.Type(), name)
	if om == nil {
		return NewPropertyNotFoundRelationEndPoint(related, related.Type().Name+"."+name, cls.Type()), nil
	}
	oep := related.GetRelationEndPointDefinition(f.resolver.PropertyName(om))
	if oep == nil {
		return NewPropertyNotFoundRelationEndPoint(related, f.resolver.PropertyName(om), cls.Type()), nil
	}
	if oep.base() == ep.base() {
		return nil, NewMappingError(cls.ID(), ep.PropertyName(), "relation property cannot be its own opposite")
	}
	if rd := oep.RelationDefinition(); rd != nil {
		return nil, &MappingError{
			ClassID:  cls.ID(),
			Property: ep.PropertyName(),
			Relation: rd.ID(),
			Message:  fmt.Sprintf("opposite property %q is already part of another relation", oep.PropertyName()),
		}
	}
	return oep, nil
}

// endPointPrecedes orders the end points of a relation: real end points
// come first, then by class ID and property name.
func endPointPrecedes(a, b RelationEndPointDefinition) bool {
	if a.IsVirtual() != b.IsVirtual() {
		return !a.IsVirtual()
	}
	if a.ClassDefinition().ID() != b.ClassDefinition().ID() {
		return a.ClassDefinition().ID() < b.ClassDefinition().ID()
	}
	return a.PropertyName() < b.PropertyName()
}

// relationID formats "<ClassID>:<Property>[-><OppositeProperty>]".
func relationID(first, second RelationEndPointDefinition) string {
	id := first.ClassDefinition().ID() + ":" + first.PropertyName()
	if second.PropertyName() != "" {
		id += "->" + second.PropertyName()
	}
	return id
}

// MappingObjectFactory creates all the mapping objects of a set of types.
type MappingObjectFactory struct {
	resolver   reflection.NameResolver
	mixins     reflection.MixinFinder
	properties *PropertyDefinitionFactory
	endPoints  *RelationEndPointDefinitionFactory
	relations  *RelationDefinitionFactory
}

// NewMappingObjectFactory returns a factory resolving names with the given
// resolver and recording the mixins reported by the mixin finder.
func NewMappingObjectFactory(resolver reflection.NameResolver, mixins reflection.MixinFinder) *MappingObjectFactory {
	if resolver == nil {
		resolver = reflection.ReflectionNameResolver{}
	}
	if mixins == nil {
		mixins = reflection.DeclaredMixins{}
	}
	return &MappingObjectFactory{
		resolver:   resolver,
		mixins:     mixins,
		properties: &PropertyDefinitionFactory{resolver: resolver},
		endPoints:  &RelationEndPointDefinitionFactory{resolver: resolver},
		relations:  &RelationDefinitionFactory{resolver: resolver},
	}
}

// CreateClassDefinition implements ClassDefinitionFactory.
func (f *MappingObjectFactory) CreateClassDefinition(t *reflection.Type, base *ClassDefinition) (*ClassDefinition, error) {
	id := t.ClassID
	if id == "" {
		id = t.ShortName()
	}
	return NewClassDefinition(id, ClassOptions{
		Type:             t,
		BaseClass:        base,
		IsAbstract:       t.Abstract,
		EntityName:       t.EntityName,
		StorageGroup:     t.StorageGroup,
		PersistentMixins: f.mixins.PersistentMixins(t),
	})
}

// CreateClassDefinitions builds the linked class definitions of the types.
func (f *MappingObjectFactory) CreateClassDefinitions(types []*reflection.Type) ([]*ClassDefinition, error) {
	return NewClassDefinitionCollectionFactory(f).CreateClassDefinitions(types)
}

// CreatePropertyDefinitions creates the properties declared by the class
// type and its persistent mixins.
func (f *MappingObjectFactory) CreatePropertyDefinitions(cls *ClassDefinition) (*PropertyDefinitionCollection, error) {
	return f.properties.CreatePropertyDefinitions(cls, classMembers(cls))
}

// CreateRelationEndPointDefinitions creates the end points declared by the
// class type and its persistent mixins.
func (f *MappingObjectFactory) CreateRelationEndPointDefinitions(cls *ClassDefinition) (*RelationEndPointDefinitionCollection, error) {
	return f.endPoints.CreateRelationEndPointDefinitions(cls, classMembers(cls))
}

// CreateRelationDefinitions pairs the end points of the classes.
func (f *MappingObjectFactory) CreateRelationDefinitions(classes *ClassDefinitionCollection) ([]*RelationDefinition, error) {
	return f.relations.CreateRelationDefinitions(classes)
}

func classMembers(cls *ClassDefinition) []*reflection.Member {
	t := cls.Type()
	if t == nil {
		return nil
	}
	members := append([]*reflection.Member(nil), t.Members...)
	for _, mx := range cls.mixins {
		members = append(members, mx.Members...)
	}
	return members
}
