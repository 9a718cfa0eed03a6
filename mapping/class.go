package mapping

import (
	"fmt"
	"slices"
	"sync"

	"github.com/syssam/ormap/reflection"
)

// ClassOptions holds the attributes of a new class definition.
type ClassOptions struct {
	// Type is the domain type of the class. Nil when types are not resolved.
	Type *reflection.Type
	// BaseClass is the class definition of the base type, nil for roots.
	BaseClass *ClassDefinition
	// IsAbstract marks classes that cannot be instantiated.
	IsAbstract bool
	// EntityName is the declared storage entity name of the class.
	EntityName string
	// StorageGroup selects the storage provider of the hierarchy.
	StorageGroup string
	// PersistentMixins are the mixins contributing members to the class.
	PersistentMixins []*reflection.Type
}

// ClassDefinition is the mapping graph node of one domain class. It holds
// its own property and relation end point definitions and derives the
// inherited views lazily.
type ClassDefinition struct {
	id           string
	typ          *reflection.Type
	base         *ClassDefinition
	abstract     bool
	entityName   string
	storageGroup string
	mixins       []*reflection.Type

	derived       []*ClassDefinition
	derivedSet    bool
	properties    *PropertyDefinitionCollection
	endPoints     *RelationEndPointDefinitionCollection
	storageEntity StorageEntity
	readOnly      bool

	allProperties   func() []*PropertyDefinition
	allEndPoints    func() []RelationEndPointDefinition
	endPointsByName func() map[string]RelationEndPointDefinition
	allRelations    func() []*RelationDefinition
}

// NewClassDefinition creates a class definition with the given ID.
func NewClassDefinition(id string, opts ClassOptions) (*ClassDefinition, error) {
	if id == "" {
		return nil, NewMappingError("", "", "class ID cannot be empty (type %s)", opts.Type)
	}
	if opts.BaseClass != nil && opts.BaseClass.readOnly {
		return nil, fmt.Errorf("%w: base class %q of %q", ErrReadOnly, opts.BaseClass.id, id)
	}
	c := &ClassDefinition{
		id:           id,
		typ:          opts.Type,
		base:         opts.BaseClass,
		abstract:     opts.IsAbstract,
		entityName:   opts.EntityName,
		storageGroup: opts.StorageGroup,
		mixins:       slices.Clone(opts.PersistentMixins),
	}
	c.allProperties = sync.OnceValue(c.computeProperties)
	c.allEndPoints = sync.OnceValue(c.computeEndPoints)
	c.endPointsByName = sync.OnceValue(c.computeEndPointsByName)
	c.allRelations = sync.OnceValue(c.computeRelations)
	return c, nil
}

// ID returns the class ID.
func (c *ClassDefinition) ID() string { return c.id }

// Type returns the domain type of the class, nil if unresolved.
func (c *ClassDefinition) Type() *reflection.Type { return c.typ }

// IsAbstract reports whether the class is abstract.
func (c *ClassDefinition) IsAbstract() bool { return c.abstract }

// StorageGroup returns the storage group declared on the class.
func (c *ClassDefinition) StorageGroup() string { return c.storageGroup }

// BaseClass returns the base class, nil for inheritance roots.
func (c *ClassDefinition) BaseClass() *ClassDefinition { return c.base }

// DerivedClasses returns the classes directly derived from this class.
func (c *ClassDefinition) DerivedClasses() []*ClassDefinition { return slices.Clone(c.derived) }

// PersistentMixins returns the mixins recorded when the class was built.
func (c *ClassDefinition) PersistentMixins() []*reflection.Type { return slices.Clone(c.mixins) }

// IsReadOnly reports whether the class is frozen.
func (c *ClassDefinition) IsReadOnly() bool { return c.readOnly }

// String implements the fmt.Stringer interface.
func (c *ClassDefinition) String() string { return c.id }

// MyPropertyDefinitions returns the properties declared by this class.
func (c *ClassDefinition) MyPropertyDefinitions() *PropertyDefinitionCollection {
	c.mustHaveProperties()
	return c.properties
}

// MyRelationEndPointDefinitions returns the end points declared by this class.
func (c *ClassDefinition) MyRelationEndPointDefinitions() *RelationEndPointDefinitionCollection {
	c.mustHaveEndPoints()
	return c.endPoints
}

// GetPropertyDefinitions returns the properties of this class and all its
// ancestors, ancestors first.
func (c *ClassDefinition) GetPropertyDefinitions() []*PropertyDefinition {
	c.mustHaveProperties()
	return slices.Clone(c.allProperties())
}

// GetRelationEndPointDefinitions returns the end points of this class and
// all its ancestors, ancestors first.
func (c *ClassDefinition) GetRelationEndPointDefinitions() []RelationEndPointDefinition {
	c.mustHaveEndPoints()
	return slices.Clone(c.allEndPoints())
}

// GetRelationDefinitions returns the distinct relations the end points of
// this class and its ancestors take part in. The result is cached once the
// class is read-only.
func (c *ClassDefinition) GetRelationDefinitions() []*RelationDefinition {
	c.mustHaveEndPoints()
	if !c.readOnly {
		return c.computeRelations()
	}
	return slices.Clone(c.allRelations())
}

// GetPropertyDefinition returns the named property of this class or one of
// its ancestors, or nil.
func (c *ClassDefinition) GetPropertyDefinition(propertyName string) *PropertyDefinition {
	for cls := c; cls != nil; cls = cls.base {
		if p := cls.MyPropertyDefinitions().Get(propertyName); p != nil {
			return p
		}
	}
	return nil
}

// GetMandatoryPropertyDefinition is like GetPropertyDefinition but fails
// if the property does not exist.
func (c *ClassDefinition) GetMandatoryPropertyDefinition(propertyName string) (*PropertyDefinition, error) {
	if p := c.GetPropertyDefinition(propertyName); p != nil {
		return p, nil
	}
	return nil, NewMappingError(c.id, propertyName, "class does not contain the property")
}

// GetRelationEndPointDefinition returns the end point of the named property
// defined by this class or one of its ancestors, or nil.
func (c *ClassDefinition) GetRelationEndPointDefinition(propertyName string) RelationEndPointDefinition {
	c.mustHaveEndPoints()
	return c.endPointsByName()[propertyName]
}

// GetMandatoryRelationEndPointDefinition is like
// GetRelationEndPointDefinition but fails if the end point does not exist.
func (c *ClassDefinition) GetMandatoryRelationEndPointDefinition(propertyName string) (RelationEndPointDefinition, error) {
	if ep := c.GetRelationEndPointDefinition(propertyName); ep != nil {
		return ep, nil
	}
	return nil, NewMappingError(c.id, propertyName, "class has no relation end point for the property")
}

// GetOppositeEndPointDefinition returns the end point opposite to the end
// point of the named property, or nil if the property is not a relation.
func (c *ClassDefinition) GetOppositeEndPointDefinition(propertyName string) RelationEndPointDefinition {
	ep := c.GetRelationEndPointDefinition(propertyName)
	if ep == nil {
		return nil
	}
	return ep.GetOppositeEndPointDefinition()
}

// SetPropertyDefinitions sets the properties declared by this class. It
// can be called only once.
func (c *ClassDefinition) SetPropertyDefinitions(props *PropertyDefinitionCollection) error {
	if c.readOnly {
		return fmt.Errorf("%w: class %q", ErrReadOnly, c.id)
	}
	if c.properties != nil {
		contractViolation("property definitions of class %q are already set", c.id)
	}
	for _, p := range props.Items() {
		if p.class != c {
			return NewMappingError(c.id, p.name, "property belongs to class %q", p.class.id)
		}
		if c.base == nil {
			continue
		}
		if existing := c.base.GetPropertyDefinition(p.name); existing != nil {
			owner := "its base class"
			if existing.class != c.base {
				owner = fmt.Sprintf("the base class %q", existing.class.id)
			}
			return NewMappingError(c.id, p.name, "class must not define the property, because %s already defines a property with the same name", owner)
		}
	}
	c.properties = props
	return nil
}

// SetRelationEndPointDefinitions sets the relation end points declared by
// this class. It can be called only once.
func (c *ClassDefinition) SetRelationEndPointDefinitions(eps *RelationEndPointDefinitionCollection) error {
	if c.readOnly {
		return fmt.Errorf("%w: class %q", ErrReadOnly, c.id)
	}
	if c.endPoints != nil {
		contractViolation("relation end point definitions of class %q are already set", c.id)
	}
	for _, ep := range eps.Items() {
		if ep.ClassDefinition() != c {
			return NewMappingError(c.id, ep.PropertyName(), "relation end point belongs to class %q", ep.ClassDefinition().id)
		}
		if c.base == nil {
			continue
		}
		if existing := c.base.GetRelationEndPointDefinition(ep.PropertyName()); existing != nil {
			return NewMappingError(c.id, ep.PropertyName(), "class must not define the relation end point, because the base class %q already defines one", existing.ClassDefinition().id)
		}
	}
	c.endPoints = eps
	return nil
}

// SetDerivedClasses sets the classes directly derived from this class. It
// can be called only once.
func (c *ClassDefinition) SetDerivedClasses(derived []*ClassDefinition) error {
	if c.readOnly {
		return fmt.Errorf("%w: class %q", ErrReadOnly, c.id)
	}
	if c.derivedSet {
		contractViolation("derived classes of class %q are already set", c.id)
	}
	for _, d := range derived {
		if d.base != c {
			return NewMappingError(c.id, "", "derived class %q does not derive from the class", d.id)
		}
	}
	c.derived = slices.Clone(derived)
	c.derivedSet = true
	return nil
}

// SetStorageEntity assigns the storage entity of the class.
func (c *ClassDefinition) SetStorageEntity(e StorageEntity) error {
	if c.readOnly {
		return fmt.Errorf("%w: class %q", ErrReadOnly, c.id)
	}
	c.storageEntity = e
	return nil
}

// StorageEntity returns the storage entity assigned by the persistence
// model loader, or nil.
func (c *ClassDefinition) StorageEntity() StorageEntity { return c.storageEntity }

// SetReadOnly freezes the class and all its derived classes. Derived
// classes are frozen first.
func (c *ClassDefinition) SetReadOnly() {
	for _, d := range c.derived {
		d.SetReadOnly()
	}
	if c.properties != nil {
		c.properties.setReadOnly()
	}
	if c.endPoints != nil {
		c.endPoints.setReadOnly()
	}
	c.readOnly = true
}

// MyEntityName returns the entity name of this class alone. Once a storage
// entity is assigned, the name comes from it.
func (c *ClassDefinition) MyEntityName() string {
	if c.storageEntity != nil {
		return c.storageEntity.EntityName()
	}
	return c.entityName
}

// GetEntityName returns the entity name of the class, inherited from the
// base class if the class has none.
func (c *ClassDefinition) GetEntityName() string {
	for cls := c; cls != nil; cls = cls.base {
		if name := cls.MyEntityName(); name != "" {
			return name
		}
	}
	return ""
}

// GetAllConcreteEntityNames returns the distinct entity names of the
// concrete classes in the subtree rooted at this class.
func (c *ClassDefinition) GetAllConcreteEntityNames() []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(*ClassDefinition)
	walk = func(cls *ClassDefinition) {
		if name := cls.GetEntityName(); !cls.abstract && name != "" {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			return
		}
		for _, d := range cls.derived {
			walk(d)
		}
	}
	walk(c)
	return names
}

// IsSameOrBaseClassOf reports whether c is other or one of its ancestors.
func (c *ClassDefinition) IsSameOrBaseClassOf(other *ClassDefinition) bool {
	for cls := other; cls != nil; cls = cls.base {
		if cls == c {
			return true
		}
	}
	return false
}

// GetInheritanceRootClass returns the root of the class hierarchy.
func (c *ClassDefinition) GetInheritanceRootClass() *ClassDefinition {
	root := c
	for root.base != nil {
		root = root.base
	}
	return root
}

// IsPartOfInheritanceHierarchy reports whether the class has a base class
// or derived classes.
func (c *ClassDefinition) IsPartOfInheritanceHierarchy() bool {
	return c.base != nil || len(c.derived) > 0
}

// Ancestors returns the base classes of c, nearest first.
func (c *ClassDefinition) Ancestors() []*ClassDefinition {
	var ancestors []*ClassDefinition
	for cls := c.base; cls != nil; cls = cls.base {
		ancestors = append(ancestors, cls)
	}
	return ancestors
}

// Descendants returns all the classes derived from c, directly or not,
// parents before children.
func (c *ClassDefinition) Descendants() []*ClassDefinition {
	var descendants []*ClassDefinition
	for _, d := range c.derived {
		descendants = append(descendants, d)
		descendants = append(descendants, d.Descendants()...)
	}
	return descendants
}

func (c *ClassDefinition) mustHaveProperties() {
	if c.properties == nil {
		contractViolation("property definitions of class %q are not set", c.id)
	}
}

func (c *ClassDefinition) mustHaveEndPoints() {
	if c.endPoints == nil {
		contractViolation("relation end point definitions of class %q are not set", c.id)
	}
}

func (c *ClassDefinition) computeProperties() []*PropertyDefinition {
	var props []*PropertyDefinition
	if c.base != nil {
		props = append(props, c.base.GetPropertyDefinitions()...)
	}
	return append(props, c.properties.Items()...)
}

func (c *ClassDefinition) computeEndPoints() []RelationEndPointDefinition {
	var eps []RelationEndPointDefinition
	if c.base != nil {
		eps = append(eps, c.base.GetRelationEndPointDefinitions()...)
	}
	return append(eps, c.endPoints.Items()...)
}

func (c *ClassDefinition) computeEndPointsByName() map[string]RelationEndPointDefinition {
	eps := c.allEndPoints()
	byName := make(map[string]RelationEndPointDefinition, len(eps))
	for _, ep := range eps {
		byName[ep.PropertyName()] = ep
	}
	return byName
}

func (c *ClassDefinition) computeRelations() []*RelationDefinition {
	var relations []*RelationDefinition
	seen := make(map[*RelationDefinition]bool)
	for _, ep := range c.allEndPoints() {
		rd := ep.RelationDefinition()
		if rd == nil || seen[rd] {
			continue
		}
		seen[rd] = true
		relations = append(relations, rd)
	}
	return relations
}

// ClassDefinitionCollection is an ordered set of classes keyed by class ID.
type ClassDefinitionCollection struct {
	set          namedSet[*ClassDefinition]
	byType       map[*reflection.Type]*ClassDefinition
	resolveTypes bool
}

// NewClassDefinitionCollection returns a collection holding the given
// classes. When resolveTypes is set, every class must have a type and the
// collection can be indexed by type.
func NewClassDefinitionCollection(resolveTypes bool, classes ...*ClassDefinition) (*ClassDefinitionCollection, error) {
	c := &ClassDefinitionCollection{
		byType:       make(map[*reflection.Type]*ClassDefinition),
		resolveTypes: resolveTypes,
	}
	for _, cls := range classes {
		if err := c.Add(cls); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a class to the collection. Two classes sharing an ID or a
// type are rejected.
func (c *ClassDefinitionCollection) Add(cls *ClassDefinition) error {
	if existing, ok := c.set.get(cls.id); ok {
		return NewMappingError(cls.id, "", "class ID is used by both types %s and %s", existing.typ, cls.typ)
	}
	if c.resolveTypes {
		if cls.typ == nil {
			return NewMappingError(cls.id, "", "class has no resolved type")
		}
		if existing, ok := c.byType[cls.typ]; ok {
			return NewMappingError(cls.id, "", "type %s is already mapped by class %q", cls.typ, existing.id)
		}
		c.byType[cls.typ] = cls
	}
	c.set.add(cls.id, cls)
	return nil
}

// Get returns the class with the given ID, or nil.
func (c *ClassDefinitionCollection) Get(id string) *ClassDefinition {
	cls, _ := c.set.get(id)
	return cls
}

// GetMandatory returns the class with the given ID or a mapping error.
func (c *ClassDefinitionCollection) GetMandatory(id string) (*ClassDefinition, error) {
	if cls, ok := c.set.get(id); ok {
		return cls, nil
	}
	return nil, NewMappingError(id, "", "mapping does not contain the class")
}

// GetByType returns the class mapping the given type, or nil. It panics if
// the collection does not resolve types.
func (c *ClassDefinitionCollection) GetByType(t *reflection.Type) *ClassDefinition {
	if !c.resolveTypes {
		contractViolation("class collection is not indexed by type")
	}
	return c.byType[t]
}

// Contains reports whether the collection holds the class.
func (c *ClassDefinitionCollection) Contains(id string) bool {
	_, ok := c.set.get(id)
	return ok
}

// ContainsType reports whether the collection maps the type. It panics if
// the collection does not resolve types.
func (c *ClassDefinitionCollection) ContainsType(t *reflection.Type) bool {
	return c.GetByType(t) != nil
}

// ResolveTypes reports whether the collection is indexed by type.
func (c *ClassDefinitionCollection) ResolveTypes() bool { return c.resolveTypes }

// Len returns the number of classes.
func (c *ClassDefinitionCollection) Len() int { return c.set.len() }

// Items returns the classes in insertion order.
func (c *ClassDefinitionCollection) Items() []*ClassDefinition { return c.set.values() }

// Roots returns the inheritance roots in insertion order.
func (c *ClassDefinitionCollection) Roots() []*ClassDefinition {
	var roots []*ClassDefinition
	for _, cls := range c.set.items {
		if cls.base == nil {
			roots = append(roots, cls)
		}
	}
	return roots
}
