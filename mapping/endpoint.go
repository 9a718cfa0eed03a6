package mapping

import (
	"fmt"
	"sync"

	"github.com/syssam/ormap/reflection"
)

// Cardinality is the number of objects a relation end point refers to.
type Cardinality uint8

// Cardinalities.
const (
	One Cardinality = iota
	Many
)

// String returns the cardinality name.
func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// RelationEndPointDefinition is one side of a relation. The set of
// implementations is closed: *RelationEndPoint, *VirtualRelationEndPoint,
// *AnonymousRelationEndPoint and *PropertyNotFoundRelationEndPoint.
type RelationEndPointDefinition interface {
	// ClassDefinition returns the class the end point belongs to.
	ClassDefinition() *ClassDefinition
	// PropertyName returns the qualified name of the relation property,
	// empty for anonymous end points.
	PropertyName() string
	// IsMandatory reports whether the related object must always be set.
	IsMandatory() bool
	// IsVirtual reports whether the end point has no storage of its own.
	IsVirtual() bool
	// IsAnonymous reports whether the end point is the missing far side of
	// a unidirectional relation.
	IsAnonymous() bool
	// RelationDefinition returns the relation owning the end point, nil
	// until the end point is wired.
	RelationDefinition() *RelationDefinition
	// SetRelationDefinition wires the end point to its relation. It must
	// be called exactly once.
	SetRelationDefinition(rd *RelationDefinition)
	// GetOppositeEndPointDefinition returns the other end point of the
	// relation. The end point must be wired.
	GetOppositeEndPointDefinition() RelationEndPointDefinition
	// GetOppositeClassDefinition returns the class of the other end point.
	// The end point must be wired.
	GetOppositeClassDefinition() *ClassDefinition

	base() *endPointBase
}

// CardinalEndPoint is a resolved end point with a known cardinality.
type CardinalEndPoint interface {
	RelationEndPointDefinition
	// Cardinality returns the number of objects the end point refers to.
	Cardinality() Cardinality
	// PropertyType returns the type of the relation property, nil for
	// anonymous end points or when the type is not known.
	PropertyType() *reflection.Type
}

var (
	_ CardinalEndPoint           = (*RelationEndPoint)(nil)
	_ CardinalEndPoint           = (*VirtualRelationEndPoint)(nil)
	_ CardinalEndPoint           = (*AnonymousRelationEndPoint)(nil)
	_ RelationEndPointDefinition = (*PropertyNotFoundRelationEndPoint)(nil)
)

type endPointBase struct {
	class        *ClassDefinition
	propertyName string
	mandatory    bool
	relation     *RelationDefinition
}

func (b *endPointBase) base() *endPointBase { return b }

func (b *endPointBase) ClassDefinition() *ClassDefinition { return b.class }

func (b *endPointBase) PropertyName() string { return b.propertyName }

func (b *endPointBase) IsMandatory() bool { return b.mandatory }

func (b *endPointBase) RelationDefinition() *RelationDefinition { return b.relation }

func (b *endPointBase) SetRelationDefinition(rd *RelationDefinition) {
	if rd == nil {
		contractViolation("nil relation for end point %s", b)
	}
	if b.relation != nil {
		contractViolation("end point %s is already part of relation %q", b, b.relation.ID())
	}
	b.relation = rd
}

func (b *endPointBase) GetOppositeEndPointDefinition() RelationEndPointDefinition {
	if b.relation == nil {
		contractViolation("end point %s is not part of a relation", b)
	}
	return b.relation.opposite(b)
}

func (b *endPointBase) GetOppositeClassDefinition() *ClassDefinition {
	return b.GetOppositeEndPointDefinition().ClassDefinition()
}

func (b *endPointBase) String() string {
	if b.propertyName == "" {
		return fmt.Sprintf("%s.<anonymous>", b.class.ID())
	}
	return fmt.Sprintf("%s:%s", b.class.ID(), b.propertyName)
}

// RelationEndPoint is the real side of a relation. It is backed by an
// object ID property holding the foreign key.
type RelationEndPoint struct {
	*endPointBase
	property *PropertyDefinition
}

// NewRelationEndPoint creates the real end point for the given object ID
// property of the class.
func NewRelationEndPoint(class *ClassDefinition, propertyName string, mandatory bool) (*RelationEndPoint, error) {
	p := class.GetPropertyDefinition(propertyName)
	if p == nil {
		return nil, NewMappingError(class.ID(), propertyName, "relation end point requires an existing property")
	}
	if !p.IsObjectID() {
		return nil, NewMappingError(class.ID(), propertyName, "relation property of a non-virtual end point must be of type %s, got %s", reflection.ObjectID, p.PropertyType())
	}
	return &RelationEndPoint{
		endPointBase: &endPointBase{class: class, propertyName: propertyName, mandatory: mandatory},
		property:     p,
	}, nil
}

// PropertyDefinition returns the object ID property backing the end point.
func (e *RelationEndPoint) PropertyDefinition() *PropertyDefinition { return e.property }

// PropertyType implements CardinalEndPoint.
func (e *RelationEndPoint) PropertyType() *reflection.Type { return e.property.PropertyType() }

// Cardinality implements CardinalEndPoint.
func (*RelationEndPoint) Cardinality() Cardinality { return One }

// IsVirtual implements RelationEndPointDefinition.
func (*RelationEndPoint) IsVirtual() bool { return false }

// IsAnonymous implements RelationEndPointDefinition.
func (*RelationEndPoint) IsAnonymous() bool { return false }

// VirtualEndPointOptions holds the attributes of a virtual end point.
type VirtualEndPointOptions struct {
	Mandatory   bool
	Cardinality Cardinality
	// PropertyType is the domain object type (One) or collection type
	// (Many) of the relation property. Nil when types are not resolved.
	PropertyType *reflection.Type
	// SortExpression orders the related objects. Only valid for Many.
	SortExpression string
	// NameResolver resolves short names in the sort expression. Defaults
	// to reflection.ReflectionNameResolver.
	NameResolver reflection.NameResolver
}

// VirtualRelationEndPoint is a relation side without storage of its own.
type VirtualRelationEndPoint struct {
	*endPointBase
	cardinality    Cardinality
	propertyType   *reflection.Type
	sortExpression string
	resolver       reflection.NameResolver
	parsedSort     func() (*SortExpressionDefinition, error)
}

// NewVirtualRelationEndPoint creates a virtual end point for the given
// relation property of the class.
func NewVirtualRelationEndPoint(class *ClassDefinition, propertyName string, opts VirtualEndPointOptions) (*VirtualRelationEndPoint, error) {
	if propertyName == "" {
		return nil, NewMappingError(class.ID(), "", "virtual end point requires a property name")
	}
	if t := opts.PropertyType; t != nil {
		switch opts.Cardinality {
		case One:
			if t.Kind != reflection.KindDomainObject {
				return nil, NewMappingError(class.ID(), propertyName, "virtual end point with cardinality one must be of a domain object type, got %s", t)
			}
		case Many:
			if t.Kind != reflection.KindCollection {
				return nil, NewMappingError(class.ID(), propertyName, "virtual end point with cardinality many must be of a collection type, got %s", t)
			}
		}
	}
	if opts.SortExpression != "" && opts.Cardinality != Many {
		return nil, NewMappingError(class.ID(), propertyName, "sort expression is only allowed for end points with cardinality many")
	}
	if opts.NameResolver == nil {
		opts.NameResolver = reflection.ReflectionNameResolver{}
	}
	e := &VirtualRelationEndPoint{
		endPointBase:   &endPointBase{class: class, propertyName: propertyName, mandatory: opts.Mandatory},
		cardinality:    opts.Cardinality,
		propertyType:   opts.PropertyType,
		sortExpression: opts.SortExpression,
		resolver:       opts.NameResolver,
	}
	e.parsedSort = sync.OnceValues(e.parseSortExpression)
	return e, nil
}

// Cardinality implements CardinalEndPoint.
func (e *VirtualRelationEndPoint) Cardinality() Cardinality { return e.cardinality }

// PropertyType implements CardinalEndPoint.
func (e *VirtualRelationEndPoint) PropertyType() *reflection.Type { return e.propertyType }

// IsVirtual implements RelationEndPointDefinition.
func (*VirtualRelationEndPoint) IsVirtual() bool { return true }

// IsAnonymous implements RelationEndPointDefinition.
func (*VirtualRelationEndPoint) IsAnonymous() bool { return false }

// SortExpressionText returns the unparsed sort expression.
func (e *VirtualRelationEndPoint) SortExpressionText() string { return e.sortExpression }

// GetSortExpression parses the sort expression against the opposite class.
// The result is computed once. A missing sort expression yields nil.
func (e *VirtualRelationEndPoint) GetSortExpression() (*SortExpressionDefinition, error) {
	return e.parsedSort()
}

func (e *VirtualRelationEndPoint) parseSortExpression() (*SortExpressionDefinition, error) {
	if e.sortExpression == "" {
		return nil, nil
	}
	expr, err := ParseSortExpression(e.GetOppositeClassDefinition(), e.sortExpression, e.resolver)
	if err != nil {
		return nil, &MappingError{
			ClassID:  e.class.ID(),
			Property: e.propertyName,
			Message:  fmt.Sprintf("invalid sort expression %q", e.sortExpression),
			Cause:    err,
		}
	}
	return expr, nil
}

// AnonymousRelationEndPoint is the non-existing far side of a
// unidirectional relation. It has no property.
type AnonymousRelationEndPoint struct {
	*endPointBase
}

// NewAnonymousRelationEndPoint creates the anonymous end point of a
// unidirectional relation pointing to the given class.
func NewAnonymousRelationEndPoint(class *ClassDefinition) *AnonymousRelationEndPoint {
	return &AnonymousRelationEndPoint{endPointBase: &endPointBase{class: class}}
}

// Cardinality implements CardinalEndPoint.
func (*AnonymousRelationEndPoint) Cardinality() Cardinality { return Many }

// PropertyType implements CardinalEndPoint.
func (*AnonymousRelationEndPoint) PropertyType() *reflection.Type { return nil }

// IsVirtual implements RelationEndPointDefinition.
func (*AnonymousRelationEndPoint) IsVirtual() bool { return true }

// IsAnonymous implements RelationEndPointDefinition.
func (*AnonymousRelationEndPoint) IsAnonymous() bool { return true }

// PropertyNotFoundRelationEndPoint stands for a declared opposite property
// that does not exist on the related class. Relations holding one are
// reported by the relation validator.
type PropertyNotFoundRelationEndPoint struct {
	*endPointBase
	propertyType *reflection.Type
}

// NewPropertyNotFoundRelationEndPoint creates a placeholder end point.
func NewPropertyNotFoundRelationEndPoint(class *ClassDefinition, propertyName string, propertyType *reflection.Type) *PropertyNotFoundRelationEndPoint {
	return &PropertyNotFoundRelationEndPoint{
		endPointBase: &endPointBase{class: class, propertyName: propertyName},
		propertyType: propertyType,
	}
}

// ExpectedPropertyType returns the type the missing property was expected
// to have, if known.
func (e *PropertyNotFoundRelationEndPoint) ExpectedPropertyType() *reflection.Type {
	return e.propertyType
}

// IsVirtual implements RelationEndPointDefinition.
func (*PropertyNotFoundRelationEndPoint) IsVirtual() bool { return false }

// IsAnonymous implements RelationEndPointDefinition.
func (*PropertyNotFoundRelationEndPoint) IsAnonymous() bool { return false }

// RelationEndPointDefinitionCollection is an ordered set of end points
// keyed by property name.
type RelationEndPointDefinitionCollection struct {
	set namedSet[RelationEndPointDefinition]
}

// NewRelationEndPointDefinitionCollection returns a collection holding the
// given end points.
func NewRelationEndPointDefinitionCollection(eps ...RelationEndPointDefinition) (*RelationEndPointDefinitionCollection, error) {
	c := &RelationEndPointDefinitionCollection{}
	for _, ep := range eps {
		if err := c.Add(ep); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends an end point to the collection. Anonymous end points cannot
// be added since they have no property name.
func (c *RelationEndPointDefinitionCollection) Add(ep RelationEndPointDefinition) error {
	classID := ep.ClassDefinition().ID()
	switch {
	case c.set.readOnly:
		return fmt.Errorf("%w: end point collection of class %q", ErrReadOnly, classID)
	case ep.IsAnonymous():
		return NewMappingError(classID, "", "anonymous end point cannot be added to a class")
	case !c.set.add(ep.PropertyName(), ep):
		return NewMappingError(classID, ep.PropertyName(), "relation end point already defined")
	}
	return nil
}

// Get returns the end point of the named property, or nil.
func (c *RelationEndPointDefinitionCollection) Get(propertyName string) RelationEndPointDefinition {
	ep, _ := c.set.get(propertyName)
	return ep
}

// Contains reports whether the collection holds an end point for the property.
func (c *RelationEndPointDefinitionCollection) Contains(propertyName string) bool {
	_, ok := c.set.get(propertyName)
	return ok
}

// Len returns the number of end points.
func (c *RelationEndPointDefinitionCollection) Len() int { return c.set.len() }

// Items returns the end points in insertion order.
func (c *RelationEndPointDefinitionCollection) Items() []RelationEndPointDefinition {
	return c.set.values()
}

func (c *RelationEndPointDefinitionCollection) setReadOnly() { c.set.readOnly = true }
