package mapping

import "fmt"

// RelationKind classifies a relation by its end points.
type RelationKind uint8

// Relation kinds.
const (
	OneToOne RelationKind = iota
	OneToMany
	Unidirectional
)

// String returns the relation kind name.
func (k RelationKind) String() string {
	switch k {
	case OneToOne:
		return "OneToOne"
	case OneToMany:
		return "OneToMany"
	case Unidirectional:
		return "Unidirectional"
	default:
		return "Unknown"
	}
}

// RelationDefinition pairs the two end points of an association.
type RelationDefinition struct {
	id        string
	endPoints [2]RelationEndPointDefinition
}

// NewRelationDefinition creates a relation from two end points. The end
// points are not wired; see Wire.
func NewRelationDefinition(id string, first, second RelationEndPointDefinition) *RelationDefinition {
	if first == nil || second == nil {
		contractViolation("relation %q requires two end points", id)
	}
	return &RelationDefinition{id: id, endPoints: [2]RelationEndPointDefinition{first, second}}
}

// Wire sets the relation on both end points.
func (r *RelationDefinition) Wire() *RelationDefinition {
	r.endPoints[0].SetRelationDefinition(r)
	r.endPoints[1].SetRelationDefinition(r)
	return r
}

// ID returns the relation ID.
func (r *RelationDefinition) ID() string { return r.id }

// EndPointDefinitions returns both end points.
func (r *RelationDefinition) EndPointDefinitions() [2]RelationEndPointDefinition {
	return r.endPoints
}

// RelationKind derives the kind of the relation from its end points.
func (r *RelationDefinition) RelationKind() RelationKind {
	for _, ep := range r.endPoints {
		if ep.IsAnonymous() {
			return Unidirectional
		}
	}
	for _, ep := range r.endPoints {
		if c, ok := ep.(CardinalEndPoint); ok && c.Cardinality() == Many {
			return OneToMany
		}
	}
	return OneToOne
}

// GetEndPointDefinition returns the end point for the given class and
// property, or nil.
func (r *RelationDefinition) GetEndPointDefinition(classID, propertyName string) RelationEndPointDefinition {
	for _, ep := range r.endPoints {
		if ep.ClassDefinition().ID() == classID && ep.PropertyName() == propertyName {
			return ep
		}
	}
	return nil
}

// IsEndPoint reports whether the relation has an end point for the given
// class and property.
func (r *RelationDefinition) IsEndPoint(classID, propertyName string) bool {
	return r.GetEndPointDefinition(classID, propertyName) != nil
}

// Contains reports whether ep is one of the relation's end points.
func (r *RelationDefinition) Contains(ep RelationEndPointDefinition) bool {
	return ep != nil && (r.endPoints[0].base() == ep.base() || r.endPoints[1].base() == ep.base())
}

// GetOppositeEndPointDefinition returns the end point opposite to ep, or nil
// if ep is not part of the relation.
func (r *RelationDefinition) GetOppositeEndPointDefinition(ep RelationEndPointDefinition) RelationEndPointDefinition {
	if ep == nil {
		return nil
	}
	return r.opposite(ep.base())
}

// GetOppositeClassDefinition returns the class of the end point opposite to
// ep, or nil if ep is not part of the relation.
func (r *RelationDefinition) GetOppositeClassDefinition(ep RelationEndPointDefinition) *ClassDefinition {
	if o := r.GetOppositeEndPointDefinition(ep); o != nil {
		return o.ClassDefinition()
	}
	return nil
}

func (r *RelationDefinition) opposite(b *endPointBase) RelationEndPointDefinition {
	switch b {
	case r.endPoints[0].base():
		return r.endPoints[1]
	case r.endPoints[1].base():
		return r.endPoints[0]
	default:
		return nil
	}
}

// String implements the fmt.Stringer interface.
func (r *RelationDefinition) String() string {
	return fmt.Sprintf("%s (%s)", r.id, r.RelationKind())
}

// RelationDefinitionCollection is an ordered set of relations keyed by ID.
type RelationDefinitionCollection struct {
	set namedSet[*RelationDefinition]
}

// NewRelationDefinitionCollection returns a collection holding the given
// relations.
func NewRelationDefinitionCollection(rds ...*RelationDefinition) (*RelationDefinitionCollection, error) {
	c := &RelationDefinitionCollection{}
	for _, rd := range rds {
		if err := c.Add(rd); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a relation to the collection.
func (c *RelationDefinitionCollection) Add(rd *RelationDefinition) error {
	if !c.set.add(rd.id, rd) {
		return &MappingError{Relation: rd.id, Message: "relation already defined"}
	}
	return nil
}

// Get returns the relation with the given ID, or nil.
func (c *RelationDefinitionCollection) Get(id string) *RelationDefinition {
	rd, _ := c.set.get(id)
	return rd
}

// GetMandatory returns the relation with the given ID or a mapping error.
func (c *RelationDefinitionCollection) GetMandatory(id string) (*RelationDefinition, error) {
	if rd, ok := c.set.get(id); ok {
		return rd, nil
	}
	return nil, &MappingError{Relation: id, Message: "relation does not exist"}
}

// Contains reports whether the collection holds the relation.
func (c *RelationDefinitionCollection) Contains(id string) bool {
	_, ok := c.set.get(id)
	return ok
}

// Len returns the number of relations.
func (c *RelationDefinitionCollection) Len() int { return c.set.len() }

// Items returns the relations in insertion order.
func (c *RelationDefinitionCollection) Items() []*RelationDefinition { return c.set.values() }
