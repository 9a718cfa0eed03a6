package mapping

import (
	"fmt"
	"strings"

	"github.com/syssam/ormap/reflection"
)

// StorageClass tells whether a property is persisted.
type StorageClass uint8

// Storage classes.
const (
	StorageClassPersistent StorageClass = iota
	StorageClassTransient
)

// String returns the storage class name.
func (s StorageClass) String() string {
	switch s {
	case StorageClassPersistent:
		return "persistent"
	case StorageClassTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// DefaultValuePolicy describes the value a new object holds for a property.
type DefaultValuePolicy uint8

// Default value policies.
const (
	DefaultValueZero DefaultValuePolicy = iota
	DefaultValueNull
)

// String returns the policy name.
func (p DefaultValuePolicy) String() string {
	if p == DefaultValueNull {
		return "null"
	}
	return "zero"
}

// PropertyOptions holds the attributes of a new property definition.
type PropertyOptions struct {
	// PropertyType is the value type of the property.
	PropertyType *reflection.Type
	// IsObjectID marks properties holding the identifier of another object.
	IsObjectID bool
	// IsNullable marks properties accepting null values.
	IsNullable bool
	// MaxLength limits the length of the value. Zero means unbounded.
	MaxLength int
	// StorageClass tells whether the property is persisted.
	StorageClass StorageClass
	// StorageSpecificName is the column name. Required for persistent
	// properties and forbidden for transient ones.
	StorageSpecificName string
}

// PropertyDefinition holds the mapping metadata of one property of a class.
// Its identity is the qualified property name, e.g. "Shop.Order.Number".
type PropertyDefinition struct {
	class        *ClassDefinition
	member       *reflection.Member
	name         string
	propertyType *reflection.Type
	isObjectID   bool
	nullable     bool
	maxLength    int
	storageClass StorageClass
	storageName  string
	storage      StorageProperty
}

// NewPropertyDefinition creates a property definition owned by the given class.
func NewPropertyDefinition(class *ClassDefinition, member *reflection.Member, name string, opts PropertyOptions) (*PropertyDefinition, error) {
	if class == nil {
		contractViolation("property %q has no owning class", name)
	}
	switch {
	case name == "":
		return nil, NewMappingError(class.ID(), "", "property name cannot be empty")
	case opts.MaxLength < 0:
		return nil, NewMappingError(class.ID(), name, "max length cannot be negative, got %d", opts.MaxLength)
	case opts.StorageClass == StorageClassPersistent && opts.StorageSpecificName == "":
		return nil, NewMappingError(class.ID(), name, "persistent property requires a storage specific name")
	case opts.StorageClass == StorageClassTransient && opts.StorageSpecificName != "":
		return nil, NewMappingError(class.ID(), name, "transient property cannot have a storage specific name, got %q", opts.StorageSpecificName)
	}
	return &PropertyDefinition{
		class:        class,
		member:       member,
		name:         name,
		propertyType: opts.PropertyType,
		isObjectID:   opts.IsObjectID,
		nullable:     opts.IsNullable,
		maxLength:    opts.MaxLength,
		storageClass: opts.StorageClass,
		storageName:  opts.StorageSpecificName,
	}, nil
}

// ClassDefinition returns the class owning the property.
func (p *PropertyDefinition) ClassDefinition() *ClassDefinition { return p.class }

// Member returns the member the property is declared by, if known.
func (p *PropertyDefinition) Member() *reflection.Member { return p.member }

// PropertyName returns the qualified property name.
func (p *PropertyDefinition) PropertyName() string { return p.name }

// ShortName returns the property name without its declaring type.
func (p *PropertyDefinition) ShortName() string {
	if p.member != nil {
		return p.member.Name
	}
	if i := strings.LastIndexByte(p.name, '.'); i >= 0 {
		return p.name[i+1:]
	}
	return p.name
}

// PropertyType returns the value type of the property.
func (p *PropertyDefinition) PropertyType() *reflection.Type { return p.propertyType }

// IsObjectID reports whether the property holds an object identifier.
func (p *PropertyDefinition) IsObjectID() bool { return p.isObjectID }

// IsNullable reports whether the property accepts null values.
func (p *PropertyDefinition) IsNullable() bool { return p.nullable }

// MaxLength returns the max length of the property and whether one is set.
func (p *PropertyDefinition) MaxLength() (int, bool) { return p.maxLength, p.maxLength > 0 }

// StorageClass returns the storage class of the property.
func (p *PropertyDefinition) StorageClass() StorageClass { return p.storageClass }

// IsPersistent reports whether the property is persisted.
func (p *PropertyDefinition) IsPersistent() bool { return p.storageClass == StorageClassPersistent }

// StorageSpecificName returns the column name, empty for transient properties.
func (p *PropertyDefinition) StorageSpecificName() string { return p.storageName }

// DefaultValuePolicy returns the default value policy of the property.
func (p *PropertyDefinition) DefaultValuePolicy() DefaultValuePolicy {
	if p.nullable {
		return DefaultValueNull
	}
	return DefaultValueZero
}

// StorageProperty returns the storage property assigned by the persistence
// model loader, or nil.
func (p *PropertyDefinition) StorageProperty() StorageProperty { return p.storage }

// SetStorageProperty assigns the storage property of a persistent property.
func (p *PropertyDefinition) SetStorageProperty(sp StorageProperty) error {
	if p.class.IsReadOnly() {
		return fmt.Errorf("%w: class %q", ErrReadOnly, p.class.ID())
	}
	if !p.IsPersistent() {
		return NewMappingError(p.class.ID(), p.name, "transient property cannot have a storage property")
	}
	p.storage = sp
	return nil
}

// String implements the fmt.Stringer interface.
func (p *PropertyDefinition) String() string {
	return p.name
}

// PropertyDefinitionCollection is an ordered set of property definitions
// keyed by their qualified name.
type PropertyDefinitionCollection struct {
	set namedSet[*PropertyDefinition]
}

// NewPropertyDefinitionCollection returns a collection holding the given
// definitions.
func NewPropertyDefinitionCollection(defs ...*PropertyDefinition) (*PropertyDefinitionCollection, error) {
	c := &PropertyDefinitionCollection{}
	for _, d := range defs {
		if err := c.Add(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a property definition to the collection.
func (c *PropertyDefinitionCollection) Add(d *PropertyDefinition) error {
	if c.set.readOnly {
		return fmt.Errorf("%w: property collection of class %q", ErrReadOnly, d.class.ID())
	}
	if !c.set.add(d.name, d) {
		return NewMappingError(d.class.ID(), d.name, "property already defined")
	}
	return nil
}

// Get returns the property with the given qualified name, or nil.
func (c *PropertyDefinitionCollection) Get(name string) *PropertyDefinition {
	d, _ := c.set.get(name)
	return d
}

// Contains reports whether the collection holds the named property.
func (c *PropertyDefinitionCollection) Contains(name string) bool {
	_, ok := c.set.get(name)
	return ok
}

// Len returns the number of properties.
func (c *PropertyDefinitionCollection) Len() int { return c.set.len() }

// Items returns the properties in insertion order.
func (c *PropertyDefinitionCollection) Items() []*PropertyDefinition { return c.set.values() }

// Persistent returns the persistent properties in insertion order.
func (c *PropertyDefinitionCollection) Persistent() []*PropertyDefinition {
	var persistent []*PropertyDefinition
	for _, d := range c.set.items {
		if d.IsPersistent() {
			persistent = append(persistent, d)
		}
	}
	return persistent
}

func (c *PropertyDefinitionCollection) setReadOnly() { c.set.readOnly = true }
