package validate

import (
	"strings"

	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/reflection"
)

// PropertyRule checks a single property definition. It returns nil if the
// property is valid.
type PropertyRule func(p *mapping.PropertyDefinition) *mapping.ValidationError

// PropertyDefinitionValidator runs property rules over the own properties
// of all classes.
type PropertyDefinitionValidator struct {
	rules []PropertyRule
}

// NewPropertyDefinitionValidator returns a validator running the given
// rules, or DefaultPropertyRules if none are given.
func NewPropertyDefinitionValidator(rules ...PropertyRule) *PropertyDefinitionValidator {
	if len(rules) == 0 {
		rules = DefaultPropertyRules()
	}
	return &PropertyDefinitionValidator{rules: rules}
}

// DefaultPropertyRules returns the property rules run by default.
func DefaultPropertyRules() []PropertyRule {
	return []PropertyRule{
		SupportedPropertyType,
		MaxLengthOnlyOnStrings,
		ObjectIDNotTransient,
	}
}

// Validate checks the own properties of the classes.
func (v *PropertyDefinitionValidator) Validate(classes []*mapping.ClassDefinition) error {
	var violations []*mapping.ValidationError
	for _, cls := range classes {
		for _, p := range cls.MyPropertyDefinitions().Items() {
			for _, rule := range v.rules {
				if err := rule(p); err != nil {
					violations = append(violations, err)
				}
			}
		}
	}
	return mapping.NewValidationFailure(StageProperty, violations)
}

func violation(p *mapping.PropertyDefinition, format string, args ...any) *mapping.ValidationError {
	return mapping.NewValidationError(p.ClassDefinition().ID(), p.PropertyName(), format, args...)
}

// SupportedPropertyType requires property types to be value or object ID
// types.
func SupportedPropertyType(p *mapping.PropertyDefinition) *mapping.ValidationError {
	t := p.PropertyType()
	if t == nil || t.Kind == reflection.KindValue || t.Kind == reflection.KindObjectID {
		return nil
	}
	return violation(p, "type %s is not supported, properties must be of a value type", t)
}

// MaxLengthOnlyOnStrings allows a max length on string and byte properties
// only.
func MaxLengthOnlyOnStrings(p *mapping.PropertyDefinition) *mapping.ValidationError {
	_, ok := p.MaxLength()
	if !ok {
		return nil
	}
	if t := p.PropertyType(); t != nil && t != reflection.String && t != reflection.Bytes {
		return violation(p, "max length cannot be set on a property of type %s", t)
	}
	return nil
}

// ObjectIDNotTransient requires object ID properties to be persistent.
func ObjectIDNotTransient(p *mapping.PropertyDefinition) *mapping.ValidationError {
	if p.IsObjectID() && !p.IsPersistent() {
		return violation(p, "object ID property cannot be transient")
	}
	return nil
}

// UniquePropertyNameValidator forbids a class from declaring a property
// whose short name is already used by one of its ancestors.
type UniquePropertyNameValidator struct{}

// NewUniquePropertyNameValidator returns a new UniquePropertyNameValidator.
func NewUniquePropertyNameValidator() *UniquePropertyNameValidator {
	return &UniquePropertyNameValidator{}
}

// Validate checks the hierarchies rooted at the given classes.
func (*UniquePropertyNameValidator) Validate(classes []*mapping.ClassDefinition) error {
	var violations []*mapping.ValidationError
	walkHierarchy(roots(classes), func(cls *mapping.ClassDefinition, seen map[string]*mapping.ClassDefinition) {
		own := make(map[string]bool)
		for _, name := range memberNames(cls) {
			short := shortName(name)
			if owner, ok := seen[short]; ok && owner != cls {
				violations = append(violations, mapping.NewValidationError(cls.ID(), name, "property %q is already defined in base class %q", short, owner.ID()))
				continue
			}
			if !own[short] {
				own[short] = true
				seen[short] = cls
			}
		}
	})
	return mapping.NewValidationFailure(StageUniqueName, violations)
}

// memberNames returns the qualified names of the properties and relation
// end points declared by the class.
func memberNames(cls *mapping.ClassDefinition) []string {
	var names []string
	props := cls.MyPropertyDefinitions()
	for _, p := range props.Items() {
		names = append(names, p.PropertyName())
	}
	for _, ep := range cls.MyRelationEndPointDefinitions().Items() {
		if !props.Contains(ep.PropertyName()) {
			names = append(names, ep.PropertyName())
		}
	}
	return names
}

func shortName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// StorageSpecificNameValidator forbids two persistent properties of a
// hierarchy branch from sharing a storage specific name.
type StorageSpecificNameValidator struct{}

// NewStorageSpecificNameValidator returns a new StorageSpecificNameValidator.
func NewStorageSpecificNameValidator() *StorageSpecificNameValidator {
	return &StorageSpecificNameValidator{}
}

// Validate checks the hierarchies rooted at the given classes.
func (*StorageSpecificNameValidator) Validate(classes []*mapping.ClassDefinition) error {
	var violations []*mapping.ValidationError
	walkHierarchy(roots(classes), func(cls *mapping.ClassDefinition, seen map[string]*mapping.PropertyDefinition) {
		for _, p := range cls.MyPropertyDefinitions().Persistent() {
			name := p.StorageSpecificName()
			if prev, ok := seen[name]; ok {
				violations = append(violations, violation(p, "storage specific name %q is already used by property %q of class %q", name, prev.PropertyName(), prev.ClassDefinition().ID()))
				continue
			}
			seen[name] = p
		}
	})
	return mapping.NewValidationFailure(StageStorageName, violations)
}
