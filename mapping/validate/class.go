package validate

import (
	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/reflection"
)

// ClassRule checks a single class definition. It returns nil if the class
// is valid.
type ClassRule func(cls *mapping.ClassDefinition) *mapping.ValidationError

// ClassDefinitionValidator runs class rules over all classes.
type ClassDefinitionValidator struct {
	rules []ClassRule
}

// NewClassDefinitionValidator returns a validator running the given rules,
// or DefaultClassRules if none are given.
func NewClassDefinitionValidator(rules ...ClassRule) *ClassDefinitionValidator {
	if len(rules) == 0 {
		rules = DefaultClassRules()
	}
	return &ClassDefinitionValidator{rules: rules}
}

// DefaultClassRules returns the class rules run by default.
func DefaultClassRules() []ClassRule {
	return []ClassRule{
		TypeResolved,
		DomainObjectType,
		ClassMatchesTypeHierarchy,
		EntityNameDefined,
		EntityNameMatchesBase,
		StorageGroupDeclaredOnce,
	}
}

// Validate checks the classes, bases before derived classes.
func (v *ClassDefinitionValidator) Validate(classes []*mapping.ClassDefinition) error {
	var violations []*mapping.ValidationError
	walkHierarchy(roots(classes), func(cls *mapping.ClassDefinition, _ map[string]struct{}) {
		for _, rule := range v.rules {
			if err := rule(cls); err != nil {
				violations = append(violations, err)
			}
		}
	})
	return mapping.NewValidationFailure(StageClass, violations)
}

// TypeResolved requires the class type to be resolved.
func TypeResolved(cls *mapping.ClassDefinition) *mapping.ValidationError {
	if cls.Type() == nil {
		return mapping.NewValidationError(cls.ID(), "", "class type cannot be resolved")
	}
	return nil
}

// DomainObjectType requires the class type to be a domain object type.
func DomainObjectType(cls *mapping.ClassDefinition) *mapping.ValidationError {
	if t := cls.Type(); t != nil && t.Kind != reflection.KindDomainObject {
		return mapping.NewValidationError(cls.ID(), "", "type %s of kind %s is not a domain object type", t, t.Kind)
	}
	return nil
}

// ClassMatchesTypeHierarchy requires the base class to map a base type of
// the class type.
func ClassMatchesTypeHierarchy(cls *mapping.ClassDefinition) *mapping.ValidationError {
	base := cls.BaseClass()
	if base == nil || cls.Type() == nil || base.Type() == nil {
		return nil
	}
	if !cls.Type().IsSubclassOf(base.Type()) {
		return mapping.NewValidationError(cls.ID(), "", "type %s does not derive from %s, the type of base class %q", cls.Type(), base.Type(), base.ID())
	}
	return nil
}

// EntityNameDefined requires concrete classes to resolve an entity name.
func EntityNameDefined(cls *mapping.ClassDefinition) *mapping.ValidationError {
	if !cls.IsAbstract() && cls.GetEntityName() == "" {
		return mapping.NewValidationError(cls.ID(), "", "concrete class must have an entity name, either its own or inherited")
	}
	return nil
}

// EntityNameMatchesBase forbids a class from overriding the entity name its
// base class resolves.
func EntityNameMatchesBase(cls *mapping.ClassDefinition) *mapping.ValidationError {
	base := cls.BaseClass()
	if base == nil {
		return nil
	}
	own, inherited := cls.MyEntityName(), base.GetEntityName()
	if own != "" && inherited != "" && own != inherited {
		return mapping.NewValidationError(cls.ID(), "", "entity name %q must be equal to %q, the entity name of base class %q", own, inherited, base.ID())
	}
	return nil
}

// StorageGroupDeclaredOnce allows at most one class of a hierarchy branch
// to declare a storage group.
func StorageGroupDeclaredOnce(cls *mapping.ClassDefinition) *mapping.ValidationError {
	if cls.StorageGroup() == "" {
		return nil
	}
	for _, a := range cls.Ancestors() {
		if a.StorageGroup() != "" {
			return mapping.NewValidationError(cls.ID(), "", "storage group %q cannot be declared, base class %q already declares storage group %q", cls.StorageGroup(), a.ID(), a.StorageGroup())
		}
	}
	return nil
}
