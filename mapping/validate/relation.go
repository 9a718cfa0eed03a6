package validate

import (
	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/reflection"
)

// RelationRule checks a single relation definition. It returns nil if the
// relation is valid.
type RelationRule func(r reflection.NameResolver, rd *mapping.RelationDefinition) *mapping.ValidationError

// RelationDefinitionValidator runs relation rules over all relations.
type RelationDefinitionValidator struct {
	resolver reflection.NameResolver
	rules    []RelationRule
}

// NewRelationDefinitionValidator returns a validator resolving relation
// members with the given resolver and running the given rules, or
// DefaultRelationRules if none are given.
func NewRelationDefinitionValidator(resolver reflection.NameResolver, rules ...RelationRule) *RelationDefinitionValidator {
	if resolver == nil {
		resolver = reflection.ReflectionNameResolver{}
	}
	if len(rules) == 0 {
		rules = DefaultRelationRules()
	}
	return &RelationDefinitionValidator{resolver: resolver, rules: rules}
}

// DefaultRelationRules returns the relation rules run by default.
func DefaultRelationRules() []RelationRule {
	return []RelationRule{
		OppositePropertyExists,
		EndPointCombination,
		PropertyTypesMatchClasses,
		OppositeNamesPointBack,
	}
}

// Validate checks the relations. Rules after the first failing one are
// skipped for a relation.
func (v *RelationDefinitionValidator) Validate(relations []*mapping.RelationDefinition) error {
	var violations []*mapping.ValidationError
	for _, rd := range relations {
		for _, rule := range v.rules {
			if err := rule(v.resolver, rd); err != nil {
				violations = append(violations, err)
				break
			}
		}
	}
	return mapping.NewValidationFailure(StageRelation, violations)
}

func relationViolation(rd *mapping.RelationDefinition, ep mapping.RelationEndPointDefinition, format string, args ...any) *mapping.ValidationError {
	err := mapping.NewValidationError(ep.ClassDefinition().ID(), ep.PropertyName(), format, args...)
	err.Relation = rd.ID()
	return err
}

// OppositePropertyExists reports relations whose declared opposite
// property does not exist.
func OppositePropertyExists(_ reflection.NameResolver, rd *mapping.RelationDefinition) *mapping.ValidationError {
	for _, ep := range rd.EndPointDefinitions() {
		if nf, ok := ep.(*mapping.PropertyNotFoundRelationEndPoint); ok {
			opposite := rd.GetOppositeEndPointDefinition(ep)
			return relationViolation(rd, opposite, "opposite property %q does not exist on class %q", nf.PropertyName(), nf.ClassDefinition().ID())
		}
	}
	return nil
}

// EndPointCombination requires exactly one of the end points to be virtual.
func EndPointCombination(_ reflection.NameResolver, rd *mapping.RelationDefinition) *mapping.ValidationError {
	eps := rd.EndPointDefinitions()
	switch {
	case eps[0].IsVirtual() && eps[1].IsVirtual():
		return relationViolation(rd, eps[0], "relation cannot have two virtual end points, one side must hold the foreign key")
	case !eps[0].IsVirtual() && !eps[1].IsVirtual():
		return relationViolation(rd, eps[0], "relation cannot have two non-virtual end points, only one side can hold the foreign key")
	}
	return nil
}

// PropertyTypesMatchClasses requires each relation property to refer to the
// class of the opposite end point or one of its base types.
func PropertyTypesMatchClasses(r reflection.NameResolver, rd *mapping.RelationDefinition) *mapping.ValidationError {
	for _, ep := range rd.EndPointDefinitions() {
		m := member(r, ep)
		if m == nil {
			continue
		}
		related := m.RelatedType()
		oppositeType := rd.GetOppositeClassDefinition(ep).Type()
		if related == nil || oppositeType == nil {
			continue
		}
		if !oppositeType.IsSameOrSubclassOf(related) {
			return relationViolation(rd, ep, "property type %s does not match class %q of the opposite end point", m.Type, rd.GetOppositeClassDefinition(ep).ID())
		}
	}
	return nil
}

// OppositeNamesPointBack requires both properties of a bidirectional
// relation to name each other as their opposite.
func OppositeNamesPointBack(r reflection.NameResolver, rd *mapping.RelationDefinition) *mapping.ValidationError {
	eps := rd.EndPointDefinitions()
	m0, m1 := member(r, eps[0]), member(r, eps[1])
	if m0 == nil || m1 == nil {
		return nil
	}
	for _, pair := range [][2]*reflection.Member{{m0, m1}, {m1, m0}} {
		if got := pair[0].Opposite(); got != pair[1].Name {
			return relationViolation(rd, eps[0], "property %s declares %q as its opposite, expected %q", pair[0], got, pair[1].Name)
		}
	}
	return nil
}

// member resolves the member behind a named end point.
func member(r reflection.NameResolver, ep mapping.RelationEndPointDefinition) *reflection.Member {
	if ep.IsAnonymous() || ep.PropertyName() == "" {
		return nil
	}
	if _, ok := ep.(*mapping.PropertyNotFoundRelationEndPoint); ok {
		return nil
	}
	t := ep.ClassDefinition().Type()
	if t == nil {
		return nil
	}
	return r.Member(t, ep.PropertyName())
}
