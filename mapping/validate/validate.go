// Package validate holds the validation passes run over a mapping before it
// is frozen.
//
// Each validator checks the whole hierarchy and reports every violation it
// finds in a single *mapping.AggregateError, so that a broken mapping can be
// fixed in one round:
//
//	if err := validate.NewClassDefinitionValidator().Validate(classes); err != nil {
//	    for _, v := range mapping.Violations(err) {
//	        log.Println(v)
//	    }
//	}
package validate

import (
	"maps"

	"github.com/syssam/ormap/mapping"
)

// Validation stage names, used as the Stage of the aggregated errors.
const (
	StageClass          = "class definitions"
	StageProperty       = "property definitions"
	StageUniqueName     = "unique property names"
	StageStorageName    = "storage specific names"
	StageMixin          = "mixin configuration"
	StageRelation       = "relation definitions"
	StageSortExpression = "sort expressions"
	StagePersistence    = "persistence mapping"
)

// walkHierarchy visits the classes of the hierarchies rooted at roots,
// parents before children. Each class sees a copy of the state built by
// its ancestors, so siblings never see each other's entries.
func walkHierarchy[V any](roots []*mapping.ClassDefinition, visit func(cls *mapping.ClassDefinition, seen map[string]V)) {
	var walk func(*mapping.ClassDefinition, map[string]V)
	walk = func(cls *mapping.ClassDefinition, inherited map[string]V) {
		seen := maps.Clone(inherited)
		visit(cls, seen)
		for _, d := range cls.DerivedClasses() {
			walk(d, seen)
		}
	}
	for _, root := range roots {
		walk(root, make(map[string]V))
	}
}

// roots returns the inheritance roots among the given classes.
func roots(classes []*mapping.ClassDefinition) []*mapping.ClassDefinition {
	var roots []*mapping.ClassDefinition
	for _, cls := range classes {
		if cls.BaseClass() == nil {
			roots = append(roots, cls)
		}
	}
	return roots
}
