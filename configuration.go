// Package ormap builds, validates and publishes mapping configurations.
//
// A Configuration is the frozen metadata graph of a set of domain classes:
// class definitions with their properties and relation end points, and the
// relations between them. It is built in one go by New, which runs the
// whole validation pipeline and assigns the persistence model before
// freezing the graph:
//
//	model, err := load.File("shop.yaml")
//	if err != nil {
//		return err
//	}
//	cfg, err := ormap.New(mapping.NewModelReflector(model), rdbms.NewLoader())
//	if err != nil {
//		return err
//	}
//	if err := ormap.SetCurrent(cfg); err != nil {
//		return err
//	}
//
// A configuration that failed to build is never returned, so it can never
// be published.
package ormap

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/mapping/validate"
	"github.com/syssam/ormap/reflection"
)

// Build steps, used as the Step of BuildError.
const (
	StepLoadClasses      = "load class definitions"
	StepValidateClasses  = "validate class definitions"
	StepLoadRelations    = "load relation definitions"
	StepValidateRelation = "validate relation definitions"
	StepApplyPersistence = "apply persistence model"
	StepValidateStorage  = "validate persistence mapping"
	StepValidateSorting  = "validate sort expressions"
)

// Configuration is a validated and frozen mapping.
type Configuration struct {
	id           uuid.UUID
	resolveTypes bool
	resolver     reflection.NameResolver
	classes      *mapping.ClassDefinitionCollection
	relations    *mapping.RelationDefinitionCollection
	roots        []*mapping.ClassDefinition
	accessors    sync.Map // *mapping.ClassDefinition -> *mapping.PropertyAccessorDataCache
}

// classValidator is a validation pass over all classes.
type classValidator interface {
	Validate(classes []*mapping.ClassDefinition) error
}

// New builds a configuration from the definitions of the loader, applies
// the persistence model and freezes the result. Every validation stage
// reports all its violations in a single *mapping.AggregateError.
func New(loader mapping.MappingLoader, persistence mapping.PersistenceModelLoader, opts ...Option) (*Configuration, error) {
	return build(loader, persistence, newOptions(opts))
}

func build(loader mapping.MappingLoader, persistence mapping.PersistenceModelLoader, o *options) (*Configuration, error) {
	c := &Configuration{
		id:           uuid.New(),
		resolveTypes: loader.ResolveTypes(),
		resolver:     loader.NameResolver(),
	}
	if c.resolver == nil {
		c.resolver = reflection.ReflectionNameResolver{}
	}
	log := o.log.With(zap.Stringer("configuration", c.id))

	defs, err := loader.GetClassDefinitions()
	if err != nil {
		return nil, &BuildError{Step: StepLoadClasses, Err: err}
	}
	if c.classes, err = mapping.NewClassDefinitionCollection(c.resolveTypes, defs...); err != nil {
		return nil, &BuildError{Step: StepLoadClasses, Err: err}
	}
	c.roots = c.classes.Roots()
	log.Debug("class definitions loaded", zap.Int("classes", c.classes.Len()), zap.Int("roots", len(c.roots)))

	classes := c.classes.Items()
	for _, v := range c.classValidators(o) {
		if err := v.Validate(classes); err != nil {
			return nil, &BuildError{Step: StepValidateClasses, Err: err}
		}
	}
	log.Debug("class definitions validated")

	rds, err := loader.GetRelationDefinitions(c.classes)
	if err != nil {
		return nil, &BuildError{Step: StepLoadRelations, Err: err}
	}
	if c.relations, err = mapping.NewRelationDefinitionCollection(rds...); err != nil {
		return nil, &BuildError{Step: StepLoadRelations, Err: err}
	}
	if err := validate.NewRelationDefinitionValidator(c.resolver).Validate(rds); err != nil {
		return nil, &BuildError{Step: StepValidateRelation, Err: err}
	}
	log.Debug("relation definitions validated", zap.Int("relations", c.relations.Len()))

	for _, root := range c.roots {
		if err := persistence.ApplyPersistenceModelToHierarchy(root); err != nil {
			return nil, &BuildError{Step: StepApplyPersistence, Err: err}
		}
	}
	if err := checkPersistenceModel(c.roots); err != nil {
		return nil, &BuildError{Step: StepApplyPersistence, Err: err}
	}
	var violations []*mapping.ValidationError
	for _, root := range c.roots {
		violations = append(violations, persistence.CreatePersistenceMappingValidator(root).Validate(hierarchy(root))...)
	}
	if err := mapping.NewValidationFailure(validate.StagePersistence, violations); err != nil {
		return nil, &BuildError{Step: StepValidateStorage, Err: err}
	}
	log.Debug("persistence model applied")

	for _, root := range c.roots {
		root.SetReadOnly()
	}

	if err := validate.NewSortExpressionValidator(o.sortWorkers).Validate(context.Background(), c.relations.Items()); err != nil {
		return nil, &BuildError{Step: StepValidateSorting, Err: err}
	}

	log.Info("mapping configuration built",
		zap.Int("classes", c.classes.Len()),
		zap.Int("relations", c.relations.Len()),
		zap.Bool("resolve_types", c.resolveTypes),
	)
	return c, nil
}

func (c *Configuration) classValidators(o *options) []classValidator {
	rules := validate.DefaultClassRules()
	if !c.resolveTypes {
		// TypeResolved comes first.
		rules = rules[1:]
	}
	validators := []classValidator{
		validate.NewClassDefinitionValidator(rules...),
		validate.NewPropertyDefinitionValidator(),
		validate.NewUniquePropertyNameValidator(),
		validate.NewStorageSpecificNameValidator(),
	}
	if o.mixins != nil {
		validators = append(validators, validate.NewMixinConfigurationValidator(o.mixins))
	}
	return validators
}

// checkPersistenceModel verifies that the persistence model loader assigned
// every storage entity and storage property.
func checkPersistenceModel(roots []*mapping.ClassDefinition) error {
	var errs []error
	for _, root := range roots {
		for _, cls := range hierarchy(root) {
			if cls.StorageEntity() == nil {
				errs = append(errs, &mapping.MappingError{
					ClassID: cls.ID(),
					Message: "persistence model loader did not assign a storage entity",
					Cause:   mapping.ErrPersistenceModel,
				})
			}
			for _, p := range cls.MyPropertyDefinitions().Persistent() {
				if p.StorageProperty() == nil {
					errs = append(errs, &mapping.MappingError{
						ClassID:  cls.ID(),
						Property: p.PropertyName(),
						Message:  "persistence model loader did not assign a storage property",
						Cause:    mapping.ErrPersistenceModel,
					})
				}
			}
		}
	}
	return mapping.NewAggregateError("persistence model", errs...)
}

func hierarchy(root *mapping.ClassDefinition) []*mapping.ClassDefinition {
	return append([]*mapping.ClassDefinition{root}, root.Descendants()...)
}

// ID returns the unique ID of the configuration instance.
func (c *Configuration) ID() uuid.UUID { return c.id }

// ResolveTypes reports whether the classes of the configuration carry
// resolved runtime types.
func (c *Configuration) ResolveTypes() bool { return c.resolveTypes }

// NameResolver returns the name resolution strategy of the mapping.
func (c *Configuration) NameResolver() reflection.NameResolver { return c.resolver }

// GetTypeDefinition returns the class mapping the given type. It panics if
// the configuration does not resolve types.
func (c *Configuration) GetTypeDefinition(t *reflection.Type) (*mapping.ClassDefinition, error) {
	if cls := c.classes.GetByType(t); cls != nil {
		return cls, nil
	}
	return nil, NewNotFoundError("type definition", t)
}

// ContainsTypeDefinition reports whether a class maps the given type.
func (c *Configuration) ContainsTypeDefinition(t *reflection.Type) bool {
	return c.classes.ContainsType(t)
}

// GetClassDefinition returns the class with the given ID.
func (c *Configuration) GetClassDefinition(id string) (*mapping.ClassDefinition, error) {
	if cls := c.classes.Get(id); cls != nil {
		return cls, nil
	}
	return nil, NewNotFoundError("class definition", id)
}

// ContainsClassDefinition reports whether the configuration holds a class
// with the given ID.
func (c *Configuration) ContainsClassDefinition(id string) bool {
	return c.classes.Contains(id)
}

// GetRelationDefinition returns the relation with the given ID.
func (c *Configuration) GetRelationDefinition(id string) (*mapping.RelationDefinition, error) {
	if rd := c.relations.Get(id); rd != nil {
		return rd, nil
	}
	return nil, NewNotFoundError("relation definition", id)
}

// ClassDefinitions returns all classes.
func (c *Configuration) ClassDefinitions() []*mapping.ClassDefinition { return c.classes.Items() }

// RelationDefinitions returns all relations.
func (c *Configuration) RelationDefinitions() []*mapping.RelationDefinition {
	return c.relations.Items()
}

// RootClassDefinitions returns the inheritance roots.
func (c *Configuration) RootClassDefinitions() []*mapping.ClassDefinition {
	return append([]*mapping.ClassDefinition(nil), c.roots...)
}

// PropertyAccessorData returns the accessor data cache of a class of the
// configuration. Caches are created once per class.
func (c *Configuration) PropertyAccessorData(cls *mapping.ClassDefinition) *mapping.PropertyAccessorDataCache {
	if v, ok := c.accessors.Load(cls); ok {
		return v.(*mapping.PropertyAccessorDataCache)
	}
	v, _ := c.accessors.LoadOrStore(cls, mapping.NewPropertyAccessorDataCache(cls, c.resolver))
	return v.(*mapping.PropertyAccessorDataCache)
}
