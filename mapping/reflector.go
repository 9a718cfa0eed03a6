package mapping

import (
	"slices"

	"github.com/syssam/ormap/reflection"
)

// Reflector is the MappingLoader building class and relation definitions
// from discovery types.
type Reflector struct {
	types    []*reflection.Type
	resolver reflection.NameResolver
	mixins   reflection.MixinFinder
	factory  *MappingObjectFactory
}

// ReflectorOption configures a Reflector.
type ReflectorOption func(*Reflector)

// WithNameResolver sets the name resolution strategy. The default is
// reflection.ReflectionNameResolver.
func WithNameResolver(r reflection.NameResolver) ReflectorOption {
	return func(rf *Reflector) { rf.resolver = r }
}

// WithPersistentMixins sets the mixin finder recording the persistent
// mixins of each class. The default is reflection.DeclaredMixins.
func WithPersistentMixins(f reflection.MixinFinder) ReflectorOption {
	return func(rf *Reflector) { rf.mixins = f }
}

// NewReflector returns a mapping loader over the given domain types.
func NewReflector(types []*reflection.Type, opts ...ReflectorOption) *Reflector {
	r := &Reflector{
		types:    slices.Clone(types),
		resolver: reflection.ReflectionNameResolver{},
		mixins:   reflection.DeclaredMixins{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.factory = NewMappingObjectFactory(r.resolver, r.mixins)
	return r
}

// NewModelReflector returns a mapping loader over the domain types of the model.
func NewModelReflector(m *reflection.Model, opts ...ReflectorOption) *Reflector {
	return NewReflector(m.DomainTypes(), opts...)
}

// GetClassDefinitions implements MappingLoader.
func (r *Reflector) GetClassDefinitions() ([]*ClassDefinition, error) {
	classes, err := r.factory.CreateClassDefinitions(r.types)
	if err != nil {
		return nil, err
	}
	for _, cls := range classes {
		props, err := r.factory.CreatePropertyDefinitions(cls)
		if err != nil {
			return nil, err
		}
		if err := cls.SetPropertyDefinitions(props); err != nil {
			return nil, err
		}
	}
	for _, cls := range classes {
		eps, err := r.factory.CreateRelationEndPointDefinitions(cls)
		if err != nil {
			return nil, err
		}
		if err := cls.SetRelationEndPointDefinitions(eps); err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// GetRelationDefinitions implements MappingLoader.
func (r *Reflector) GetRelationDefinitions(classes *ClassDefinitionCollection) ([]*RelationDefinition, error) {
	return r.factory.CreateRelationDefinitions(classes)
}

// ResolveTypes implements MappingLoader.
func (r *Reflector) ResolveTypes() bool { return true }

// NameResolver implements MappingLoader.
func (r *Reflector) NameResolver() reflection.NameResolver { return r.resolver }

var _ MappingLoader = (*Reflector)(nil)
