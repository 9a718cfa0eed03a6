package mapping

import "github.com/syssam/ormap/reflection"

// StorageEntity is the handle of the storage entity (table, view, ...) a
// persistence model loader assigns to a class.
type StorageEntity interface {
	// EntityName returns the name of the table backing the class, or ""
	// if the entity is not a table (e.g. a union view over derived tables).
	EntityName() string
}

// StorageProperty is the handle of the storage property (column, ...) a
// persistence model loader assigns to a persistent property.
type StorageProperty interface {
	// Name returns the name of the storage property.
	Name() string
}

// PersistenceModelLoader decides the storage shapes of a mapping.
type PersistenceModelLoader interface {
	// ApplyPersistenceModelToHierarchy sets a storage entity on every class
	// and a storage property on every persistent property of the given
	// inheritance root and all its descendants.
	ApplyPersistenceModelToHierarchy(root *ClassDefinition) error
	// CreatePersistenceMappingValidator returns the validator checking the
	// persistence model applied to the given inheritance root.
	CreatePersistenceMappingValidator(root *ClassDefinition) PersistenceMappingValidator
}

// PersistenceMappingValidator checks storage-specific mapping rules.
type PersistenceMappingValidator interface {
	Validate(classes []*ClassDefinition) []*ValidationError
}

// MappingLoader builds the class and relation definitions of a mapping.
type MappingLoader interface {
	// GetClassDefinitions returns all class definitions with their property
	// and relation end point definitions set and their derived classes linked.
	GetClassDefinitions() ([]*ClassDefinition, error)
	// GetRelationDefinitions returns the relation definitions between the
	// given classes, with all end points wired.
	GetRelationDefinitions(classes *ClassDefinitionCollection) ([]*RelationDefinition, error)
	// ResolveTypes reports whether the loader resolves runtime types.
	ResolveTypes() bool
	// NameResolver returns the name resolution strategy of the mapping.
	NameResolver() reflection.NameResolver
}
