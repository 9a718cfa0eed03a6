// Package rdbms maps class hierarchies to relational tables and views.
//
// The Loader is a mapping.PersistenceModelLoader. Classes declaring an
// entity name get a table, derived classes without one share the table of
// their nearest ancestor, and classes above the tables get a union view
// over the tables of their derived classes. Storage objects are atlas
// schema objects and can be handed to atlas for migration planning.
package rdbms

import (
	"ariga.io/atlas/sql/schema"

	"github.com/syssam/ormap/mapping"
)

// Names of the columns every table carries.
const (
	IDColumn      = "ID"
	ClassIDColumn = "ClassID"
)

// TableDefinition is the storage entity of classes stored in a table.
type TableDefinition struct {
	table *schema.Table
	owner *mapping.ClassDefinition
}

// EntityName implements mapping.StorageEntity.
func (t *TableDefinition) EntityName() string { return t.table.Name }

// Table returns the atlas table.
func (t *TableDefinition) Table() *schema.Table { return t.table }

// Owner returns the topmost class stored in the table.
func (t *TableDefinition) Owner() *mapping.ClassDefinition { return t.owner }

// UnionViewDefinition is the storage entity of classes without a table of
// their own. It unions the tables of the derived classes.
type UnionViewDefinition struct {
	view   *schema.View
	tables []*TableDefinition
}

// EntityName implements mapping.StorageEntity. Views are not entities of
// their own, so the name is empty.
func (*UnionViewDefinition) EntityName() string { return "" }

// View returns the atlas view.
func (v *UnionViewDefinition) View() *schema.View { return v.view }

// Tables returns the tables unioned by the view.
func (v *UnionViewDefinition) Tables() []*TableDefinition {
	return append([]*TableDefinition(nil), v.tables...)
}

// ColumnDefinition is the storage property of a persistent property.
type ColumnDefinition struct {
	name     string
	typ      schema.Type
	nullable bool
	property *mapping.PropertyDefinition
}

// Name implements mapping.StorageProperty.
func (c *ColumnDefinition) Name() string { return c.name }

// Type returns the column type.
func (c *ColumnDefinition) Type() schema.Type { return c.typ }

// IsNullable reports whether the column accepts nulls.
func (c *ColumnDefinition) IsNullable() bool { return c.nullable }

// PropertyDefinition returns the property stored in the column.
func (c *ColumnDefinition) PropertyDefinition() *mapping.PropertyDefinition { return c.property }

// IsSupported reports whether the property type maps to a column type.
func (c *ColumnDefinition) IsSupported() bool {
	_, unsupported := c.typ.(*schema.UnsupportedType)
	return !unsupported
}

// Column returns a new atlas column for the definition.
func (c *ColumnDefinition) Column() *schema.Column {
	return schema.NewColumn(c.name).SetType(c.typ).SetNull(c.nullable)
}

var (
	_ mapping.StorageEntity   = (*TableDefinition)(nil)
	_ mapping.StorageEntity   = (*UnionViewDefinition)(nil)
	_ mapping.StorageProperty = (*ColumnDefinition)(nil)
)
