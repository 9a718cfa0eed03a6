package rdbms

import (
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/syssam/ormap/mapping"
)

// Loader assigns tables, union views and columns to class hierarchies.
type Loader struct {
	schema *schema.Schema
	log    *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithSchema sets the name of the schema the storage objects are added to.
func WithSchema(name string) Option {
	return func(l *Loader) {
		l.schema.Name = name
	}
}

// WithLogger sets the logger of the loader.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader returns a loader adding storage objects to the "public" schema.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		schema: schema.New("public"),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schema returns the schema holding all tables and views assigned so far.
func (l *Loader) Schema() *schema.Schema { return l.schema }

// ApplyPersistenceModelToHierarchy implements mapping.PersistenceModelLoader.
func (l *Loader) ApplyPersistenceModelToHierarchy(root *mapping.ClassDefinition) error {
	classes := append([]*mapping.ClassDefinition{root}, root.Descendants()...)
	tables := make(map[*mapping.ClassDefinition]*TableDefinition, len(classes))
	var owned []*TableDefinition
	for _, cls := range classes {
		if base := cls.BaseClass(); base != nil && tables[base] != nil {
			tables[cls] = tables[base]
			continue
		}
		if name := cls.MyEntityName(); name != "" {
			t := &TableDefinition{table: schema.NewTable(name), owner: cls}
			tables[cls] = t
			owned = append(owned, t)
		}
	}
	columns := make(map[*mapping.PropertyDefinition]*ColumnDefinition)
	for _, cls := range classes {
		shared := tables[cls] != nil && tables[cls].owner != cls
		for _, p := range cls.MyPropertyDefinitions().Persistent() {
			c := &ColumnDefinition{
				name:     p.StorageSpecificName(),
				typ:      columnType(p),
				nullable: p.IsNullable() || shared,
				property: p,
			}
			if err := p.SetStorageProperty(c); err != nil {
				return fmt.Errorf("rdbms: assign column of %s: %w", p, err)
			}
			columns[p] = c
		}
	}
	for _, t := range owned {
		t.table.AddColumns(idColumn(), classIDColumn())
		for _, cls := range append(reverse(t.owner.Ancestors()), t.owner) {
			addColumns(t.table, cls, columns)
		}
		for _, cls := range t.owner.Descendants() {
			if tables[cls] == t {
				addColumns(t.table, cls, columns)
			}
		}
		t.table.SetPrimaryKey(schema.NewPrimaryKey(t.table.Columns[0]))
		l.schema.AddTables(t.table)
		l.log.Debug("table assigned",
			zap.String("class", t.owner.ID()),
			zap.String("table", t.table.Name),
			zap.Int("columns", len(t.table.Columns)),
		)
	}
	for _, cls := range classes {
		var entity mapping.StorageEntity
		if t := tables[cls]; t != nil {
			entity = t
		} else {
			v := l.unionView(cls, tables, columns)
			l.schema.Views = append(l.schema.Views, v.view)
			l.log.Debug("union view assigned",
				zap.String("class", cls.ID()),
				zap.String("view", v.view.Name),
				zap.Int("tables", len(v.tables)),
			)
			entity = v
		}
		if err := cls.SetStorageEntity(entity); err != nil {
			return fmt.Errorf("rdbms: assign storage entity of class %q: %w", cls.ID(), err)
		}
	}
	return nil
}

// CreatePersistenceMappingValidator implements mapping.PersistenceModelLoader.
func (l *Loader) CreatePersistenceMappingValidator(*mapping.ClassDefinition) mapping.PersistenceMappingValidator {
	return NewValidator(WithValidatorLogger(l.log))
}

func (l *Loader) unionView(cls *mapping.ClassDefinition, tables map[*mapping.ClassDefinition]*TableDefinition, columns map[*mapping.PropertyDefinition]*ColumnDefinition) *UnionViewDefinition {
	v := &UnionViewDefinition{}
	seen := make(map[*TableDefinition]bool)
	for _, d := range cls.Descendants() {
		if t := tables[d]; t != nil && !seen[t] {
			seen[t] = true
			v.tables = append(v.tables, t)
		}
	}
	view := &schema.View{Name: cls.ID() + "View", Schema: l.schema}
	view.Columns = append(view.Columns, idColumn(), classIDColumn())
	for _, c := range append(reverse(cls.Ancestors()), cls) {
		for _, p := range c.MyPropertyDefinitions().Persistent() {
			view.Columns = append(view.Columns, columns[p].Column())
		}
	}
	view.Def = unionSelect(view.Columns, v.tables)
	v.view = view
	return v
}

// unionSelect builds the view definition selecting the columns from every
// table. An empty table list yields an empty definition.
func unionSelect(cols []*schema.Column, tables []*TableDefinition) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = pq.QuoteIdentifier(c.Name)
	}
	selects := make([]string, len(tables))
	for i, t := range tables {
		selects[i] = fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), pq.QuoteIdentifier(t.table.Name))
	}
	return strings.Join(selects, " UNION ALL ")
}

func addColumns(t *schema.Table, cls *mapping.ClassDefinition, columns map[*mapping.PropertyDefinition]*ColumnDefinition) {
	for _, p := range cls.MyPropertyDefinitions().Persistent() {
		t.AddColumns(columns[p].Column())
	}
}

// reverse returns the classes in reverse order.
func reverse(classes []*mapping.ClassDefinition) []*mapping.ClassDefinition {
	out := make([]*mapping.ClassDefinition, len(classes))
	for i, c := range classes {
		out[len(classes)-1-i] = c
	}
	return out
}

var _ mapping.PersistenceModelLoader = (*Loader)(nil)
