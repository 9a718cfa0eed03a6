package ormap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/syssam/ormap/load"
	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/persistence/rdbms"
	"github.com/syssam/ormap/reflection"
)

// shopYAML declares:
//
//	Customer 1 -- * Order   (sorted by number, descending)
//	Order    * --> Supplier (unidirectional)
//	Partner (abstract, union view) <- Supplier, Distributor
//	Customer mixes in Audit, which implements Audited.
const shopYAML = `
package: Shop
types:
  - name: Audited
    kind: interface
    members:
      - name: CreatedBy
        type: string
  - name: Audit
    kind: mixin
    interfaces: [Audited]
    members:
      - name: CreatedBy
        type: string
        maxLength: 50
  - name: Customer
    table: Customers
    mixins: [Audit]
    members:
      - name: Name
        type: string
        maxLength: 100
      - name: Orders
        type: "[]Order"
        opposite: Customer
        sort: Number desc
  - name: Order
    table: Orders
    members:
      - name: Number
        type: int
      - name: Customer
        type: Customer
        mandatory: true
        opposite: Orders
      - name: Supplier
        type: Supplier
  - name: Partner
    abstract: true
    members:
      - name: Name
        type: string
        column: PartnerName
  - name: Supplier
    base: Partner
    table: Suppliers
    members:
      - name: Rating
        type: int
  - name: Distributor
    base: Partner
    table: Distributors
    members:
      - name: Region
        type: string
        nullable: true
`

func shopModel(t *testing.T, doc string) *reflection.Model {
	t.Helper()
	m, err := load.Parse([]byte(doc))
	require.NoError(t, err)
	return m
}

func newShop(t *testing.T, opts ...Option) *Configuration {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	c, err := New(mapping.NewModelReflector(shopModel(t, shopYAML)), rdbms.NewLoader(), opts...)
	require.NoError(t, err)
	return c
}

func class(t *testing.T, c *Configuration, id string) *mapping.ClassDefinition {
	t.Helper()
	cls, err := c.GetClassDefinition(id)
	require.NoError(t, err)
	return cls
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeSettings writes the shop descriptor and a settings file referring to
// it and returns the settings path.
func writeSettings(t *testing.T, dir, settings string) string {
	t.Helper()
	writeFile(t, filepath.Join(dir, "shop.yaml"), shopYAML)
	path := filepath.Join(dir, "ormap.yaml")
	writeFile(t, path, settings)
	return path
}

// unresolvedLoader builds the same definitions as the reflector but does not
// claim to resolve types.
type unresolvedLoader struct {
	*mapping.Reflector
}

func (unresolvedLoader) ResolveTypes() bool { return false }

type entity string

func (e entity) EntityName() string { return string(e) }

type column string

func (c column) Name() string { return string(c) }

// stubPersistence assigns storage handles without any storage semantics.
type stubPersistence struct {
	skipEntities   bool
	skipProperties bool
	violations     []*mapping.ValidationError
}

func (s *stubPersistence) ApplyPersistenceModelToHierarchy(root *mapping.ClassDefinition) error {
	for _, cls := range append([]*mapping.ClassDefinition{root}, root.Descendants()...) {
		if !s.skipEntities {
			if err := cls.SetStorageEntity(entity(cls.GetEntityName())); err != nil {
				return err
			}
		}
		if s.skipProperties {
			continue
		}
		for _, p := range cls.MyPropertyDefinitions().Persistent() {
			if err := p.SetStorageProperty(column(p.StorageSpecificName())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *stubPersistence) CreatePersistenceMappingValidator(*mapping.ClassDefinition) mapping.PersistenceMappingValidator {
	return s
}

func (s *stubPersistence) Validate([]*mapping.ClassDefinition) []*mapping.ValidationError {
	return s.violations
}
