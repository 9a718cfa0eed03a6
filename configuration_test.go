package ormap

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/mapping/validate"
	"github.com/syssam/ormap/persistence/rdbms"
	"github.com/syssam/ormap/reflection"
)

func TestNew(t *testing.T) {
	require := require.New(t)
	c := newShop(t)

	require.NotEqual(uuid.Nil, c.ID())
	require.True(c.ResolveTypes())
	require.Equal(reflection.ReflectionNameResolver{}, c.NameResolver())
	require.Len(c.ClassDefinitions(), 5)
	require.Len(c.RelationDefinitions(), 2)

	var roots []string
	for _, cls := range c.RootClassDefinitions() {
		roots = append(roots, cls.ID())
	}
	require.ElementsMatch([]string{"Customer", "Order", "Partner"}, roots)

	require.True(c.ContainsClassDefinition("Order"))
	require.False(c.ContainsClassDefinition("Invoice"))
	_, err := c.GetClassDefinition("Invoice")
	require.True(IsNotFound(err))
	require.ErrorIs(err, ErrNotFound)
	require.EqualError(err, "ormap: class definition not found (id=Invoice)")

	rd, err := c.GetRelationDefinition("Order:Shop.Order.Customer->Shop.Customer.Orders")
	require.NoError(err)
	require.Equal(mapping.OneToMany, rd.RelationKind())
	rd, err = c.GetRelationDefinition("Order:Shop.Order.Supplier")
	require.NoError(err)
	require.Equal(mapping.Unidirectional, rd.RelationKind())
	_, err = c.GetRelationDefinition("Order:Shop.Order.Invoice")
	require.ErrorIs(err, ErrNotFound)
}

func TestNew_TypeDefinitions(t *testing.T) {
	require := require.New(t)
	m := shopModel(t, shopYAML)
	c, err := New(mapping.NewModelReflector(m), rdbms.NewLoader())
	require.NoError(err)

	order := m.Lookup("Shop.Order")
	require.True(c.ContainsTypeDefinition(order))
	cls, err := c.GetTypeDefinition(order)
	require.NoError(err)
	require.Equal("Order", cls.ID())
	require.Same(order, cls.Type())

	audit := m.Lookup("Shop.Audit")
	require.False(c.ContainsTypeDefinition(audit))
	_, err = c.GetTypeDefinition(audit)
	require.EqualError(err, "ormap: type definition not found (id=Shop.Audit)")
}

func TestNew_StorageAssigned(t *testing.T) {
	require := require.New(t)
	c := newShop(t)

	customers, ok := class(t, c, "Customer").StorageEntity().(*rdbms.TableDefinition)
	require.True(ok)
	require.Equal("Customers", customers.EntityName())
	partner, ok := class(t, c, "Partner").StorageEntity().(*rdbms.UnionViewDefinition)
	require.True(ok)
	require.Equal("PartnerView", partner.View().Name)
	require.Equal([]string{"Suppliers", "Distributors"}, class(t, c, "Partner").GetAllConcreteEntityNames())

	for _, cls := range c.ClassDefinitions() {
		require.NotNil(cls.StorageEntity(), "class %s", cls.ID())
		for _, p := range cls.MyPropertyDefinitions().Persistent() {
			require.NotNil(p.StorageProperty(), "property %s", p)
		}
	}
}

func TestNew_Frozen(t *testing.T) {
	c := newShop(t)
	for _, cls := range c.ClassDefinitions() {
		t.Run(cls.ID(), func(t *testing.T) {
			require := require.New(t)
			require.True(cls.IsReadOnly())
			require.ErrorIs(cls.SetStorageEntity(nil), mapping.ErrReadOnly)
			require.ErrorIs(cls.SetPropertyDefinitions(&mapping.PropertyDefinitionCollection{}), mapping.ErrReadOnly)
			require.ErrorIs(cls.SetRelationEndPointDefinitions(&mapping.RelationEndPointDefinitionCollection{}), mapping.ErrReadOnly)
		})
	}
}

func TestNew_InheritedPropertiesVisible(t *testing.T) {
	c := newShop(t)
	for _, cls := range c.ClassDefinitions() {
		base := cls.BaseClass()
		if base == nil {
			continue
		}
		all := cls.GetPropertyDefinitions()
		for _, p := range base.GetPropertyDefinitions() {
			assert.Contains(t, all, p, "class %s", cls.ID())
		}
	}
}

func TestNew_RelationEndPointsAreOpposite(t *testing.T) {
	c := newShop(t)
	for _, rd := range c.RelationDefinitions() {
		t.Run(rd.ID(), func(t *testing.T) {
			require := require.New(t)
			eps := rd.EndPointDefinitions()
			require.Same(eps[1], rd.GetOppositeEndPointDefinition(eps[0]))
			require.Same(eps[0], rd.GetOppositeEndPointDefinition(eps[1]))
			require.Same(eps[0], eps[0].GetOppositeEndPointDefinition().GetOppositeEndPointDefinition())
			require.Same(eps[1], eps[1].GetOppositeEndPointDefinition().GetOppositeEndPointDefinition())
		})
	}
}

func TestNew_SortExpression(t *testing.T) {
	require := require.New(t)
	c := newShop(t)
	ep := class(t, c, "Customer").GetRelationEndPointDefinition("Shop.Customer.Orders")
	vep, ok := ep.(*mapping.VirtualRelationEndPoint)
	require.True(ok)
	expr, err := vep.GetSortExpression()
	require.NoError(err)
	require.Equal("Shop.Order.Number desc", expr.String())
	require.Same(class(t, c, "Order").GetPropertyDefinition("Shop.Order.Number"), expr.Specs[0].Property)
}

func TestNew_PropertyAccessorData(t *testing.T) {
	require := require.New(t)
	m := shopModel(t, shopYAML)
	c, err := New(mapping.NewModelReflector(m), rdbms.NewLoader())
	require.NoError(err)

	customer := class(t, c, "Customer")
	cache := c.PropertyAccessorData(customer)
	require.Same(cache, c.PropertyAccessorData(customer))
	require.Same(customer, cache.ClassDefinition())

	created := m.Lookup("Shop.Audited").Member("CreatedBy")
	data := cache.ResolvePropertyAccessorData(created)
	require.NotNil(data)
	require.Equal("Shop.Audit.CreatedBy", data.PropertyIdentifier)

	orders := cache.GetPropertyAccessorData("Shop.Customer.Orders")
	require.NotNil(orders)
	require.Equal(mapping.RelatedObjectCollection, orders.Kind)

	order := class(t, c, "Order")
	var wg sync.WaitGroup
	caches := make([]*mapping.PropertyAccessorDataCache, 8)
	for i := range caches {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			caches[i] = c.PropertyAccessorData(order)
		}()
	}
	wg.Wait()
	for _, got := range caches {
		require.Same(caches[0], got)
	}
}

func TestNew_Logging(t *testing.T) {
	require := require.New(t)
	core, logs := observer.New(zap.DebugLevel)
	c := newShop(t, WithLogger(zap.New(core)))

	var messages []string
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
	}
	require.Equal([]string{
		"class definitions loaded",
		"class definitions validated",
		"relation definitions validated",
		"persistence model applied",
		"mapping configuration built",
	}, messages)
	built := logs.FilterMessage("mapping configuration built").All()[0]
	require.Equal(zap.InfoLevel, built.Level)
	fields := built.ContextMap()
	require.Equal(c.ID().String(), fields["configuration"])
	require.EqualValues(5, fields["classes"])
	require.EqualValues(2, fields["relations"])
}

func TestNew_Errors(t *testing.T) {
	t.Run("DuplicateClassID", func(t *testing.T) {
		m := shopModel(t, shopYAML+`
  - name: Order2
    classID: Order
    table: Orders2
`)
		_, err := New(mapping.NewModelReflector(m), rdbms.NewLoader())
		require.Error(t, err)
		var be *BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, StepLoadClasses, be.Step)
		assert.ErrorIs(t, err, mapping.ErrMapping)
		assert.Contains(t, err.Error(), "Shop.Order")
		assert.Contains(t, err.Error(), "Shop.Order2")
	})
	t.Run("DuplicatePropertyName", func(t *testing.T) {
		doc := strings.Replace(shopYAML, `      - name: Rating
        type: int
`, `      - name: Rating
        type: int
      - name: Name
        type: string
        column: SupplierName
`, 1)
		_, err := New(mapping.NewModelReflector(shopModel(t, doc)), rdbms.NewLoader())
		require.Error(t, err)
		require.True(t, IsBuildError(err))
		assert.ErrorIs(t, err, mapping.ErrValidationFailed)
		violations := mapping.Violations(err)
		require.Len(t, violations, 1)
		assert.Equal(t, "Supplier", violations[0].ClassID)
		assert.Equal(t, "Shop.Supplier.Name", violations[0].Property)
		assert.Equal(t, `property "Name" is already defined in base class "Partner"`, violations[0].Message)
		assert.Equal(t, `ormap: validate class definitions: mapping: unique property names: class Supplier property Shop.Supplier.Name: property "Name" is already defined in base class "Partner"`, err.Error())
	})
	t.Run("MissingEntityName", func(t *testing.T) {
		doc := strings.Replace(shopYAML, "    table: Orders\n", "", 1)
		_, err := New(mapping.NewModelReflector(shopModel(t, doc)), rdbms.NewLoader())
		violations := mapping.Violations(err)
		require.Len(t, violations, 1)
		assert.Equal(t, "Order", violations[0].ClassID)
	})
	t.Run("InvalidSortExpression", func(t *testing.T) {
		doc := strings.Replace(shopYAML, "sort: Number desc", "sort: Nope desc", 1)
		_, err := New(mapping.NewModelReflector(shopModel(t, doc)), rdbms.NewLoader())
		var be *BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, StepValidateSorting, be.Step)
		var agg *mapping.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Equal(t, validate.StageSortExpression, agg.Stage)
		assert.Contains(t, err.Error(), `sort property "Nope" is not defined on class "Order"`)
	})
	t.Run("MixinDrift", func(t *testing.T) {
		finder := reflection.MixinFinderFunc(func(*reflection.Type) []*reflection.Type { return nil })
		_, err := New(mapping.NewModelReflector(shopModel(t, shopYAML)), rdbms.NewLoader(), WithMixinFinder(finder))
		violations := mapping.Violations(err)
		require.Len(t, violations, 1)
		assert.Equal(t, "Customer", violations[0].ClassID)
		assert.Equal(t, "persistent mixins changed after the mapping was built: added [], removed [Shop.Audit]", violations[0].Message)
	})
	t.Run("MixinsUnchanged", func(t *testing.T) {
		newShop(t, WithMixinFinder(reflection.DeclaredMixins{}))
	})
	t.Run("StorageViolation", func(t *testing.T) {
		doc := strings.Replace(shopYAML, `      - name: Rating
        type: int
`, `      - name: Rating
        type: int
      - name: Kind
        type: string
        column: ClassID
`, 1)
		_, err := New(mapping.NewModelReflector(shopModel(t, doc)), rdbms.NewLoader())
		var be *BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, StepValidateStorage, be.Step)
		violations := mapping.Violations(err)
		require.Len(t, violations, 1)
		assert.Equal(t, "Supplier", violations[0].ClassID)
		assert.Equal(t, "Shop.Supplier.Kind", violations[0].Property)
		assert.Equal(t, `column "ClassID" of table "Suppliers" is reserved`, violations[0].Message)
	})
}

const thingYAML = `
package: Shop
types:
  - name: Thing
    table: Things
    members:
      - name: Label
        type: string
`

func TestNew_PersistenceModelContract(t *testing.T) {
	tests := []struct {
		name     string
		stub     *stubPersistence
		property string
		message  string
	}{
		{
			name:    "Entity",
			stub:    &stubPersistence{skipEntities: true},
			message: "persistence model loader did not assign a storage entity",
		},
		{
			name:     "Property",
			stub:     &stubPersistence{skipProperties: true},
			property: "Shop.Thing.Label",
			message:  "persistence model loader did not assign a storage property",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(mapping.NewModelReflector(shopModel(t, thingYAML)), tt.stub)
			require.Error(t, err)
			assert.ErrorIs(t, err, mapping.ErrPersistenceModel)
			var be *BuildError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, StepApplyPersistence, be.Step)
			var agg *mapping.AggregateError
			require.ErrorAs(t, err, &agg)
			require.Len(t, agg.Errors, 1)
			var me *mapping.MappingError
			require.True(t, errors.As(agg.Errors[0], &me))
			assert.Equal(t, "Thing", me.ClassID)
			assert.Equal(t, tt.property, me.Property)
			assert.Equal(t, tt.message, me.Message)
		})
	}
	t.Run("Violations", func(t *testing.T) {
		stub := &stubPersistence{violations: []*mapping.ValidationError{
			mapping.NewValidationError("Thing", "", "table is not writable"),
		}}
		_, err := New(mapping.NewModelReflector(shopModel(t, thingYAML)), stub)
		assert.EqualError(t, err, "ormap: validate persistence mapping: mapping: persistence mapping: class Thing: table is not writable")
	})
	t.Run("Stub", func(t *testing.T) {
		c, err := New(mapping.NewModelReflector(shopModel(t, thingYAML)), &stubPersistence{})
		require.NoError(t, err)
		assert.Equal(t, "Things", class(t, c, "Thing").GetEntityName())
	})
	t.Run("LoaderFailure", func(t *testing.T) {
		m := shopModel(t, thingYAML)
		r := mapping.NewModelReflector(m)
		defs, err := r.GetClassDefinitions()
		require.NoError(t, err)
		for _, d := range defs {
			d.SetReadOnly()
		}
		_, err = New(frozenLoader{r, defs}, rdbms.NewLoader())
		var be *BuildError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, StepApplyPersistence, be.Step)
		assert.ErrorIs(t, err, mapping.ErrReadOnly)
	})
}

// frozenLoader returns prebuilt, frozen class definitions.
type frozenLoader struct {
	*mapping.Reflector
	defs []*mapping.ClassDefinition
}

func (l frozenLoader) GetClassDefinitions() ([]*mapping.ClassDefinition, error) { return l.defs, nil }
