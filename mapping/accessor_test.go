package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/ormap/reflection"
)

func TestPropertyAccessorDataCache(t *testing.T) {
	s := buildShop(t)
	order := NewPropertyAccessorDataCache(s.class(t, "Order"), nil)

	tests := []struct {
		id   string
		kind AccessorKind
	}{
		{"Shop.Order.Number", PropertyValue},
		{"Shop.Order.Comment", PropertyValue},
		{"Shop.Order.Customer", RelatedObject},
		{"Shop.Order.Invoice", RelatedObject},
		{"Shop.Order.Supplier", RelatedObject},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d := order.GetPropertyAccessorData(tt.id)
			require.NotNil(t, d)
			require.Equal(t, tt.kind, d.Kind)
			require.Equal(t, "Shop.Order", d.DeclaringTypeName)
		})
	}

	customer := NewPropertyAccessorDataCache(s.class(t, "Customer"), reflection.ReflectionNameResolver{})
	orders := customer.GetPropertyAccessorData("Shop.Customer.Orders")
	require.NotNil(t, orders)
	require.Equal(t, RelatedObjectCollection, orders.Kind)
	require.Nil(t, orders.PropertyDefinition)
	require.Equal(t, "Orders", orders.ShortName)

	_, err := order.GetMandatoryPropertyAccessorData("Shop.Order.Missing")
	require.ErrorIs(t, err, ErrMapping)
}

func TestPropertyAccessorDataCache_Resolve(t *testing.T) {
	s := buildShop(t)
	customer := NewPropertyAccessorDataCache(s.class(t, "Customer"), nil)

	t.Run("OwnMember", func(t *testing.T) {
		m := s.model.Lookup("Shop.Customer").Member("Name")
		d := customer.ResolvePropertyAccessorData(m)
		require.NotNil(t, d)
		require.Equal(t, "Shop.Customer.Name", d.PropertyIdentifier)
	})
	t.Run("InterfaceImplementedByMixin", func(t *testing.T) {
		m := s.model.Lookup("Shop.Audited").Member("CreatedBy")
		d, err := customer.ResolveMandatoryPropertyAccessorData(m)
		require.NoError(t, err)
		require.Equal(t, "Shop.Audit.CreatedBy", d.PropertyIdentifier)
		require.Equal(t, "Shop.Audit", d.DeclaringTypeName)
	})
	t.Run("InterfaceNotImplemented", func(t *testing.T) {
		m := s.model.Lookup("Shop.Audited").Member("CreatedBy")
		order := NewPropertyAccessorDataCache(s.class(t, "Order"), nil)
		require.Nil(t, order.ResolvePropertyAccessorData(m))
		_, err := order.ResolveMandatoryPropertyAccessorData(m)
		require.EqualError(t, err, `mapping: class Order: member "CreatedBy" of type Shop.Audited is not a mapped property`)
	})
	t.Run("Nil", func(t *testing.T) {
		require.Nil(t, customer.ResolvePropertyAccessorData(nil))
	})
}

func TestPropertyAccessorDataCache_RenamedImplementation(t *testing.T) {
	m := reflection.NewModel()
	named := m.MustAdd(&reflection.Type{Name: "Named", Kind: reflection.KindInterface})
	named.AddMember(&reflection.Member{Name: "Title", Type: reflection.String})
	doc := m.MustAdd(&reflection.Type{
		Name:            "Doc",
		Kind:            reflection.KindDomainObject,
		Interfaces:      []*reflection.Type{named},
		Implementations: map[string]string{"Named.Title": "Caption"},
	})
	doc.AddMember(&reflection.Member{Name: "Caption", Type: reflection.String})
	s := buildModel(t, m)

	cache := NewPropertyAccessorDataCache(s.class(t, "Doc"), nil)
	d := cache.ResolvePropertyAccessorData(named.Member("Title"))
	require.NotNil(t, d)
	require.Equal(t, "Doc.Caption", d.PropertyIdentifier)
}

func TestPropertyAccessorDataCache_Find(t *testing.T) {
	s := buildShop(t)
	supplier := NewPropertyAccessorDataCache(s.class(t, "Supplier"), nil)
	partnerType := s.model.Lookup("Shop.Partner")
	supplierType := s.model.Lookup("Shop.Supplier")

	d := supplier.FindPropertyAccessorData(supplierType, "Name")
	require.NotNil(t, d)
	require.Equal(t, "Shop.Partner.Name", d.PropertyIdentifier)
	require.NotNil(t, supplier.FindPropertyAccessorData(supplierType, "Rating"))
	require.Nil(t, supplier.FindPropertyAccessorData(partnerType, "Rating"))

	generic := &reflection.Type{Name: "Shop.Supplier[int]", Kind: reflection.KindDomainObject, Definition: supplierType, Base: partnerType}
	d = supplier.FindPropertyAccessorData(generic, "Rating")
	require.NotNil(t, d)
	require.Equal(t, "Shop.Supplier.Rating", d.PropertyIdentifier)
}
