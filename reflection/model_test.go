package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel(t *testing.T) {
	require := require.New(t)
	m := NewModel()
	require.Empty(m.Types())
	require.Same(String, m.Lookup("string"))
	require.Same(ObjectID, m.Lookup("ObjectID"))

	mixin := m.MustAdd(&Type{Name: "Shop.Audit", Kind: KindMixin})
	order := m.MustAdd(&Type{Name: "Shop.Order", Kind: KindDomainObject})
	customer := m.MustAdd(&Type{Name: "Shop.Customer", Kind: KindDomainObject})
	require.Equal([]*Type{mixin, order, customer}, m.Types())
	require.Equal([]*Type{order, customer}, m.DomainTypes())
	require.Same(order, m.Lookup("Shop.Order"))
	require.Nil(m.Lookup("Shop.Invoice"))

	orders := m.Lookup("[]Shop.Order")
	require.NotNil(orders)
	require.Equal(KindCollection, orders.Kind)
	require.Equal("[]Shop.Order", orders.Name)
	require.Same(order, orders.Elem)
	require.Same(orders, m.CollectionOf(order))
	require.Nil(m.Lookup("[]string"))
	require.Nil(m.Lookup("[]Shop.Invoice"))
}

func TestModel_AddErrors(t *testing.T) {
	m := NewModel()
	m.MustAdd(&Type{Name: "Shop.Order", Kind: KindDomainObject})
	tests := []struct {
		name string
		typ  *Type
		err  string
	}{
		{"Nil", nil, "reflection: nil type"},
		{"EmptyName", &Type{}, "reflection: type name cannot be empty"},
		{"CollectionName", &Type{Name: "[]Order"}, `reflection: type name "[]Order" cannot start with "[]"`},
		{"Redeclared", &Type{Name: "Shop.Order"}, `reflection: type "Shop.Order" redeclared`},
		{"Predeclared", &Type{Name: "string"}, `reflection: type "string" redeclared`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, m.Add(tt.typ), tt.err)
		})
	}
	assert.Panics(t, func() { m.MustAdd(&Type{}) })
}

func TestMember_Relation(t *testing.T) {
	m := NewModel()
	order := m.MustAdd(&Type{Name: "Shop.Order", Kind: KindDomainObject})
	customer := m.MustAdd(&Type{Name: "Shop.Customer", Kind: KindDomainObject})
	orders := customer.AddMember(&Member{Name: "Orders", Type: m.CollectionOf(order), Relation: &RelationInfo{Opposite: "Customer"}})
	owner := order.AddMember(&Member{Name: "Customer", Type: customer})
	number := order.AddMember(&Member{Name: "Number", Type: Int})
	tests := []struct {
		member   *Member
		relation bool
		related  *Type
		opposite string
	}{
		{orders, true, order, "Customer"},
		{owner, true, customer, ""},
		{number, false, nil, ""},
		{&Member{Name: "Untyped"}, false, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.member.Name, func(t *testing.T) {
			assert.Equal(t, tt.relation, tt.member.IsRelation())
			assert.Equal(t, tt.related, tt.member.RelatedType())
			assert.Equal(t, tt.opposite, tt.member.Opposite())
		})
	}
	assert.Equal(t, "Untyped", (&Member{Name: "Untyped"}).String())
}
