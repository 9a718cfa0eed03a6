package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/ormap/reflection"
)

func TestParseSortExpression(t *testing.T) {
	s := buildShop(t)
	customer := s.class(t, "Customer")
	resolver := reflection.ReflectionNameResolver{}
	name := customer.GetPropertyDefinition("Shop.Customer.Name")
	age := customer.GetPropertyDefinition("Shop.Customer.Age")

	tests := []struct {
		expr    string
		want    []SortedPropertySpecification
		wantErr string
	}{
		{expr: "Name asc, Age desc", want: []SortedPropertySpecification{{name, Ascending}, {age, Descending}}},
		{expr: "Shop.Customer.Name DESC", want: []SortedPropertySpecification{{name, Descending}}},
		{expr: " Age ,, Name ", want: []SortedPropertySpecification{{age, Ascending}, {name, Ascending}}},
		{expr: "Name Asc", want: []SortedPropertySpecification{{name, Ascending}}},
		{expr: "", want: nil},
		{expr: " , ", want: nil},
		{expr: "Name middle", wantErr: `mapping: class Customer: sort order "middle" is not valid, must be "asc" or "desc"`},
		{expr: "Unknown", wantErr: `mapping: class Customer: sort property "Unknown" is not defined on class "Customer"`},
		{expr: "Name asc extra", wantErr: `mapping: class Customer: sort expression item "Name asc extra" must have one or two words, got 3`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseSortExpression(customer, tt.expr, resolver)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Specs)
		})
	}
}

func TestVirtualEndPoint_GetSortExpression(t *testing.T) {
	require := require.New(t)
	s := buildShop(t)
	ep := s.class(t, "Customer").GetRelationEndPointDefinition("Shop.Customer.Orders").(*VirtualRelationEndPoint)
	expr, err := ep.GetSortExpression()
	require.NoError(err)
	require.Equal("Shop.Order.Number desc", expr.String())

	again, err := ep.GetSortExpression()
	require.NoError(err)
	require.Same(expr, again)

	invoice := s.class(t, "Order").GetRelationEndPointDefinition("Shop.Order.Invoice").(*VirtualRelationEndPoint)
	expr, err = invoice.GetSortExpression()
	require.NoError(err)
	require.Nil(expr)
}

func TestVirtualEndPoint_InvalidSortExpression(t *testing.T) {
	m := reflection.NewModel()
	a := m.MustAdd(&reflection.Type{Name: "A", Kind: reflection.KindDomainObject})
	b := m.MustAdd(&reflection.Type{Name: "B", Kind: reflection.KindDomainObject})
	a.AddMember(&reflection.Member{Name: "Bs", Type: m.CollectionOf(b), Relation: &reflection.RelationInfo{Opposite: "A", SortExpression: "Missing"}})
	b.AddMember(&reflection.Member{Name: "A", Type: a, Relation: &reflection.RelationInfo{Opposite: "Bs"}})
	s := buildModel(t, m)

	ep := s.class(t, "A").GetRelationEndPointDefinition("A.Bs").(*VirtualRelationEndPoint)
	_, err := ep.GetSortExpression()
	require.Error(t, err)
	require.True(t, IsMappingError(err))
	require.Contains(t, err.Error(), `invalid sort expression "Missing"`)
	require.Contains(t, err.Error(), `sort property "Missing" is not defined on class "B"`)
}
