package mapping

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/ormap/reflection"
)

// shopModel declares the types used across the package tests:
//
//	Customer 1 -- * Order        (Order.Customer holds the foreign key)
//	Order    1 -- 1 Invoice      (Invoice.Order holds the foreign key)
//	Order    * --> Supplier      (unidirectional)
//	Partner <- Supplier, Distributor
//	Customer mixes in Audit, which implements Audited.
func shopModel(t *testing.T) *reflection.Model {
	t.Helper()
	m := reflection.NewModel()
	audited := m.MustAdd(&reflection.Type{Name: "Shop.Audited", Kind: reflection.KindInterface})
	audited.AddMember(&reflection.Member{Name: "CreatedBy", Type: reflection.String})
	audit := m.MustAdd(&reflection.Type{Name: "Shop.Audit", Kind: reflection.KindMixin, Interfaces: []*reflection.Type{audited}})
	audit.AddMember(&reflection.Member{Name: "CreatedBy", Type: reflection.String, Storage: reflection.StorageInfo{MaxLength: 50}})

	customer := m.MustAdd(&reflection.Type{Name: "Shop.Customer", Kind: reflection.KindDomainObject, EntityName: "Customer", Mixins: []*reflection.Type{audit}})
	order := m.MustAdd(&reflection.Type{Name: "Shop.Order", Kind: reflection.KindDomainObject, EntityName: "Order"})
	invoice := m.MustAdd(&reflection.Type{Name: "Shop.Invoice", Kind: reflection.KindDomainObject, EntityName: "Invoice"})
	partner := m.MustAdd(&reflection.Type{Name: "Shop.Partner", Kind: reflection.KindDomainObject, EntityName: "Partner"})
	supplier := m.MustAdd(&reflection.Type{Name: "Shop.Supplier", Kind: reflection.KindDomainObject, Base: partner})
	distributor := m.MustAdd(&reflection.Type{Name: "Shop.Distributor", Kind: reflection.KindDomainObject, Base: partner})

	customer.AddMember(&reflection.Member{Name: "Name", Type: reflection.String, Storage: reflection.StorageInfo{MaxLength: 100}})
	customer.AddMember(&reflection.Member{Name: "Age", Type: reflection.Int})
	customer.AddMember(&reflection.Member{Name: "Orders", Type: m.CollectionOf(order), Relation: &reflection.RelationInfo{Opposite: "Customer", SortExpression: "Number desc"}})

	order.AddMember(&reflection.Member{Name: "Number", Type: reflection.Int})
	order.AddMember(&reflection.Member{Name: "Comment", Type: reflection.String, Nullable: true, Storage: reflection.StorageInfo{Transient: true}})
	order.AddMember(&reflection.Member{Name: "Customer", Type: customer, Mandatory: true, Relation: &reflection.RelationInfo{Opposite: "Orders"}})
	order.AddMember(&reflection.Member{Name: "Invoice", Type: invoice, Relation: &reflection.RelationInfo{Opposite: "Order"}})
	order.AddMember(&reflection.Member{Name: "Supplier", Type: supplier})

	invoice.AddMember(&reflection.Member{Name: "Total", Type: reflection.Decimal})
	invoice.AddMember(&reflection.Member{Name: "Order", Type: order, Relation: &reflection.RelationInfo{Opposite: "Invoice", ForeignKey: true}})

	partner.AddMember(&reflection.Member{Name: "Name", Type: reflection.String, Storage: reflection.StorageInfo{Column: "PartnerName"}})
	supplier.AddMember(&reflection.Member{Name: "Rating", Type: reflection.Int})
	distributor.AddMember(&reflection.Member{Name: "Region", Type: reflection.String, Nullable: true})
	return m
}

type shop struct {
	model     *reflection.Model
	classes   *ClassDefinitionCollection
	relations []*RelationDefinition
}

func (s *shop) class(t *testing.T, id string) *ClassDefinition {
	t.Helper()
	cls := s.classes.Get(id)
	require.NotNil(t, cls, "class %q", id)
	return cls
}

func (s *shop) relation(t *testing.T, id string) *RelationDefinition {
	t.Helper()
	for _, rd := range s.relations {
		if rd.ID() == id {
			return rd
		}
	}
	require.Failf(t, "relation not found", "relation %q", id)
	return nil
}

func buildShop(t *testing.T) *shop {
	t.Helper()
	return buildModel(t, shopModel(t))
}

func buildModel(t *testing.T, m *reflection.Model) *shop {
	t.Helper()
	r := NewModelReflector(m)
	defs, err := r.GetClassDefinitions()
	require.NoError(t, err)
	classes, err := NewClassDefinitionCollection(true, defs...)
	require.NoError(t, err)
	relations, err := r.GetRelationDefinitions(classes)
	require.NoError(t, err)
	return &shop{model: m, classes: classes, relations: relations}
}

// newClass creates a class with empty own collections.
func newClass(t *testing.T, id string, base *ClassDefinition) *ClassDefinition {
	t.Helper()
	cls, err := NewClassDefinition(id, ClassOptions{BaseClass: base, EntityName: id})
	require.NoError(t, err)
	require.NoError(t, cls.SetPropertyDefinitions(&PropertyDefinitionCollection{}))
	require.NoError(t, cls.SetRelationEndPointDefinitions(&RelationEndPointDefinitionCollection{}))
	return cls
}
