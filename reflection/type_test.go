package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fleet declares Vehicle <- Car <- SportsCar, where Vehicle implements
// Tracked (which extends Named) through a renamed member.
type fleet struct {
	named, tracked          *Type
	vehicle, car, sportsCar *Type
	list, intList           *Type
}

func newFleet(t *testing.T) *fleet {
	t.Helper()
	m := NewModel()
	f := &fleet{}
	f.named = m.MustAdd(&Type{Name: "Fleet.Named", Kind: KindInterface})
	f.named.AddMember(&Member{Name: "Name", Type: String})
	f.tracked = m.MustAdd(&Type{Name: "Fleet.Tracked", Kind: KindInterface, Interfaces: []*Type{f.named}})
	f.tracked.AddMember(&Member{Name: "Position", Type: String})
	f.vehicle = m.MustAdd(&Type{
		Name:            "Fleet.Vehicle",
		Kind:            KindDomainObject,
		Abstract:        true,
		Interfaces:      []*Type{f.tracked},
		Implementations: map[string]string{"Fleet.Tracked.Position": "Location"},
	})
	f.vehicle.AddMember(&Member{Name: "Name", Type: String})
	f.vehicle.AddMember(&Member{Name: "Location", Type: String})
	f.car = m.MustAdd(&Type{Name: "Fleet.Car", Kind: KindDomainObject, Base: f.vehicle})
	f.car.AddMember(&Member{Name: "Seats", Type: Int})
	f.sportsCar = m.MustAdd(&Type{Name: "Fleet.SportsCar", Kind: KindDomainObject, Base: f.car})
	f.list = m.MustAdd(&Type{Name: "Fleet.List", Kind: KindValue})
	f.intList = m.MustAdd(&Type{Name: "Fleet.List[int]", Kind: KindValue, Definition: f.list})
	return f
}

func TestType_Names(t *testing.T) {
	f := newFleet(t)
	tests := []struct {
		typ   *Type
		name  string
		short string
	}{
		{f.car, "Fleet.Car", "Car"},
		{f.tracked, "Fleet.Tracked", "Tracked"},
		{String, "string", "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.typ.String())
			assert.Equal(t, tt.short, tt.typ.ShortName())
		})
	}
	var nilType *Type
	assert.Equal(t, "<nil>", nilType.String())
	assert.Equal(t, "domain", KindDomainObject.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestType_Hierarchy(t *testing.T) {
	require := require.New(t)
	f := newFleet(t)
	require.True(f.sportsCar.IsSubclassOf(f.vehicle))
	require.True(f.sportsCar.IsSubclassOf(f.car))
	require.False(f.car.IsSubclassOf(f.car))
	require.False(f.car.IsSubclassOf(nil))
	require.True(f.car.IsSameOrSubclassOf(f.car))
	require.False(f.vehicle.IsSameOrSubclassOf(f.car))
}

func TestType_Members(t *testing.T) {
	require := require.New(t)
	f := newFleet(t)
	seats := f.car.Member("Seats")
	require.NotNil(seats)
	require.Same(f.car, seats.DeclaringType)
	require.Equal("Fleet.Car.Seats", seats.String())
	require.Nil(f.sportsCar.Member("Seats"))
	require.Same(seats, f.sportsCar.FindMember("Seats"))
	require.Same(f.vehicle.Member("Name"), f.sportsCar.FindMember("Name"))
	require.Nil(f.sportsCar.FindMember("Wings"))
}

func TestType_Implements(t *testing.T) {
	require := require.New(t)
	f := newFleet(t)
	require.True(f.vehicle.Implements(f.tracked))
	require.True(f.vehicle.Implements(f.named))
	require.True(f.sportsCar.Implements(f.named))
	require.False(f.vehicle.Implements(f.car))
	require.False(f.list.Implements(f.named))

	// Renamed through the implementation map, inherited by derived types.
	require.Same(f.vehicle.Member("Location"), f.sportsCar.ImplementationOf(f.tracked.Member("Position")))
	// Implemented by name.
	require.Same(f.vehicle.Member("Name"), f.car.ImplementationOf(f.named.Member("Name")))
	require.Nil(f.list.ImplementationOf(f.named.Member("Name")))
	require.Nil(f.car.ImplementationOf(nil))
}

func TestType_GenericDefinition(t *testing.T) {
	f := newFleet(t)
	assert.Same(t, f.list, f.intList.GenericDefinition())
	assert.Same(t, f.list, f.list.GenericDefinition())
}
