package rdbms

import (
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"

	"github.com/syssam/ormap/mapping"
	"github.com/syssam/ormap/reflection"
)

// columnType maps a property to its column type. Types without a mapping
// yield a *schema.UnsupportedType.
func columnType(p *mapping.PropertyDefinition) schema.Type {
	if p.IsObjectID() {
		return &schema.UUIDType{T: postgres.TypeUUID}
	}
	t := p.PropertyType()
	switch t {
	case reflection.String:
		if n, ok := p.MaxLength(); ok {
			return &schema.StringType{T: postgres.TypeVarChar, Size: n}
		}
		return &schema.StringType{T: postgres.TypeText}
	case reflection.Int, reflection.Int32:
		return &schema.IntegerType{T: postgres.TypeInteger}
	case reflection.Int64:
		return &schema.IntegerType{T: postgres.TypeBigInt}
	case reflection.Bool:
		return &schema.BoolType{T: postgres.TypeBoolean}
	case reflection.Float64:
		return &schema.FloatType{T: postgres.TypeDouble}
	case reflection.Decimal:
		return &schema.DecimalType{T: postgres.TypeNumeric, Precision: 19, Scale: 4}
	case reflection.Time:
		return &schema.TimeType{T: postgres.TypeTimestamp}
	case reflection.UUID:
		return &schema.UUIDType{T: postgres.TypeUUID}
	case reflection.Bytes:
		return &schema.BinaryType{T: postgres.TypeBytea}
	case nil:
		return &schema.UnsupportedType{T: "unknown"}
	default:
		return &schema.UnsupportedType{T: t.Name}
	}
}

func idColumn() *schema.Column {
	return schema.NewColumn(IDColumn).SetType(&schema.UUIDType{T: postgres.TypeUUID})
}

func classIDColumn() *schema.Column {
	return schema.NewColumn(ClassIDColumn).SetType(&schema.StringType{T: postgres.TypeVarChar, Size: 100})
}
