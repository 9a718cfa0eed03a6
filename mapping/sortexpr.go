package mapping

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/syssam/ormap/reflection"
)

// SortOrder is the direction of a sorted property.
type SortOrder uint8

// Sort orders.
const (
	Ascending SortOrder = iota
	Descending
)

// String returns the sort order keyword.
func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// SortedPropertySpecification is one property of a sort expression.
type SortedPropertySpecification struct {
	Property *PropertyDefinition
	Order    SortOrder
}

// String implements the fmt.Stringer interface.
func (s SortedPropertySpecification) String() string {
	return s.Property.PropertyName() + " " + s.Order.String()
}

// SortExpressionDefinition is a parsed sort expression.
type SortExpressionDefinition struct {
	Specs []SortedPropertySpecification
}

// String implements the fmt.Stringer interface.
func (e *SortExpressionDefinition) String() string {
	specs := make([]string, len(e.Specs))
	for i, s := range e.Specs {
		specs[i] = s.String()
	}
	return strings.Join(specs, ", ")
}

var (
	foldAsc  = cases.Fold().String("asc")
	foldDesc = cases.Fold().String("desc")
)

// ParseSortExpression parses a comma separated list of "Property [asc|desc]"
// items against the given class. Properties are given either by their
// qualified name or by their short name on the class type. An empty
// expression yields an empty definition.
func ParseSortExpression(class *ClassDefinition, expr string, resolver reflection.NameResolver) (*SortExpressionDefinition, error) {
	def := &SortExpressionDefinition{}
	// A Caser is stateful and must not be shared between goroutines.
	fold := cases.Fold()
	for _, segment := range strings.Split(expr, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		tokens := strings.Fields(segment)
		if len(tokens) > 2 {
			return nil, NewMappingError(class.ID(), "", "sort expression item %q must have one or two words, got %d", segment, len(tokens))
		}
		p, err := resolveSortProperty(class, tokens[0], resolver)
		if err != nil {
			return nil, err
		}
		spec := SortedPropertySpecification{Property: p, Order: Ascending}
		if len(tokens) == 2 {
			switch fold.String(tokens[1]) {
			case foldAsc:
			case foldDesc:
				spec.Order = Descending
			default:
				return nil, NewMappingError(class.ID(), "", "sort order %q is not valid, must be %q or %q", tokens[1], "asc", "desc")
			}
		}
		def.Specs = append(def.Specs, spec)
	}
	return def, nil
}

func resolveSortProperty(class *ClassDefinition, token string, resolver reflection.NameResolver) (*PropertyDefinition, error) {
	if p := class.GetPropertyDefinition(token); p != nil {
		return p, nil
	}
	if t := class.Type(); t != nil && resolver != nil {
		if m := t.FindMember(token); m != nil {
			if p := class.GetPropertyDefinition(resolver.PropertyName(m)); p != nil {
				return p, nil
			}
		}
	}
	return nil, NewMappingError(class.ID(), "", "sort property %q is not defined on class %q", token, class.ID())
}
