package rdbms

import (
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/ormap/mapping"
)

// ValidationResult holds the results of a persistence mapping validation.
type ValidationResult struct {
	Errors   []*mapping.ValidationError
	Warnings []*mapping.ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found.\n")
	}
	return sb.String()
}

// Validator checks the tables and views assigned by a Loader.
type Validator struct {
	log *zap.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorLogger sets the logger warnings are written to.
func WithValidatorLogger(log *zap.Logger) ValidatorOption {
	return func(v *Validator) {
		if log != nil {
			v.log = log
		}
	}
}

// NewValidator returns a persistence mapping validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{log: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate implements mapping.PersistenceMappingValidator. Warnings are
// logged, errors are returned.
func (v *Validator) Validate(classes []*mapping.ClassDefinition) []*mapping.ValidationError {
	result := v.Check(classes)
	for _, w := range result.Warnings {
		v.log.Warn("persistence mapping", zap.String("class", w.ClassID), zap.String("warning", w.Message))
	}
	return result.Errors
}

// Check validates the classes and returns errors and warnings.
func (v *Validator) Check(classes []*mapping.ClassDefinition) *ValidationResult {
	result := &ValidationResult{}
	var (
		tables []*TableDefinition
		seen   = make(map[*TableDefinition]bool)
	)
	for _, cls := range classes {
		switch e := cls.StorageEntity().(type) {
		case *UnionViewDefinition:
			result.merge(ValidateUnionView(cls, e))
		case *TableDefinition:
			if !seen[e] {
				seen[e] = true
				tables = append(tables, e)
			}
		}
		for _, p := range cls.MyPropertyDefinitions().Persistent() {
			if c, ok := p.StorageProperty().(*ColumnDefinition); ok && !c.IsSupported() {
				result.Errors = append(result.Errors, mapping.NewValidationError(cls.ID(), p.PropertyName(),
					"type %s cannot be stored in a relational column", p.PropertyType()))
			}
		}
	}
	names := make(map[string]*TableDefinition)
	for _, t := range tables {
		if prev, ok := names[t.EntityName()]; ok {
			result.Errors = append(result.Errors, mapping.NewValidationError(t.owner.ID(), "",
				"table name %q is already used by class %q of the same hierarchy", t.EntityName(), prev.owner.ID()))
			continue
		}
		names[t.EntityName()] = t
		result.merge(ValidateTable(t))
	}
	return result
}

// ValidateUnionView validates a class mapped to a union view.
func ValidateUnionView(cls *mapping.ClassDefinition, v *UnionViewDefinition) *ValidationResult {
	result := &ValidationResult{}
	if !cls.IsAbstract() {
		result.Errors = append(result.Errors, mapping.NewValidationError(cls.ID(), "",
			"class without a table must be abstract, it is mapped to union view %q", v.view.Name))
	}
	if len(v.tables) == 0 {
		result.Warnings = append(result.Warnings, mapping.NewValidationError(cls.ID(), "",
			"union view %q has no tables", v.view.Name))
	}
	return result
}

// ValidateTable validates a single table definition.
func ValidateTable(t *TableDefinition) *ValidationResult {
	result := &ValidationResult{}

	if t.table.PrimaryKey == nil || len(t.table.PrimaryKey.Parts) == 0 {
		result.Warnings = append(result.Warnings, mapping.NewValidationError(t.owner.ID(), "",
			"table %q has no primary key", t.table.Name))
	}

	// Columns are attributed to the property declaring them, so the owner's
	// ancestors and the classes sharing the table are walked in column order.
	used := map[string]string{IDColumn: "", ClassIDColumn: ""}
	for _, cls := range tableClasses(t) {
		for _, p := range cls.MyPropertyDefinitions().Persistent() {
			name := p.StorageSpecificName()
			if prev, ok := used[name]; ok {
				msg := "column %q of table %q is reserved"
				args := []any{name, t.table.Name}
				if prev != "" {
					msg = "column %q of table %q is already used by property %s"
					args = append(args, prev)
				}
				result.Errors = append(result.Errors, mapping.NewValidationError(cls.ID(), p.PropertyName(), msg, args...))
				continue
			}
			used[name] = p.String()
		}
	}
	return result
}

func tableClasses(t *TableDefinition) []*mapping.ClassDefinition {
	classes := append(reverse(t.owner.Ancestors()), t.owner)
	for _, d := range t.owner.Descendants() {
		if d.StorageEntity() == mapping.StorageEntity(t) {
			classes = append(classes, d)
		}
	}
	return classes
}

var _ mapping.PersistenceMappingValidator = (*Validator)(nil)
