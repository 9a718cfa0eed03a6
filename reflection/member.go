package reflection

// Member is a property-like member declared on a type.
type Member struct {
	// DeclaringType is the type that declares the member.
	DeclaringType *Type
	// Name is the short member name.
	Name string
	// Type is the value type of the member.
	Type *Type
	// Nullable signals that the member accepts null values.
	Nullable bool
	// Mandatory signals that a relation member must always be set.
	Mandatory bool
	// Storage holds the storage hints of the member.
	Storage StorageInfo
	// Relation holds the relation hints of relation members. Nil means
	// the member is either a value or the real side of a unidirectional
	// relation.
	Relation *RelationInfo
}

// StorageInfo holds storage hints declared on a member.
type StorageInfo struct {
	// Column overrides the storage specific name.
	Column string
	// MaxLength limits string and byte members, zero means unbounded.
	MaxLength int
	// Transient members are not persisted.
	Transient bool
}

// RelationInfo holds relation hints declared on a relation member.
type RelationInfo struct {
	// Opposite is the short name of the opposite member on the related type.
	Opposite string
	// ForeignKey marks the side holding the foreign key of a one-to-one relation.
	ForeignKey bool
	// SortExpression orders the items of a collection member.
	SortExpression string
}

// String returns the member name qualified with its declaring type.
func (m *Member) String() string {
	if m.DeclaringType == nil {
		return m.Name
	}
	return m.DeclaringType.Name + "." + m.Name
}

// IsRelation reports whether the member refers to domain objects.
func (m *Member) IsRelation() bool {
	return m.Type != nil && (m.Type.Kind == KindDomainObject || m.Type.Kind == KindCollection)
}

// RelatedType returns the domain type a relation member refers to. For
// collections, it is the element type.
func (m *Member) RelatedType() *Type {
	switch {
	case m.Type == nil:
		return nil
	case m.Type.Kind == KindCollection:
		return m.Type.Elem
	case m.Type.Kind == KindDomainObject:
		return m.Type
	default:
		return nil
	}
}

// Opposite returns the declared opposite member name, or "".
func (m *Member) Opposite() string {
	if m.Relation == nil {
		return ""
	}
	return m.Relation.Opposite
}
