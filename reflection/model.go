package reflection

import (
	"fmt"
	"strings"
)

// CollectionPrefix prefixes the name of collection types.
const CollectionPrefix = "[]"

// Model is a set of types known to the discovery layer.
type Model struct {
	types       map[string]*Type
	declared    []*Type
	collections map[*Type]*Type
}

// NewModel returns a model holding the predeclared value types.
func NewModel() *Model {
	m := &Model{
		types:       make(map[string]*Type, len(predeclared)),
		collections: make(map[*Type]*Type),
	}
	for _, t := range predeclared {
		m.types[t.Name] = t
	}
	return m
}

// Add declares a new type in the model.
func (m *Model) Add(t *Type) error {
	switch {
	case t == nil:
		return fmt.Errorf("reflection: nil type")
	case t.Name == "":
		return fmt.Errorf("reflection: type name cannot be empty")
	case strings.HasPrefix(t.Name, CollectionPrefix):
		return fmt.Errorf("reflection: type name %q cannot start with %q", t.Name, CollectionPrefix)
	}
	if _, ok := m.types[t.Name]; ok {
		return fmt.Errorf("reflection: type %q redeclared", t.Name)
	}
	m.types[t.Name] = t
	m.declared = append(m.declared, t)
	return nil
}

// MustAdd is like Add but panics on error.
func (m *Model) MustAdd(t *Type) *Type {
	if err := m.Add(t); err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the type with the given name. Collection names ("[]T")
// resolve to the collection type of T.
func (m *Model) Lookup(name string) *Type {
	if elem, ok := strings.CutPrefix(name, CollectionPrefix); ok {
		e := m.Lookup(elem)
		if e == nil || e.Kind != KindDomainObject {
			return nil
		}
		return m.CollectionOf(e)
	}
	return m.types[name]
}

// CollectionOf returns the collection type of the given domain type.
func (m *Model) CollectionOf(elem *Type) *Type {
	if c, ok := m.collections[elem]; ok {
		return c
	}
	c := &Type{Name: CollectionPrefix + elem.Name, Kind: KindCollection, Elem: elem}
	m.collections[elem] = c
	return c
}

// Types returns the declared (not predeclared) types in declaration order.
func (m *Model) Types() []*Type {
	return append([]*Type(nil), m.declared...)
}

// DomainTypes returns the declared domain object types in declaration order.
func (m *Model) DomainTypes() []*Type {
	var types []*Type
	for _, t := range m.declared {
		if t.Kind == KindDomainObject {
			types = append(types, t)
		}
	}
	return types
}
