// Package load reads YAML descriptor files into a reflection model.
//
// A descriptor file lists the types of one package:
//
//	package: Shop
//	types:
//	  - name: Customer
//	    table: Customer
//	    members:
//	      - name: Name
//	        type: string
//	        maxLength: 100
//	      - name: Orders
//	        type: "[]Order"
//	        opposite: Customer
//	        sort: Number desc
//
// Types are declared in a first pass and resolved in a second one, so
// references may point forward and across files.
package load

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/ormap/reflection"
)

// Option configures loading.
type Option func(*options)

type options struct {
	pluralize bool
}

// WithPluralizedEntityNames derives the table name of concrete inheritance
// roots that do not declare one by pluralizing the short type name.
func WithPluralizedEntityNames() Option {
	return func(o *options) {
		o.pluralize = true
	}
}

// File loads a single descriptor file.
func File(path string, opts ...Option) (*reflection.Model, error) {
	return Files([]string{path}, opts...)
}

// Files loads the descriptor files into one model.
func Files(paths []string, opts ...Option) (*reflection.Model, error) {
	l := newLoader(opts)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load: read descriptor: %w", err)
		}
		if err := l.parse(path, data); err != nil {
			return nil, err
		}
	}
	return l.build()
}

// Parse loads a descriptor document.
func Parse(data []byte, opts ...Option) (*reflection.Model, error) {
	l := newLoader(opts)
	if err := l.parse("", data); err != nil {
		return nil, err
	}
	return l.build()
}

type (
	// source is a parsed document with the file it was read from.
	source struct {
		file string
		doc  Document
	}
	// declared ties a declared type to its descriptor.
	declared struct {
		src  *source
		desc *TypeDescriptor
		typ  *reflection.Type
	}
	loader struct {
		options
		model   *reflection.Model
		sources []*source
		types   []*declared
	}
)

func newLoader(opts []Option) *loader {
	l := &loader{model: reflection.NewModel()}
	for _, opt := range opts {
		opt(&l.options)
	}
	return l
}

func (l *loader) parse(file string, data []byte) error {
	src := &source{file: file}
	if err := yaml.Unmarshal(data, &src.doc); err != nil {
		if file == "" {
			return fmt.Errorf("load: parse descriptor: %w", err)
		}
		return fmt.Errorf("load: parse descriptor %s: %w", file, err)
	}
	l.sources = append(l.sources, src)
	return nil
}

func (l *loader) build() (*reflection.Model, error) {
	for _, src := range l.sources {
		for i := range src.doc.Types {
			if err := l.declare(src, &src.doc.Types[i]); err != nil {
				return nil, err
			}
		}
	}
	for _, d := range l.types {
		if err := l.resolve(d); err != nil {
			return nil, err
		}
	}
	if l.pluralize {
		for _, d := range l.types {
			t := d.typ
			if t.Kind == reflection.KindDomainObject && t.Base == nil && !t.Abstract && t.EntityName == "" {
				t.EntityName = inflect.Pluralize(t.ShortName())
			}
		}
	}
	return l.model, nil
}

// declare adds the type to the model without resolving its references.
func (l *loader) declare(src *source, desc *TypeDescriptor) error {
	pos := src.pos(desc.Pos)
	if desc.Name == "" {
		return errorf(pos, "type name cannot be empty")
	}
	kind, err := parseKind(desc.Kind)
	if err != nil {
		return &Error{Pos: pos, Err: err}
	}
	t := &reflection.Type{
		Name:         src.qualify(desc.Name),
		Kind:         kind,
		Abstract:     desc.Abstract,
		ClassID:      desc.ClassID,
		EntityName:   desc.Table,
		StorageGroup: desc.StorageGroup,
	}
	if err := l.model.Add(t); err != nil {
		return &Error{Pos: pos, Err: err}
	}
	l.types = append(l.types, &declared{src: src, desc: desc, typ: t})
	return nil
}

func (l *loader) resolve(d *declared) error {
	t, desc, pos := d.typ, d.desc, d.src.pos(d.desc.Pos)
	if desc.Base != "" {
		base, err := l.lookup(d.src, desc.Base, pos)
		if err != nil {
			return err
		}
		if base.Kind != t.Kind {
			return errorf(pos, "base type %s of kind %s does not match kind %s of %s", base, base.Kind, t.Kind, t)
		}
		if base == t || base.IsSubclassOf(t) {
			return errorf(pos, "type %s cannot derive from itself", t)
		}
		t.Base = base
	}
	if desc.Generic != "" {
		def, err := l.lookup(d.src, desc.Generic, pos)
		if err != nil {
			return err
		}
		t.Definition = def
	}
	for _, name := range desc.Mixins {
		mx, err := l.lookup(d.src, name, pos)
		if err != nil {
			return err
		}
		if mx.Kind != reflection.KindMixin {
			return errorf(pos, "%s is not a mixin", mx)
		}
		t.Mixins = append(t.Mixins, mx)
	}
	for _, name := range desc.Interfaces {
		iface, err := l.lookup(d.src, name, pos)
		if err != nil {
			return err
		}
		if iface.Kind != reflection.KindInterface {
			return errorf(pos, "%s is not an interface", iface)
		}
		t.Interfaces = append(t.Interfaces, iface)
	}
	for key, member := range desc.Implements {
		i := strings.LastIndexByte(key, '.')
		if i <= 0 {
			return errorf(pos, "implements key %q must have the form Interface.Member", key)
		}
		iface, err := l.lookup(d.src, key[:i], pos)
		if err != nil {
			return err
		}
		if t.Implementations == nil {
			t.Implementations = make(map[string]string)
		}
		t.Implementations[iface.Name+key[i:]] = member
	}
	for i := range desc.Members {
		if err := l.member(d, &desc.Members[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) member(d *declared, desc *MemberDescriptor) error {
	pos := d.src.pos(desc.Pos)
	if desc.Name == "" {
		return errorf(pos, "member name cannot be empty")
	}
	if d.typ.Member(desc.Name) != nil {
		return errorf(pos, "member %s.%s redeclared", d.typ, desc.Name)
	}
	typ, err := l.lookup(d.src, desc.Type, pos)
	if err != nil {
		return err
	}
	m := &reflection.Member{
		Name:      desc.Name,
		Type:      typ,
		Nullable:  desc.Nullable,
		Mandatory: desc.Mandatory,
		Storage: reflection.StorageInfo{
			Column:    desc.Column,
			MaxLength: desc.MaxLength,
			Transient: desc.Transient,
		},
	}
	if desc.Opposite != "" || desc.ForeignKey || desc.Sort != "" {
		m.Relation = &reflection.RelationInfo{
			Opposite:       desc.Opposite,
			ForeignKey:     desc.ForeignKey,
			SortExpression: desc.Sort,
		}
	}
	d.typ.AddMember(m)
	return nil
}

// lookup resolves a type reference, preferring the document package.
func (l *loader) lookup(src *source, name string, pos Position) (*reflection.Type, error) {
	if name == "" {
		return nil, errorf(pos, "type reference cannot be empty")
	}
	prefix := ""
	if elem, ok := strings.CutPrefix(name, reflection.CollectionPrefix); ok {
		prefix, name = reflection.CollectionPrefix, elem
	}
	if q := src.qualify(name); q != name {
		if t := l.model.Lookup(prefix + q); t != nil {
			return t, nil
		}
	}
	if t := l.model.Lookup(prefix + name); t != nil {
		return t, nil
	}
	return nil, &Error{Pos: pos, Err: fmt.Errorf("%w %q", ErrUnknownType, prefix+name)}
}

func (s *source) qualify(name string) string {
	if s.doc.Package == "" || strings.Contains(name, ".") {
		return name
	}
	return s.doc.Package + "." + name
}

func (s *source) pos(p Position) Position {
	p.File = s.file
	return p
}

func parseKind(s string) (reflection.Kind, error) {
	switch strings.ToLower(s) {
	case "", "domain":
		return reflection.KindDomainObject, nil
	case "mixin":
		return reflection.KindMixin, nil
	case "interface":
		return reflection.KindInterface, nil
	case "value":
		return reflection.KindValue, nil
	default:
		return 0, fmt.Errorf("unknown kind %q, must be one of domain, mixin, interface or value", s)
	}
}
