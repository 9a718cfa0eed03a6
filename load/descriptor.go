package load

import (
	"gopkg.in/yaml.v3"
)

// Document is the root of a descriptor file.
type Document struct {
	// Package qualifies the unqualified type names of the document.
	Package string           `yaml:"package"`
	Types   []TypeDescriptor `yaml:"types"`
}

// TypeDescriptor declares a type.
type TypeDescriptor struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	Base         string `yaml:"base"`
	Abstract     bool   `yaml:"abstract"`
	ClassID      string `yaml:"classID"`
	Table        string `yaml:"table"`
	StorageGroup string `yaml:"storageGroup"`
	// Generic names the generic type definition the type instantiates.
	Generic    string   `yaml:"generic"`
	Mixins     []string `yaml:"mixins"`
	Interfaces []string `yaml:"interfaces"`
	// Implements maps interface members ("Interface.Member") to the member
	// implementing them when the names differ.
	Implements map[string]string  `yaml:"implements"`
	Members    []MemberDescriptor `yaml:"members"`

	Pos Position `yaml:"-"`
}

// UnmarshalYAML records the position of the type in the document.
func (d *TypeDescriptor) UnmarshalYAML(node *yaml.Node) error {
	type plain TypeDescriptor
	if err := node.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Pos = Position{Line: node.Line, Column: node.Column}
	return nil
}

// MemberDescriptor declares a member of a type.
type MemberDescriptor struct {
	Name string `yaml:"name"`
	// Type is a type name, "[]T" for collections of T.
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	Mandatory  bool   `yaml:"mandatory"`
	MaxLength  int    `yaml:"maxLength"`
	Column     string `yaml:"column"`
	Transient  bool   `yaml:"transient"`
	Opposite   string `yaml:"opposite"`
	ForeignKey bool   `yaml:"foreignKey"`
	Sort       string `yaml:"sort"`

	Pos Position `yaml:"-"`
}

// UnmarshalYAML records the position of the member in the document.
func (d *MemberDescriptor) UnmarshalYAML(node *yaml.Node) error {
	type plain MemberDescriptor
	if err := node.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Pos = Position{Line: node.Line, Column: node.Column}
	return nil
}
