// Package schema reads row schemas from YAML.
//
// A schema describes record types column by column. The same description serves two
// purposes: as a binding.Config overlay for a Go struct, keyed by field, and as the
// column list of a dynamic mapper, driven by type tags.
//
//	version: "1"
//	types:
//	  - name: Item
//	    default: "n/a"
//	    ignore: [Scratch]
//	    columns:
//	      - field: ID
//	        column: id
//	        type: int
//	      - field: Tags
//	        column: tags
//	        type: "[]string"
//	      - field: Created
//	        column: created
//	        type: date
//	        format: "02.01.2006"
package schema

import (
	"errors"
	"fmt"

	"rowmapper/binding"
	"rowmapper/internal/match"
	"rowmapper/mapper"
)

var (
	ErrUnknownType   = errors.New("unknown schema type")
	ErrMissingColumn = errors.New("column has neither field nor column name")
	ErrUntyped       = errors.New("column has no type tag")
)

// File is the root of a schema file.
type File struct {
	// Version of the schema format.
	Version string `yaml:"version,omitempty"`

	Types []Type `yaml:"types"`
}

// Type describes the columns of one record type.
type Type struct {
	Name string `yaml:"name"`

	// Default is the per-type default cell text.
	Default *string `yaml:"default,omitempty"`

	// Ignore lists Go fields that are not mapped. A single name may be given as a
	// scalar.
	Ignore StringOrArray `yaml:"ignore,omitempty"`

	Columns []Column `yaml:"columns"`
}

// Column describes one column. Field defaults to Column and Column to Field.
type Column struct {
	Field  string `yaml:"field,omitempty"`
	Column string `yaml:"column,omitempty"`
	// Type is a type tag; only dynamic mappers need it.
	Type     string  `yaml:"type,omitempty"`
	Default  *string `yaml:"default,omitempty"`
	Format   string  `yaml:"format,omitempty"`
	Handler  string  `yaml:"handler,omitempty"`
	Expr     string  `yaml:"expr,omitempty"`
	Get      string  `yaml:"get,omitempty"`
	Set      string  `yaml:"set,omitempty"`
	ReadOnly bool    `yaml:"readonly,omitempty"`
	Ignore   bool    `yaml:"ignore,omitempty"`
}

// Lookup returns the type called name.
func (f *File) Lookup(name string) (*Type, error) {
	names := make([]string, len(f.Types))

	for i := range f.Types {
		if f.Types[i].Name == name {
			return &f.Types[i], nil
		}

		names[i] = f.Types[i].Name
	}

	err := fmt.Errorf("%w %q", ErrUnknownType, name)
	if hint, ok := match.Closest(name, names); ok {
		err = fmt.Errorf("%w (did you mean %s?)", err, hint)
	}

	return nil, err
}

// Config converts the type into the binding overlay of a Go struct.
func (t *Type) Config() binding.Config {
	cfg := binding.Config{
		TypeDefault: t.Default,
		Fields:      make(map[string]binding.FieldConfig, len(t.Columns)+len(t.Ignore)),
	}

	for _, c := range t.Columns {
		cfg.Fields[c.Field] = binding.FieldConfig{
			Column:     c.Column,
			Default:    c.Default,
			Format:     c.Format,
			Ignore:     c.Ignore,
			ReadOnly:   c.ReadOnly,
			Getter:     c.Get,
			Setter:     c.Set,
			Handler:    c.Handler,
			Expression: c.Expr,
		}
	}

	for _, name := range t.Ignore {
		fc := cfg.Fields[name]
		fc.Ignore = true
		cfg.Fields[name] = fc
	}

	return cfg
}

// Dynamic converts the type into the columns of a dynamic mapper. Ignored columns are
// left out and every other column needs a type tag. The per-type default applies to
// columns without their own.
func (t *Type) Dynamic() ([]mapper.Column, error) {
	var (
		cols []mapper.Column
		errs []error
	)

	for _, c := range t.Columns {
		if c.Ignore || t.Ignore.Contains(c.Field) {
			continue
		}

		if c.Type == "" {
			errs = append(errs, fmt.Errorf("%w: %s.%s", ErrUntyped, t.Name, c.Column))
			continue
		}

		def := c.Default
		if def == nil {
			def = t.Default
		}

		cols = append(cols, mapper.Column{
			Name:    c.Column,
			Type:    c.Type,
			Format:  c.Format,
			Default: def,
			Handler: c.Handler,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return cols, nil
}
