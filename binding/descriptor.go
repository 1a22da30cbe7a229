package binding

import (
	"reflect"
	"strings"

	"rowmapper/sequence"
)

// Struct tag keys read by Resolve.
const (
	TagRow     = "row"
	TagDefault = "default"
	TagFormat  = "format"
	TagGet     = "get"
	TagSet     = "set"
	TagHandler = "handler"
	TagExpr    = "expr"
)

// FieldDescriptor identifies one mapped field of a record type.
type FieldDescriptor struct {
	// Name is the Go field name; expression variables and creator parameters use it.
	Name string
	// Column is the row column name, the Go field name unless configured.
	Column string
	// Index is the reflect index path, longer than one for promoted fields.
	Index []int
	// Type is the declared field type.
	Type reflect.Type
	// Depth is the nesting rank: 0 for scalars, n for n levels of slices or arrays.
	Depth int
	// Format is the pattern passed to the leaf codec.
	Format string
	// Default is the per-field default cell text; HasDefault distinguishes "" from unset.
	Default    string
	HasDefault bool
	Ignore     bool
	Getter     string
	Setter     string
	Handler    string
	Expression string
	// ReadOnly fields are never assigned after construction.
	ReadOnly bool
	Exported bool
}

// FieldConfig overrides the struct tags of one field. Zero values leave the tag value
// in place.
type FieldConfig struct {
	Column     string
	Default    *string
	Format     string
	Ignore     bool
	ReadOnly   bool
	Getter     string
	Setter     string
	Handler    string
	Expression string
}

// Config is the explicit metadata of one record type. Fields are keyed by Go field name.
type Config struct {
	// TypeDefault applies to every field without its own default.
	TypeDefault *string
	Fields      map[string]FieldConfig
}

// TypeDefaulter lets a record type declare its per-type default.
type TypeDefaulter interface {
	RowDefault() string
}

// describe builds the descriptor of f from its tags. It reports false for untagged
// unexported fields, which are not mapped at all.
func describe(f reflect.StructField) (FieldDescriptor, bool) {
	tag, tagged := f.Tag.Lookup(TagRow)

	if !f.IsExported() && !tagged {
		return FieldDescriptor{}, false
	}

	d := FieldDescriptor{
		Name:       f.Name,
		Column:     f.Name,
		Index:      f.Index,
		Type:       f.Type,
		Depth:      sequence.Rank(f.Type),
		Format:     f.Tag.Get(TagFormat),
		Getter:     f.Tag.Get(TagGet),
		Setter:     f.Tag.Get(TagSet),
		Handler:    f.Tag.Get(TagHandler),
		Expression: f.Tag.Get(TagExpr),
		Exported:   f.IsExported(),
	}

	d.Default, d.HasDefault = f.Tag.Lookup(TagDefault)

	if tagged {
		name, opts, _ := strings.Cut(tag, ",")

		switch name {
		case "-":
			d.Ignore = true
		case "":
		default:
			d.Column = name
		}

		for _, opt := range strings.Split(opts, ",") {
			switch strings.TrimSpace(opt) {
			case "ignore":
				d.Ignore = true
			case "readonly":
				d.ReadOnly = true
			}
		}
	}

	return d, true
}

// apply overlays cfg on d.
func (d *FieldDescriptor) apply(cfg FieldConfig) {
	if cfg.Column != "" {
		d.Column = cfg.Column
	}

	if cfg.Default != nil {
		d.Default, d.HasDefault = *cfg.Default, true
	}

	if cfg.Format != "" {
		d.Format = cfg.Format
	}

	d.Ignore = d.Ignore || cfg.Ignore
	d.ReadOnly = d.ReadOnly || cfg.ReadOnly

	for dst, src := range map[*string]string{
		&d.Getter:     cfg.Getter,
		&d.Setter:     cfg.Setter,
		&d.Handler:    cfg.Handler,
		&d.Expression: cfg.Expression,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// Immutable reports whether the field can only be given a value by a creator parameter.
// Unexported fields become mutable through a setter.
func (d FieldDescriptor) Immutable() bool {
	return d.ReadOnly || (!d.Exported && d.Setter == "")
}
