package schema

import (
	"errors"
	"fmt"

	"rowmapper/internal/diagnostic"
	"rowmapper/primitive"
)

// Validate checks the structure of a schema file. It does not know the Go types the
// schema may be applied to; those are checked when a mapper is built.
func Validate(f *File) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("schema-is-nil", fmt.Errorf("%w: schema is nil", ErrUnknownType), "", "")
		return res
	}

	if f.Version != "1" {
		res.AddWarning("unknown-version", fmt.Sprintf("schema version %q is not known, reading as 1", f.Version), "", "")
	}

	seenTypes := map[string]struct{}{}

	for i := range f.Types {
		t := &f.Types[i]

		if _, ok := seenTypes[t.Name]; ok {
			res.AddError("duplicate-type", fmt.Errorf("duplicate type %q", t.Name), t.Name, "")
			continue
		}

		seenTypes[t.Name] = struct{}{}

		res.Merge(validateType(t))
	}

	return res
}

func validateType(t *Type) diagnostic.Diagnostics {
	var res diagnostic.Diagnostics

	if t.Name == "" {
		res.AddError("missing-name", errors.New("type without a name"), "", "")
	}

	if len(t.Columns) == 0 {
		res.AddWarning("no-columns", "type declares no columns", t.Name, "")
	}

	fields := map[string]struct{}{}
	columns := map[string]struct{}{}

	for _, c := range t.Columns {
		if c.Field == "" && c.Column == "" {
			res.AddError("missing-column", ErrMissingColumn, t.Name, "")
			continue
		}

		if _, ok := fields[c.Field]; ok {
			res.AddError("duplicate-field", fmt.Errorf("field %q declared twice", c.Field), t.Name, c.Field)
		}

		fields[c.Field] = struct{}{}

		if _, ok := columns[c.Column]; ok && !c.Ignore {
			res.AddError("duplicate-column", fmt.Errorf("column %q declared twice", c.Column), t.Name, c.Field)
		}

		if !c.Ignore {
			columns[c.Column] = struct{}{}
		}

		if c.Type != "" {
			if _, err := primitive.ParseTypeTag(c.Type); err != nil {
				res.AddError("bad-type", err, t.Name, c.Field)
			}
		}

		if c.Expr != "" && c.Default != nil {
			res.AddWarning("default-ignored", "expression columns ignore their default", t.Name, c.Field)
		}
	}

	return res
}
