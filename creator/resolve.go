package creator

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/samber/lo"

	"rowmapper/internal/common"
	"rowmapper/internal/match"
	"rowmapper/options"
)

// Field is a mapped field as seen by the resolver.
type Field struct {
	Name      string
	Type      reflect.Type
	Immutable bool
}

// ResolvedParameter binds one creator parameter to one field.
type ResolvedParameter struct {
	Position int
	Type     reflect.Type
	Field    string
}

// Choice is the creator selected for a record type with its parameter bindings. It is
// immutable and safe for concurrent use.
type Choice struct {
	Target reflect.Type
	// Candidate is nil when the zero value is used.
	Candidate *Candidate
	Params    []ResolvedParameter

	fields []Field
	bound  map[string]bool
}

// String describes the choice for logs.
func (c *Choice) String() string {
	if c.Candidate == nil {
		return "zero value of " + c.Target.String()
	}

	fields := lo.Map(c.Params, func(p ResolvedParameter, _ int) string { return p.Field })

	return fmt.Sprintf("%s.%s(%s)", c.Candidate.PackageAlias, c.Candidate.Name, strings.Join(fields, ", "))
}

// Resolve selects the creator for target among candidates and binds its parameters to
// fields. With no candidates the zero value of target is used and every mutable field
// is assigned afterwards. Resolve is a pure function of its arguments.
func Resolve(target reflect.Type, fields []Field, candidates []Candidate, flags options.FlagEnum) (*Choice, error) {
	for _, c := range candidates {
		if c.Out != target {
			return nil, fmt.Errorf("%w: %s creates %s, not %s", ErrWrongTarget, c, c.Out, target)
		}
	}

	choice := &Choice{Target: target, fields: fields, bound: map[string]bool{}}

	candidate, err := selectCandidate(target, candidates, flags)
	if err != nil {
		return nil, err
	}

	if candidate == nil {
		return choice, nil
	}

	choice.Candidate = candidate

	if choice.Params, err = bindParams(target, fields, candidate); err != nil {
		return nil, err
	}

	for _, p := range choice.Params {
		choice.bound[p.Field] = true
	}

	return choice, nil
}

func selectCandidate(target reflect.Type, candidates []Candidate, flags options.FlagEnum) (*Candidate, error) {
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &candidates[0], nil
	}

	names := func(cs []Candidate) []string {
		return lo.Map(cs, func(c Candidate, _ int) string { return c.String() })
	}

	designated := common.Filter(candidates, func(c Candidate) bool { return c.Designated })

	switch {
	case common.IsSingle(designated):
		return &designated[0], nil
	case common.IsMultiple(designated):
		return nil, &AmbiguityError{Target: target, Reason: "more than one designated creator", Candidates: names(designated)}
	}

	if !flags.Has(options.FlagLenientCreators) {
		return nil, &AmbiguityError{Target: target, Reason: "several creators and none designated", Candidates: names(candidates)}
	}

	best := slices.MinFunc(candidates, func(a, b Candidate) int { return int(a.Visibility) - int(b.Visibility) }).Visibility
	top := common.Filter(candidates, func(c Candidate) bool { return c.Visibility == best })

	if common.IsMultiple(top) {
		reason := fmt.Sprintf("several %s creators and none designated", best)
		return nil, &AmbiguityError{Target: target, Reason: reason, Candidates: names(top)}
	}

	return &top[0], nil
}

// bindParams binds parameters named explicitly first, then the remaining parameters
// of each type to the remaining fields of that type in declaration order, which is only
// allowed when both counts are equal.
func bindParams(target reflect.Type, fields []Field, c *Candidate) ([]ResolvedParameter, error) {
	fieldHist := lo.CountValuesBy(fields, func(f Field) reflect.Type { return f.Type })
	paramHist := lo.CountValues(c.Params)
	byName := lo.KeyBy(fields, func(f Field) string { return f.Name })

	for pos, pt := range c.Params {
		if fieldHist[pt] < paramHist[pt] {
			return nil, &UnresolvedTypeError{Target: target, Position: pos, Type: pt, Fields: fieldHist[pt], Params: paramHist[pt]}
		}
	}

	params := make([]ResolvedParameter, len(c.Params))
	owner := map[string]int{}

	claim := func(pos int, field string) error {
		if prev, taken := owner[field]; taken {
			reason := fmt.Sprintf("parameters %d and %d both bind field %s", prev, pos, field)
			return &AmbiguityError{Target: target, Reason: reason, Candidates: []string{c.String()}}
		}

		owner[field] = pos
		params[pos] = ResolvedParameter{Position: pos, Type: c.Params[pos], Field: field}

		return nil
	}

	for pos, name := range c.ParamNames {
		if name == "" {
			continue
		}

		f, ok := byName[name]
		if !ok {
			err := fmt.Errorf("%w: parameter %d of %s names %q", ErrUnknownField, pos, c, name)
			if hint, ok := match.Closest(name, lo.Map(fields, func(f Field, _ int) string { return f.Name })); ok {
				err = fmt.Errorf("%w (did you mean %s?)", err, hint)
			}

			return nil, err
		}

		if f.Type != c.Params[pos] {
			return nil, fmt.Errorf("%w: parameter %d of %s is %s, field %s is %s",
				ErrParamTypeMismatch, pos, c, c.Params[pos], name, f.Type)
		}

		if err := claim(pos, name); err != nil {
			return nil, err
		}
	}

	for pos, pt := range c.Params {
		if c.ParamNames[pos] != "" {
			continue
		}

		if fieldHist[pt] > paramHist[pt] {
			candidates := lo.FilterMap(fields, func(f Field, _ int) (string, bool) { return f.Name, f.Type == pt })
			reason := fmt.Sprintf("parameter %d of type %s needs an explicit field name, one of %s",
				pos, pt, strings.Join(candidates, ", "))

			return nil, &AmbiguityError{Target: target, Reason: reason, Candidates: []string{c.String()}}
		}

		field, ok := lo.Find(fields, func(f Field) bool {
			_, taken := owner[f.Name]
			return f.Type == pt && !taken
		})
		if !ok {
			reason := fmt.Sprintf("no field of type %s left for parameter %d", pt, pos)
			return nil, &AmbiguityError{Target: target, Reason: reason, Candidates: []string{c.String()}}
		}

		if err := claim(pos, field.Name); err != nil {
			return nil, err
		}
	}

	return params, nil
}

// Build creates a record from decoded field values keyed by field name. Parameters
// missing from values receive their zero value. Every other field present in values is
// then passed to assign, in declaration order, except immutable ones, which keep what
// the creator gave them. assign receives a pointer to the record under construction.
func (c *Choice) Build(values map[string]reflect.Value, assign func(p reflect.Value, field string, v reflect.Value) error) (reflect.Value, error) {
	p := reflect.New(c.Target)

	if c.Candidate != nil {
		args := make([]reflect.Value, len(c.Params))
		for i, rp := range c.Params {
			v, ok := values[rp.Field]
			if !ok || !v.IsValid() {
				v = reflect.Zero(rp.Type)
			}

			args[i] = v
		}

		out := c.Candidate.Fn.Call(args)
		if c.Candidate.HasErr && !out[1].IsNil() {
			return reflect.Value{}, fmt.Errorf("%s: %w", c.Candidate, out[1].Interface().(error))
		}

		rec := out[0]
		if c.Candidate.ReturnsPointer {
			if rec.IsNil() {
				return reflect.Value{}, fmt.Errorf("%w: %s", ErrNilRecord, c.Candidate)
			}

			rec = rec.Elem()
		}

		p.Elem().Set(rec)
	}

	for _, f := range c.fields {
		if c.bound[f.Name] || f.Immutable {
			continue
		}

		v, ok := values[f.Name]
		if !ok || !v.IsValid() {
			continue
		}

		if err := assign(p, f.Name, v); err != nil {
			return reflect.Value{}, err
		}
	}

	return p.Elem(), nil
}
