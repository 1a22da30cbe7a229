package binding

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

// newEnv declares one dynamically typed variable per mapped field name, plus the string
// extension functions. There is no variable for the record itself.
func newEnv(names []string) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(names)+1)
	opts = append(opts, ext.Strings())

	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	return cel.NewEnv(opts...)
}

func compile(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	return prg, nil
}

func isNull(v ref.Val) bool {
	return v.Type() == types.NullType
}

// nativeOf unwraps an expression result into plain Go values; lists become []any.
func nativeOf(v ref.Val) (any, error) {
	if isNull(v) {
		return nil, nil
	}

	if types.IsError(v) {
		return nil, fmt.Errorf("expression result: %v", v)
	}

	l, ok := v.(traits.Lister)
	if !ok {
		return v.Value(), nil
	}

	var list []any

	for it := l.Iterator(); it.HasNext() == types.True; {
		item, err := nativeOf(it.Next())
		if err != nil {
			return nil, err
		}

		list = append(list, item)
	}

	if list == nil {
		list = []any{}
	}

	return list, nil
}
