package schema

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// StringOrArray is a list of strings that may be written as a single scalar.
type StringOrArray []string

// UnmarshalYAML accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		*s = StringOrArray{}
		if str != "" {
			*s = StringOrArray{str}
		}

		return nil
	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil
	default:
		return fmt.Errorf("line %d: expected string or array, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML writes a single element as a scalar.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// Contains returns true if the array contains str.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}
