package sequence

import (
	"strings"

	"rowmapper/codec"
)

const (
	openBracket  = '['
	closeBracket = ']'
	comma        = ','
	escapeSym    = '\\'
	separator    = ", "
	special      = "[],\\"
)

// Split tokenizes the top level of a sequence cell. Nested sequences are captured whole
// as one token, escaped characters are kept as they are, and an empty token marks a null
// slot. A trailing empty element ("[1, ]") is preserved; "[]" yields no tokens.
// The space after a separating comma is optional on input, so "[1,2]" reads like
// "[1, 2]"; Encode always writes ", ".
func Split(s string) ([]string, error) {
	if s == "" || s[0] != openBracket {
		return nil, &codec.FormatError{Source: s, Pos: 0, Msg: "sequence must start with '['"}
	}

	var tokens []string

	depth, start := 0, 1

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escapeSym:
			if i+1 == len(s) {
				return nil, &codec.FormatError{Source: s, Pos: i, Msg: "dangling escape"}
			}

			i++
		case openBracket:
			depth++
		case closeBracket:
			depth--
			if depth > 0 {
				continue
			}

			if i != len(s)-1 {
				return nil, &codec.FormatError{Source: s, Pos: i + 1, Msg: "unexpected text after closing ']'"}
			}

			if len(tokens) == 0 && start == i {
				return []string{}, nil
			}

			return append(tokens, s[start:i]), nil
		case comma:
			if depth != 1 {
				continue
			}

			tokens = append(tokens, s[start:i])

			start = i + 1
			if start < len(s) && s[start] == ' ' {
				start++
				i++
			}
		}
	}

	return nil, &codec.FormatError{Source: s, Pos: len(s), Msg: "unclosed '['"}
}

func escape(s string) string {
	if !strings.ContainsAny(s, special) {
		return s
	}

	var sb strings.Builder

	sb.Grow(len(s) + 4)

	for _, r := range s {
		if strings.ContainsRune(special, r) {
			sb.WriteByte(escapeSym)
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

func unescape(s string) string {
	if strings.IndexByte(s, escapeSym) < 0 {
		return s
	}

	var sb strings.Builder

	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == escapeSym && i+1 < len(s) {
			i++
		}

		sb.WriteByte(s[i])
	}

	return sb.String()
}
