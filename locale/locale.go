// Package locale provides a small language/country/variant value type with the
// underscore text form used in spreadsheet cells ("en", "en_US", "ja_JP_JP").
//
// Parsing prefers the canonical form (lower-case language, upper-case country) when
// every segment satisfies the strict language-tag subtag grammar, and keeps the
// segments verbatim otherwise. Interop with BCP 47 goes through golang.org/x/text.
package locale

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"rowmapper/internal/common"
)

const separator = "_"

var (
	ErrMalformed = errors.New("malformed locale")
	ErrNoTag     = errors.New("locale has no BCP 47 form")
)

// Locale identifies a language with an optional country and variant.
// The zero value is the root locale.
type Locale struct {
	Language string
	Country  string
	Variant  string
}

// Root is the empty locale, written as "".
var Root = Locale{}

// Make returns the canonical locale for the segments when they are well-formed
// subtags and an ad hoc locale holding them verbatim otherwise.
func Make(lang, country, variant string) Locale {
	if !WellFormed(lang, country, variant) {
		return Locale{Language: lang, Country: country, Variant: variant}
	}

	return Locale{
		Language: strings.ToLower(lang),
		Country:  strings.ToUpper(country),
		Variant:  variant,
	}
}

// Parse reads the underscore form. It accepts one to three segments; anything after
// the second separator belongs to the variant.
func Parse(s string) (Locale, error) {
	if s == "" {
		return Root, nil
	}

	if i := strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }); i >= 0 {
		return Root, fmt.Errorf("%w: %q: unexpected character at %d", ErrMalformed, s, i)
	}

	lang, country, variant := split3(s)

	return Make(lang, country, variant), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Locale {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return l
}

// String returns the underscore form with trailing empty segments omitted.
func (l Locale) String() string {
	segments := []string{l.Language, l.Country, l.Variant}
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}

	return strings.Join(segments, separator)
}

// IsRoot reports whether l is the root locale.
func (l Locale) IsRoot() bool {
	return l == Root
}

// Canonical reports whether l is in the canonical form Make produces for
// well-formed segments.
func (l Locale) Canonical() bool {
	return WellFormed(l.Language, l.Country, l.Variant) && Make(l.Language, l.Country, l.Variant) == l
}

// Tag converts the locale into a BCP 47 tag. The root locale maps to language.Und.
func (l Locale) Tag() (language.Tag, error) {
	if l.IsRoot() {
		return language.Und, nil
	}

	var parts []any

	base, err := language.ParseBase(l.Language)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %s: %w", ErrNoTag, l, err)
	}

	parts = append(parts, base)

	if l.Country != "" {
		region, err := language.ParseRegion(l.Country)
		if err != nil {
			return language.Und, fmt.Errorf("%w: %s: %w", ErrNoTag, l, err)
		}

		parts = append(parts, region)
	}

	if l.Variant != "" {
		variant, err := language.ParseVariant(l.Variant)
		if err != nil {
			return language.Und, fmt.Errorf("%w: %s: %w", ErrNoTag, l, err)
		}

		parts = append(parts, variant)
	}

	tag, err := language.Compose(parts...)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %s: %w", ErrNoTag, l, err)
	}

	return tag, nil
}

// FromTag converts a BCP 47 tag into a locale. Only explicitly present subtags are
// kept; inferred regions are dropped.
func FromTag(tag language.Tag) Locale {
	if tag == language.Und {
		return Root
	}

	base, _ := tag.Base()
	l := Locale{Language: base.String()}

	if region, conf := tag.Region(); conf == language.Exact {
		l.Country = region.String()
	}

	if variants := tag.Variants(); len(variants) > 0 {
		l.Variant = variants[0].String()
	}

	return Make(l.Language, l.Country, l.Variant)
}

// WellFormed reports whether the segments satisfy strict subtag grammar:
// language of 2-8 letters, region of 2 letters or 3 digits, variant of 5-8
// alphanumerics or 4 characters starting with a digit. Empty country and variant
// are allowed.
func WellFormed(lang, country, variant string) bool {
	if !common.InRange(2, len(lang), 8) || !all(lang, isAlpha) {
		return false
	}

	if country != "" && !(len(country) == 2 && all(country, isAlpha)) && !(len(country) == 3 && all(country, isDigit)) {
		return false
	}

	if variant == "" {
		return true
	}

	if common.InRange(5, len(variant), 8) && all(variant, isAlnum) {
		return true
	}

	return len(variant) == 4 && isDigit(variant[0]) && all(variant[1:], isAlnum)
}

func split3(s string) (first, second, rest string) {
	parts := strings.SplitN(s, separator, 3)
	first, second = common.Unpack2(parts)
	if len(parts) == 3 {
		rest = parts[2]
	}

	return first, second, rest
}

func all(s string, pred func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !pred(s[i]) {
			return false
		}
	}

	return true
}

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
