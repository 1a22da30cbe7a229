package codec

import (
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/text/language"

	"rowmapper/locale"
)

// Default layouts per temporal kind. A field-level pattern replaces them.
const (
	TimeLayout      = time.RFC3339Nano
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04:05.999999999"
	DateTimeLayout  = "2006-01-02T15:04:05.999999999"
)

// PatternBCP47 switches the Locale codec to BCP 47 tags ("en-US").
const PatternBCP47 = "bcp47"

var Time = Of(
	func(t time.Time, ctx Context) (string, error) { return t.Format(ctx.Layout(TimeLayout)), nil },
	func(s string, ctx Context) (time.Time, error) { return time.Parse(ctx.Layout(TimeLayout), s) },
)

// Duration uses Go duration text ("1h30m"); patterns are ignored.
var Duration = Of(
	func(d time.Duration, _ Context) (string, error) { return d.String(), nil },
	func(s string, _ Context) (time.Duration, error) { return time.ParseDuration(s) },
)

var Date = Of(
	func(d civil.Date, ctx Context) (string, error) {
		return d.In(time.UTC).Format(ctx.Layout(DateLayout)), nil
	},
	func(s string, ctx Context) (civil.Date, error) {
		t, err := time.Parse(ctx.Layout(DateLayout), s)
		if err != nil {
			return civil.Date{}, err
		}

		return civil.DateOf(t), nil
	},
)

var TimeOfDay = Of(
	func(c civil.Time, ctx Context) (string, error) {
		t := time.Date(0, time.January, 1, c.Hour, c.Minute, c.Second, c.Nanosecond, time.UTC)
		return t.Format(ctx.Layout(TimeOfDayLayout)), nil
	},
	func(s string, ctx Context) (civil.Time, error) {
		t, err := time.Parse(ctx.Layout(TimeOfDayLayout), s)
		if err != nil {
			return civil.Time{}, err
		}

		return civil.TimeOf(t), nil
	},
)

var DateTime = Of(
	func(dt civil.DateTime, ctx Context) (string, error) {
		return dt.In(time.UTC).Format(ctx.Layout(DateTimeLayout)), nil
	},
	func(s string, ctx Context) (civil.DateTime, error) {
		t, err := time.Parse(ctx.Layout(DateTimeLayout), s)
		if err != nil {
			return civil.DateTime{}, err
		}

		return civil.DateTimeOf(t), nil
	},
)

// Locale writes language_COUNTRY_variant, or a BCP 47 tag with PatternBCP47.
var Locale = Of(
	func(l locale.Locale, ctx Context) (string, error) {
		if ctx.Pattern != PatternBCP47 || l.IsRoot() {
			return l.String(), nil
		}

		tag, err := l.Tag()
		if err != nil {
			return "", err
		}

		return tag.String(), nil
	},
	func(s string, ctx Context) (locale.Locale, error) {
		if ctx.Pattern != PatternBCP47 {
			l, err := locale.Parse(s)
			if err != nil {
				return locale.Root, &FormatError{Source: s, Msg: err.Error()}
			}

			return l, nil
		}

		tag, err := language.Parse(s)
		if err != nil {
			return locale.Root, err
		}

		return locale.FromTag(tag), nil
	},
)
