package diagnostic

import (
	"fmt"
	"strings"

	"rowmapper/internal/common"
)

// Diagnostics holds every issue found for one record type.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Diagnostic represents a single issue.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a short stable identifier, for example "missing-handler".
	Code string
	// Message is the human-readable description.
	Message string
	// Type is the record type the issue belongs to.
	Type string
	// Field is the field or parameter the issue belongs to (if any).
	Field string
	// Suggestions are likely intended names.
	Suggestions []string
	// Err is the typed error behind an error diagnostic (if any).
	Err error
}

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic whose message is err's text.
func (d *Diagnostics) AddError(code string, err error, typ, field string, suggestions ...string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:    SeverityError,
		Code:        code,
		Message:     err.Error(),
		Type:        typ,
		Field:       field,
		Suggestions: suggestions,
		Err:         err,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, typ, field string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Type:     typ,
		Field:    field,
	})
}

// Merge appends the diagnostics of other.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	return &Error{Diagnostics: d.Errors}
}

// Error is the combined error of one or more error diagnostics.
type Error struct {
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.String()
	}

	return strings.Join(parts, "; ")
}

// Unwrap exposes the typed errors of the diagnostics to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	var errs []error

	for _, d := range e.Diagnostics {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}

	return errs
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Type != "" {
		prefix = append(prefix, "["+d.Type+"]")
	}

	if d.Field != "" {
		prefix = append(prefix, d.Field)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(d.Suggestions, ", "))
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
