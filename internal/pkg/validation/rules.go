package validation

import (
	"regexp"
	"strings"
)

// Catalog scope limits
var (
	// Term ids look like 2021-SPRING or 202103; they end up in URL paths, so no slashes
	TermIDPattern   = `^[A-Za-z0-9][A-Za-z0-9 _.:\-]*$`
	TermIDMaxLength = 64

	UniversityNameMaxLength = 255
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	TermID *regexp.Regexp
}{
	TermID: regexp.MustCompile(TermIDPattern),
}

// String validation
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation of the trimmed value
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}
	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}
	return true
}

// ValidUniversityName reports whether name can key a university
func ValidUniversityName(name string) bool {
	return NewStringValidation(name).WithMaxLength(UniversityNameMaxLength).Validate()
}

// ValidTermID reports whether termID can scope courses and classes
func ValidTermID(termID string) bool {
	return NewStringValidation(termID).
		WithMaxLength(TermIDMaxLength).
		WithPattern(CompiledPatterns.TermID).
		Validate()
}
