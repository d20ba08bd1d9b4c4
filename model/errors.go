package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/robertmeta/feedgen/xmlw"
)

// ScopeChannel is the ValidationError scope for channel-level fields.
const ScopeChannel = "channel"

// ItemScope returns the ValidationError scope naming the item at position n.
func ItemScope(n int) string {
	return "item " + strconv.Itoa(n)
}

// ValidationError reports caller-supplied data that violates a required-field
// or format-specific invariant.
type ValidationError struct {
	Scope  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Scope, e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

type textField struct {
	name, value string
}

const invalidText = "must be valid UTF-8 without characters XML 1.0 forbids"

// checkText rejects invalid UTF-8 and characters that XML 1.0 cannot
// represent.
func checkText(scope string, fields []textField, categories []string) error {
	for _, f := range fields {
		if !xmlw.ValidText(f.value) {
			return &ValidationError{Scope: scope, Field: f.name, Reason: invalidText}
		}
	}
	for n, c := range categories {
		if c == "" {
			return &ValidationError{Scope: scope, Field: fmt.Sprintf("categories[%d]", n), Reason: "must not be empty"}
		}
		if !xmlw.ValidText(c) {
			return &ValidationError{Scope: scope, Field: fmt.Sprintf("categories[%d]", n), Reason: invalidText}
		}
	}
	return nil
}
