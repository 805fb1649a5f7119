package engine

import (
	"errors"
	"fmt"
)

// RegistryError represents a defect in a rule table, detected when the
// registry is built or verified against a grammar.
//
// Registry errors are configuration defects: they are reported before any
// document is generated and never at generation time.
type RegistryError struct {
	// Code identifies the error category.
	Code RegistryErrorCode

	// Message is a human-readable description.
	Message string

	// Rule names the offending rule, if any.
	Rule string

	// Fact names the fact involved, for fact-ordering errors.
	Fact Fact
}

// RegistryErrorCode categorizes registry errors.
type RegistryErrorCode string

const (
	// ErrCodeUncoveredKind indicates a node kind with no registered rules.
	ErrCodeUncoveredKind RegistryErrorCode = "UNCOVERED_KIND"

	// ErrCodeBadPattern indicates a path pattern that does not compile.
	ErrCodeBadPattern RegistryErrorCode = "BAD_PATTERN"

	// ErrCodeUnwrittenFact indicates a fact read by a rule that no rule writes.
	ErrCodeUnwrittenFact RegistryErrorCode = "UNWRITTEN_FACT"

	// ErrCodeReadBeforeWrite indicates a fact read at a grammar position
	// that no writing rule precedes in document order.
	ErrCodeReadBeforeWrite RegistryErrorCode = "READ_BEFORE_WRITE"

	// ErrCodeMissingHandler indicates a rule without a handler.
	ErrCodeMissingHandler RegistryErrorCode = "MISSING_HANDLER"
)

// Error implements the error interface.
func (e *RegistryError) Error() string {
	switch {
	case e.Rule != "" && e.Fact != "":
		return fmt.Sprintf("%s: %s (rule=%s, fact=%s)", e.Code, e.Message, e.Rule, e.Fact)
	case e.Rule != "":
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err, or any error joined or wrapped in it, is a
// RegistryError with the given code.
func HasCode(err error, code RegistryErrorCode) bool {
	if err == nil {
		return false
	}
	var re *RegistryError
	if errors.As(err, &re) && re.Code == code {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if HasCode(e, code) {
				return true
			}
		}
	}
	return false
}

// IsRegistryError returns true if err contains a RegistryError.
func IsRegistryError(err error) bool {
	var re *RegistryError
	return errors.As(err, &re)
}
