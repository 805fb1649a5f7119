package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/domfuzz/internal/engine"
)

// Validation error codes (E200-E299)
const (
	ErrGrammarMissing = "E201" // grammar path is required
	ErrInvalidMode    = "E202" // mode is not raw, definable or startable
	ErrInvalidCount   = "E203" // count must be positive
	ErrInvalidJobs    = "E204" // jobs must be positive
	ErrInvalidLimit   = "E205" // a size limit is out of range
)

// ValidationError is a configuration value that cannot be used.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Grammar) == "" {
		errs = append(errs, ValidationError{
			Field:   "grammar",
			Message: "grammar path is required",
			Code:    ErrGrammarMissing,
		})
	}
	if _, err := engine.ParseMode(c.Mode); err != nil {
		errs = append(errs, ValidationError{
			Field:   "mode",
			Message: err.Error(),
			Code:    ErrInvalidMode,
		})
	}
	if c.Count < 1 {
		errs = append(errs, ValidationError{
			Field:   "count",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Count),
			Code:    ErrInvalidCount,
		})
	}
	if c.Jobs < 1 {
		errs = append(errs, ValidationError{
			Field:   "jobs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Jobs),
			Code:    ErrInvalidJobs,
		})
	}

	limits := []struct {
		field string
		value int
		min   int
	}{
		{"max_repeat", c.MaxRepeat, 1},
		{"max_depth", c.MaxDepth, 1},
		{"max_nodes", c.MaxNodes, 0},
	}
	for _, l := range limits {
		if l.value < l.min {
			errs = append(errs, ValidationError{
				Field:   l.field,
				Message: fmt.Sprintf("must be at least %d, got %d", l.min, l.value),
				Code:    ErrInvalidLimit,
			})
		}
	}

	return errs
}

// Err returns the validation problems joined into one error, or nil.
func (c Config) Err() error {
	verrs := c.Validate()
	if len(verrs) == 0 {
		return nil
	}
	errs := make([]error, len(verrs))
	for i, e := range verrs {
		errs[i] = e
	}
	return errors.Join(errs...)
}
