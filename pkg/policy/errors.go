package policy

import (
	"errors"
	"fmt"
)

// ErrNoRulesFile is returned by Watch when no rule-set file is configured.
var ErrNoRulesFile = errors.New("no rules file configured")

// LoadError represents a failure to read a rule-set file.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rules file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rules file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError represents invalid YAML in a rule-set file.
type ParseError struct {
	FilePath string
	Cause    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// BuildError represents a rule set that parsed but could not be compiled
// into a filter. Cause is usually a *filter.RuleError.
type BuildError struct {
	FilePath string
	Cause    error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.FilePath == "" {
		return fmt.Sprintf("invalid rule set: %v", e.Cause)
	}
	return fmt.Sprintf("invalid rule set in %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *BuildError) Unwrap() error {
	return e.Cause
}
