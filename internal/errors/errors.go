// Package errors provides a lightweight structured error type (DocSiteError)
// for category-based classification and exit code mapping in the CLI.
package errors

import (
	"fmt"
	"strings"
)

// ErrorCategory represents the category of a docsite error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Descriptor inputs resolved against the filesystem
	CategoryContent  ErrorCategory = "content"
	CategoryManifest ErrorCategory = "manifest"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// DocSiteError is a structured error with category, severity, and context
type DocSiteError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocSiteError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocSiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DocSiteError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocSiteError) WithContext(key string, value any) *DocSiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocSiteError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocSiteError {
	return &DocSiteError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocSiteError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocSiteError {
	return &DocSiteError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the first DocSiteError in err's chain.
func As(err error) (*DocSiteError, bool) {
	for err != nil {
		if dse, ok := err.(*DocSiteError); ok {
			return dse, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if dse, ok := As(err); ok {
		return dse.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocSiteError
func GetCategory(err error) ErrorCategory {
	if dse, ok := As(err); ok {
		return dse.Category
	}
	return CategoryInternal
}

// Problems collects every violation found in a single pass so that
// callers can report them together instead of stopping at the first one.
type Problems struct {
	items []string
}

// Addf records a formatted problem.
func (p *Problems) Addf(format string, args ...any) {
	p.items = append(p.items, fmt.Sprintf(format, args...))
}

// Len returns the number of recorded problems.
func (p *Problems) Len() int { return len(p.items) }

// Items returns a copy of the recorded problems in insertion order.
func (p *Problems) Items() []string {
	out := make([]string, len(p.items))
	copy(out, p.items)
	return out
}

// Err returns nil when no problems were recorded, otherwise a DocSiteError of
// the given category listing all of them.
func (p *Problems) Err(category ErrorCategory, message string) error {
	if len(p.items) == 0 {
		return nil
	}
	return New(category, SeverityFatal, message+":\n  - "+strings.Join(p.items, "\n  - ")).
		WithContext("problems", p.Items())
}
