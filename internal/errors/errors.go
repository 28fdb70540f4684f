// Package errors provides a lightweight structured error type (SiteError)
// for category-based classification across the resolver, render pipeline,
// stores, and CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a pagesmith error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Resolution and rendering errors
	CategoryResolve  ErrorCategory = "resolve"
	CategoryTemplate ErrorCategory = "template"
	CategoryAsset    ErrorCategory = "asset"

	// Persistence and output errors
	CategoryStorage    ErrorCategory = "storage"
	CategoryExport     ErrorCategory = "export"
	CategoryPublish    ErrorCategory = "publish"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
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

// SiteError is a structured error with category, severity, and context
type SiteError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteError) WithContext(key string, value any) *SiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the severity of the error
func (e *SiteError) WithSeverity(severity ErrorSeverity) *SiteError {
	e.Severity = severity
	return e
}

// New creates a new SiteError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SiteError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with severity defaulting to SeverityError
func WrapError(err error, category ErrorCategory, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// ValidationError creates a new validation error
func ValidationError(message string) *SiteError {
	return &SiteError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}

// TemplateAssetMissing creates the fatal per-render error for an absent
// body or shell template. Callers are expected to surface a generic
// failure state; the render is not retried.
func TemplateAssetMissing(kind, path string) *SiteError {
	e := New(CategoryAsset, SeverityFatal, "required template asset is missing")
	e.WithContext("kind", kind)
	e.WithContext("asset_path", path)
	return e
}

// IsCategory checks if an error belongs to a specific category anywhere in
// its unwrap chain.
func IsCategory(err error, category ErrorCategory) bool {
	var se *SiteError
	for errors.As(err, &se) {
		if se.Category == category {
			return true
		}
		err = se.Cause
		if err == nil {
			return false
		}
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if the error is not a SiteError.
func GetCategory(err error) ErrorCategory {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Category
	}
	return CategoryInternal
}

// IsAssetMissing reports whether the error chain contains a fatal asset error.
func IsAssetMissing(err error) bool {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Category == CategoryAsset && se.Severity == SeverityFatal
	}
	return false
}
