// Package errors provides standardized error types and helpers for the Bookbinder codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a node or resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrSkipped indicates an edge was skipped during resolution
	ErrSkipped = errors.New("skipped")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// ResolutionKind classifies why an edge was left out of a resolved graph.
type ResolutionKind string

// Resolution kinds. None of these abort a resolution.
const (
	SelfReference       ResolutionKind = "self_reference"
	CircularReference   ResolutionKind = "circular_reference"
	MissingNode         ResolutionKind = "missing_node"
	MalformedCoordinate ResolutionKind = "malformed_coordinate"
)

// ResolutionError describes an edge dropped while resolving a content graph.
// The resolver logs these; it never returns them to its caller.
type ResolutionError struct {
	Kind   ResolutionKind // Why the edge was dropped
	NodeID string         // Node that declared the edge
	Ref    string         // Raw edge value (id or coordinate)
}

func (e *ResolutionError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: %s (from %s)", e.Kind, e.Ref, e.NodeID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Ref)
}

func (e *ResolutionError) Unwrap() error {
	if e.Kind == MissingNode {
		return ErrNotFound
	}
	return ErrSkipped
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "node", "bundle", "config")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "XML", "YAML")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewResolution creates a ResolutionError
func NewResolution(kind ResolutionKind, nodeID, ref string) *ResolutionError {
	return &ResolutionError{
		Kind:   kind,
		NodeID: nodeID,
		Ref:    ref,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError wrapping err.
func NewParse(format, path string, err error) *ParseError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: msg,
		Err:     err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target any) bool {
	return errors.As(err, target)
}
