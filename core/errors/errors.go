// Package errors provides standardized error types and helpers for the
// textloom engine. The taxonomy distinguishes fatal failures (an unreadable
// document body) from locally recovered ones (a skipped container, a
// reconstruction fallback), which surface as warnings instead of errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrStructuralRead indicates the document body could not be read; import aborts
	ErrStructuralRead = errors.New("structural read failure")
	// ErrTagInvalid indicates malformed inline tags in segment text
	ErrTagInvalid = errors.New("invalid tags")
	// ErrLocked indicates a mutation was attempted on a locked segment
	ErrLocked = errors.New("segment locked")
	// ErrImmutable indicates a write-once field was written twice
	ErrImmutable = errors.New("field is write-once")
	// ErrUnsupported indicates an unsupported operation or dialect
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "segment", "project", "dialect")
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

// StructuralReadError indicates the document body itself is unreadable.
// This is the only failure that aborts a whole import pass.
type StructuralReadError struct {
	Source  string // What was being read (path, dialect name)
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *StructuralReadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("cannot read document body from %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("cannot read document body: %s", e.Message)
}

func (e *StructuralReadError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStructuralRead
}

// TagValidationError indicates malformed inline tags in segment text.
// It blocks promotion to Translated/Approved but never blocks saving a Draft.
type TagValidationError struct {
	Tag     string // Offending tag name, if known
	Offset  int    // Approximate byte offset in the text
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *TagValidationError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("tag <%s> at offset %d: %s", e.Tag, e.Offset, e.Message)
	}
	return fmt.Sprintf("tag error at offset %d: %s", e.Offset, e.Message)
}

func (e *TagValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrTagInvalid
}

// LockedError indicates an edit was attempted on a locked segment.
type LockedError struct {
	SequenceIndex int    // Segment that rejected the edit
	Operation     string // Operation that was attempted
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("segment %d is locked: cannot %s", e.SequenceIndex, e.Operation)
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XLIFF", "JSON", "selector")
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

// UnsupportedError represents an unsupported feature or dialect
type UnsupportedError struct {
	Feature string // Feature or dialect that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewStructuralRead creates a StructuralReadError
func NewStructuralRead(source, message string, err error) *StructuralReadError {
	return &StructuralReadError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// NewTagValidation creates a TagValidationError
func NewTagValidation(tag string, offset int, message string) *TagValidationError {
	return &TagValidationError{
		Tag:     tag,
		Offset:  offset,
		Message: message,
	}
}

// NewLocked creates a LockedError
func NewLocked(sequenceIndex int, operation string) *LockedError {
	return &LockedError{
		SequenceIndex: sequenceIndex,
		Operation:     operation,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
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
func Wrapf(err error, format string, args ...interface{}) error {
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
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
