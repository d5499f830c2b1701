// Package errors provides custom error types for the propsync system.
// These errors enable programmatic error checking across the fetch, map,
// resolve and write stages of a reconciliation run.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Common sentinel errors for the propsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates that the external record source could not be reached
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates that the external source rejected a call for rate limiting
	ErrRateLimited = errors.New("rate limited")

	// ErrMappingSkipped indicates that a record was dropped by the field mapper
	ErrMappingSkipped = errors.New("mapping skipped")

	// ErrMissingRequiredKey indicates a record has no resolvable business key
	ErrMissingRequiredKey = errors.New("missing required key")

	// ErrWriteFailed indicates a single destination write failed
	ErrWriteFailed = errors.New("write failed")

	// ErrSnapshotReadFailed indicates the destination snapshot could not be read
	ErrSnapshotReadFailed = errors.New("snapshot read failed")

	// ErrLocked indicates that another run holds the reconciliation lock
	ErrLocked = errors.New("locked")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents an error response from the external record source.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	RetryAfter time.Duration // parsed Retry-After header, zero when absent
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError,
		e.StatusCode == http.StatusUnauthorized,
		e.StatusCode == http.StatusForbidden:
		return target == ErrSourceUnavailable
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// SourceError represents a failure fetching a partition from the external source.
type SourceError struct {
	Partition string
	Operation string
	Err       error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("source error for partition %s during %s: %v", e.Partition, e.Operation, e.Err)
	}
	return fmt.Sprintf("source error for partition %s: %v", e.Partition, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewSourceError creates a new SourceError
func NewSourceError(partition, operation string, err error) *SourceError {
	return &SourceError{Partition: partition, Operation: operation, Err: err}
}

// MappingError represents a record the field mapper could not convert.
type MappingError struct {
	RecordID string
	Reason   string
	// HasIdentifiers is false when the record carried no identifier-bearing
	// field at all, which is what makes the skip count against a run.
	HasIdentifiers bool
	Err            error
}

// Error implements the error interface
func (e *MappingError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("mapping skipped for record %s: %s", e.RecordID, e.Reason)
	}
	return fmt.Sprintf("mapping skipped: %s", e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *MappingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MappingError) Is(target error) bool {
	return target == ErrMappingSkipped
}

// NewMissingKeyError creates a MappingError for a record without a business key.
func NewMissingKeyError(recordID string, hasIdentifiers bool) *MappingError {
	return &MappingError{
		RecordID:       recordID,
		Reason:         "no resolvable business key",
		HasIdentifiers: hasIdentifiers,
		Err:            ErrMissingRequiredKey,
	}
}

// WriteError represents a failed insert, update or re-tag against the destination store.
type WriteError struct {
	Operation string // "create", "update", "orphan", "phase"
	Key       string
	Err       error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("failed to %s property %s: %v", e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("failed to %s properties: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// NewWriteError creates a new WriteError
func NewWriteError(operation, key string, err error) *WriteError {
	return &WriteError{Operation: operation, Key: key, Err: err}
}

// SnapshotError represents a failure reading the destination snapshot.
type SnapshotError struct {
	Err error
}

// Error implements the error interface
func (e *SnapshotError) Error() string {
	return fmt.Sprintf("failed to read destination snapshot: %v", e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SnapshotError) Is(target error) bool {
	return target == ErrSnapshotReadFailed
}

// RetryError is returned when a retried operation exhausts its attempts.
type RetryError struct {
	Operation string
	Attempts  int
	Err       error
}

// Error implements the error interface
func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *RetryError) Unwrap() error {
	return e.Err
}

// LockError indicates that the named run lock is held by someone else.
type LockError struct {
	Name   string
	Holder string
	Until  time.Time
}

// Error implements the error interface
func (e *LockError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("lock %s held by %s until %s", e.Name, e.Holder, e.Until.Format(time.RFC3339))
	}
	return fmt.Sprintf("lock %s is held", e.Name)
}

// Is implements errors.Is support
func (e *LockError) Is(target error) bool {
	return target == ErrLocked
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "open", "fetch", "query"
	Resource  string // "store", "source", "request"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsSourceUnavailable checks if an error indicates the external source is unreachable
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsMappingSkipped checks if an error is a mapping skip
func IsMappingSkipped(err error) bool {
	return errors.Is(err, ErrMappingSkipped)
}

// IsWriteFailed checks if an error is a destination write failure
func IsWriteFailed(err error) bool {
	return errors.Is(err, ErrWriteFailed)
}

// IsLocked checks if an error reports a held run lock
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(source string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WrapSource wraps an error as a SourceError for the given partition
func WrapSource(partition, operation string, err error) error {
	if err == nil {
		return nil
	}
	return NewSourceError(partition, operation, err)
}

// WrapWrite wraps an error as a WriteError
func WrapWrite(operation, key string, err error) error {
	if err == nil {
		return nil
	}
	return NewWriteError(operation, key, err)
}
