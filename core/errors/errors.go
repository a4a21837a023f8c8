// Package errors provides standardized error types and helpers for the
// Inkwell editing engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates an optimistic-concurrency conflict
	ErrConflict = errors.New("conflict")
	// ErrGuardBlocked indicates an edit was denied by the outline guard
	ErrGuardBlocked = errors.New("blocked by outline guard")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// Conflict codes carried by ConflictError.
const (
	// CodeStaleBase means the batch's base version does not match the
	// document's current version.
	CodeStaleBase = "STALE_BASE"
	// CodeConflict means one or more ops failed their per-block hash check
	// or referenced a missing block.
	CodeConflict = "CONFLICT"
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "document", "block")
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

// ValidationError represents a malformed edit operation or input field,
// rejected before any state inspection.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// BlockConflict describes one offending op in a refused batch: the block it
// targeted and the expected vs. actual content hash. Actual is empty when the
// block is missing entirely.
type BlockConflict struct {
	BlockID  string `json:"block_id"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Reason   string `json:"reason"`
}

// ConflictError refuses a whole edit batch. Code is CodeStaleBase when the
// batch was built against an outdated document version, or CodeConflict with
// Conflicts enumerating every offending block. A batch refused with this
// error is never partially applied.
type ConflictError struct {
	Code      string          // STALE_BASE or CONFLICT
	Conflicts []BlockConflict // every offending block, not just the first
}

func (e *ConflictError) Error() string {
	if e.Code == CodeStaleBase {
		return "stale base version"
	}
	ids := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		ids[i] = c.BlockID
	}
	return fmt.Sprintf("conflict on blocks: %s", strings.Join(ids, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// GuardBlockedError denies a structurally destructive op that targets a
// required beat. Distinct from ConflictError: it is resolved only by an
// explicit caller override, never by retry.
type GuardBlockedError struct {
	SceneID       string   // scene whose outline was consulted
	Reason        string   // why the op was denied
	AffectedBeats []string // required-beat block ids the op would touch
}

func (e *GuardBlockedError) Error() string {
	return fmt.Sprintf("outline guard: %s (beats: %s)", e.Reason, strings.Join(e.AffectedBeats, ", "))
}

func (e *GuardBlockedError) Unwrap() error {
	return ErrGuardBlocked
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewStaleBase creates a ConflictError for a batch built against an outdated
// document version.
func NewStaleBase() *ConflictError {
	return &ConflictError{Code: CodeStaleBase}
}

// NewConflict creates a ConflictError enumerating the offending blocks.
func NewConflict(conflicts []BlockConflict) *ConflictError {
	return &ConflictError{Code: CodeConflict, Conflicts: conflicts}
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
