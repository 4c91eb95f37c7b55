package apperrors

import (
	"fmt"

	"gofleet/internal/models"
)

// The core services return these typed errors instead of raising generic
// failures across the transport boundary; handlers map them to HTTP codes.

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

func Permission(reason string) *PermissionError {
	return &PermissionError{Reason: reason}
}

// ConflictError is the expected outcome of losing the accept race or of an
// illegal status transition. It always carries the trip's current canonical
// state so the caller can reconcile without a second lookup.
type ConflictError struct {
	Reason        string
	CurrentStatus models.TripStatus
	WorkerID      string
}

func (e *ConflictError) Error() string {
	if e.CurrentStatus != "" {
		return fmt.Sprintf("conflict: %s (current status %s)", e.Reason, e.CurrentStatus)
	}
	return fmt.Sprintf("conflict: %s", e.Reason)
}

func Conflict(reason string, status models.TripStatus, workerID string) *ConflictError {
	return &ConflictError{Reason: reason, CurrentStatus: status, WorkerID: workerID}
}

// NotifyFailure records a failed fan-out send. It is logged and never rolls
// back a committed mutation.
type NotifyFailure struct {
	Channel string
	Event   string
	Err     error
}

func (e *NotifyFailure) Error() string {
	return fmt.Sprintf("notify %s on %s failed: %v", e.Event, e.Channel, e.Err)
}

func (e *NotifyFailure) Unwrap() error { return e.Err }
