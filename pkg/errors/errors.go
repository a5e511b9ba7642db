// Package errors defines the booking core's error taxonomy. Every kind here
// carries a single semantic meaning across layers (row-store gateway,
// domain services, worker pool, progress hub) so callers can branch on
// errors.As instead of string matching.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra data.
var (
	ErrSlotNotAvailable           = errors.New("no matching theoretical slot")
	ErrConflictDetected           = errors.New("interval collision at booking time")
	ErrInvalidTime                = errors.New("outside business hours or advance window")
	ErrVideoServiceUnavailable    = errors.New("media gateway unavailable")
	ErrVideoSessionCreationFailed = errors.New("video session creation failed")
	ErrVideoSessionNotFound       = errors.New("video session not found")
	ErrLockAlreadyHeld            = errors.New("lock already held")
	ErrRetriesExhausted           = errors.New("max retries exhausted")
)

// ValidationError signals that input constraints were violated. Never
// retried; always surfaced to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFound is the base "referenced entity absent" error. Specializations
// below embed it so callers can match either the specific kind or the
// general NotFound via errors.As.
type NotFound struct {
	Entity string
	ID     string
}

func (e *NotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func NewNotFound(entity, id string) *NotFound {
	return &NotFound{Entity: entity, ID: id}
}

// PatientNotFound specializes NotFound for targeted client messages.
type PatientNotFound struct{ NotFound }

// Unwrap exposes the embedded NotFound to errors.As.
func (e *PatientNotFound) Unwrap() error { return &e.NotFound }

func NewPatientNotFound(id string) *PatientNotFound {
	return &PatientNotFound{NotFound{Entity: "patient", ID: id}}
}

// DoctorNotFound specializes NotFound for targeted client messages.
type DoctorNotFound struct{ NotFound }

// Unwrap exposes the embedded NotFound to errors.As.
func (e *DoctorNotFound) Unwrap() error { return &e.NotFound }

func NewDoctorNotFound(id string) *DoctorNotFound {
	return &DoctorNotFound{NotFound{Entity: "doctor", ID: id}}
}

// DoctorNotAvailable means the doctor exists but cannot be booked (not
// verified, or marked unavailable).
type DoctorNotAvailable struct {
	DoctorID string
	Reason   string
}

func (e *DoctorNotAvailable) Error() string {
	return fmt.Sprintf("doctor %s not available: %s", e.DoctorID, e.Reason)
}

// SpecialtyNotAvailable means no doctor matches the requested specialty.
type SpecialtyNotAvailable struct {
	Specialty string
}

func (e *SpecialtyNotAvailable) Error() string {
	return fmt.Sprintf("specialty not available: %s", e.Specialty)
}

// InvalidStatusTransition means a lifecycle rule was violated; surfaced,
// never retried.
type InvalidStatusTransition struct {
	From string
	To   string
}

func (e *InvalidStatusTransition) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// DatabaseError is a transport-level failure talking to the row-store
// gateway. The worker counts these against retry_count and re-queues if
// retry_count < max_retries.
type DatabaseError struct {
	Message string
	Err     error
}

func (e *DatabaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("database error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("database error: %s", e.Message)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

func NewDatabaseError(message string, err error) *DatabaseError {
	return &DatabaseError{Message: message, Err: err}
}

// DecodeError is a DatabaseError specialization for response bodies that
// fail to parse. Kept distinct so a parse failure is never silently
// swallowed as an empty result.
type DecodeError struct {
	DatabaseError
}

func NewDecodeError(message string, err error) *DecodeError {
	return &DecodeError{DatabaseError{Message: message, Err: err}}
}

// ExternalServiceError is a transport-level failure talking to the media
// gateway or another external collaborator. Retryable exactly like
// DatabaseError.
type ExternalServiceError struct {
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("external service error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("external service error: %s", e.Message)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func NewExternalServiceError(message string, err error) *ExternalServiceError {
	return &ExternalServiceError{Message: message, Err: err}
}

// IsRetryable reports whether the worker pool should count this error
// against a job's retry_count and re-queue it, per the propagation policy
// in the error handling design: only transport-level failures retry
// automatically; everything else bubbles up as a terminal Failed
// transition.
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	var extErr *ExternalServiceError
	return errors.As(err, &dbErr) || errors.As(err, &extErr)
}

// IsConflict reports whether err is (or wraps) ErrConflictDetected — the
// one error class that the atomic booking path retries locally (§4.F)
// rather than bubbling to the worker's retry boundary.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflictDetected)
}

// AppError is the generic envelope used by the ops surface to translate a
// domain error into an HTTP-facing shape. Kept distinct from the domain
// taxonomy above: AppError is presentation, the typed errors above are
// semantics.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// FromDomainError maps a domain error from the taxonomy above onto the
// ops-surface AppError envelope. No handler in this module calls it; the
// job-status endpoint returns the job's stored error_message string.
func FromDomainError(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case errors.As(err, new(*ValidationError)):
		return NewAppError("VALIDATION_ERROR", err.Error(), err)
	case errors.As(err, new(*NotFound)):
		return NewAppError("NOT_FOUND", err.Error(), err)
	case errors.As(err, new(*DoctorNotAvailable)):
		return NewAppError("DOCTOR_NOT_AVAILABLE", err.Error(), err)
	case errors.As(err, new(*SpecialtyNotAvailable)):
		return NewAppError("SPECIALTY_NOT_AVAILABLE", err.Error(), err)
	case errors.Is(err, ErrSlotNotAvailable):
		return NewAppError("SLOT_NOT_AVAILABLE", err.Error(), err)
	case errors.Is(err, ErrConflictDetected):
		return NewAppError("CONFLICT_DETECTED", err.Error(), err)
	case errors.As(err, new(*InvalidStatusTransition)):
		return NewAppError("INVALID_STATUS_TRANSITION", err.Error(), err)
	case errors.Is(err, ErrInvalidTime):
		return NewAppError("INVALID_TIME", err.Error(), err)
	case errors.As(err, new(*DatabaseError)):
		return NewAppError("DATABASE_ERROR", err.Error(), err)
	case errors.As(err, new(*ExternalServiceError)):
		return NewAppError("EXTERNAL_SERVICE_ERROR", err.Error(), err)
	default:
		return NewAppError("INTERNAL_ERROR", err.Error(), err)
	}
}
