// Package errors defines the application error type used across the
// freight reconciliation service: a category plus a specific code, a
// human-readable message, an optional fix suggestion, structured context,
// and a stack trace captured at construction time.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryExtraction     ErrorCategory = "extraction"
	CategoryRepository     ErrorCategory = "repository"
	CategoryQueue          ErrorCategory = "queue"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Validation errors
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidValue  ErrorCode = "invalid_value"
	CodeInvalidStatus ErrorCode = "invalid_status"

	// Extraction errors
	CodeExtractionFailed ErrorCode = "extraction_failed"
	CodeNotExtracted     ErrorCode = "not_extracted"
	CodeInvalidPayload   ErrorCode = "invalid_payload"

	// Repository errors
	CodeNotFound       ErrorCode = "not_found"
	CodeCommitFailed   ErrorCode = "commit_failed"
	CodeStorageError   ErrorCode = "storage_error"
	CodeDuplicateEntry ErrorCode = "duplicate_entry"

	// Queue errors
	CodeEnqueueFailed  ErrorCode = "enqueue_failed"
	CodeConsumeFailed  ErrorCode = "consume_failed"
	CodeLockContention ErrorCode = "lock_contention"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Reconciliation errors
	CodeMatchingFailed  ErrorCode = "matching_failed"
	CodeProcessingError ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryExtraction:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	case CategoryRepository, CategoryQueue:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ValidationError creates a validation error for a specific field
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field is missing: %s", field)
		suggestion = "provide a value for the required field"
	case CodeInvalidValue:
		message = fmt.Sprintf("invalid value for field '%s': %v", field, value)
		suggestion = "correct the value and retry"
	case CodeInvalidStatus:
		message = fmt.Sprintf("invalid status transition on field '%s': %v", field, value)
		suggestion = "check the current lifecycle state before applying the action"
	default:
		message = fmt.Sprintf("validation failed for field '%s'", field)
		suggestion = "check the field value"
	}

	return build(err, CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field)
}

// ExtractionError creates an extraction-related error
func ExtractionError(code ErrorCode, documentID string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeExtractionFailed:
		message = fmt.Sprintf("field extraction failed for document %s", documentID)
		suggestion = "the document will fall back to heuristic classification; review the extraction provider logs"
	case CodeNotExtracted:
		message = fmt.Sprintf("document %s has no extracted data", documentID)
		suggestion = "run the processing pipeline before reconciling this document"
	case CodeInvalidPayload:
		message = fmt.Sprintf("extraction payload for document %s does not match its document type", documentID)
		suggestion = "re-run extraction or correct the stored payload"
	default:
		message = fmt.Sprintf("extraction error for document %s", documentID)
		suggestion = "check the extraction provider"
	}

	return build(err, CategoryExtraction, code, message).
		WithSuggestion(suggestion).
		WithContext("document_id", documentID)
}

// RepositoryError creates a persistence-related error
func RepositoryError(code ErrorCode, entity string, id string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeNotFound:
		message = fmt.Sprintf("%s not found: %s", entity, id)
		suggestion = "verify the identifier and the organization scope"
	case CodeCommitFailed:
		message = fmt.Sprintf("commit failed for %s %s", entity, id)
		suggestion = "the transaction was rolled back; retry the operation"
	case CodeStorageError:
		message = fmt.Sprintf("storage error accessing %s %s", entity, id)
		suggestion = "check database connectivity and schema migrations"
	default:
		message = fmt.Sprintf("repository error for %s %s", entity, id)
		suggestion = "check the repository backend"
	}

	return build(err, CategoryRepository, code, message).
		WithSuggestion(suggestion).
		WithContext("entity", entity).
		WithContext("id", id)
}

// QueueError creates a queue- or lock-related error
func QueueError(code ErrorCode, key string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeEnqueueFailed:
		message = fmt.Sprintf("failed to enqueue job %s", key)
		suggestion = "check the queue backend connectivity"
	case CodeConsumeFailed:
		message = fmt.Sprintf("failed to consume from queue %s", key)
		suggestion = "check the queue backend connectivity and consumer health"
	case CodeLockContention:
		message = fmt.Sprintf("could not acquire lock %s", key)
		suggestion = "another reconciliation pass holds the lock; the job will be retried"
	default:
		message = fmt.Sprintf("queue error for %s", key)
		suggestion = "check the queue backend"
	}

	return build(err, CategoryQueue, code, message).
		WithSuggestion(suggestion).
		WithContext("key", key)
}

// ConfigError creates a configuration-related error
func ConfigError(code ErrorCode, setting string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration value for %s", setting)
		suggestion = "correct the setting in the config file or environment"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "set the value via the config file, flag, or FREIGHTRECON environment variable"
	default:
		message = fmt.Sprintf("configuration error for %s", setting)
		suggestion = "check the configuration"
	}

	return build(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting)
}

// ReconciliationError creates an error in the reconciliation pass itself
func ReconciliationError(code ErrorCode, shipmentID string, err error) *ReconcilerError {
	var message string

	switch code {
	case CodeMatchingFailed:
		message = fmt.Sprintf("shipment matching failed for shipment %s", shipmentID)
	case CodeProcessingError:
		message = fmt.Sprintf("reconciliation pass failed for shipment %s", shipmentID)
	default:
		message = fmt.Sprintf("reconciliation error for shipment %s", shipmentID)
	}

	return build(err, CategoryReconciliation, code, message).
		WithContext("shipment_id", shipmentID)
}

// InternalError creates an unexpected internal error
func InternalError(message string, err error) *ReconcilerError {
	return build(err, CategoryInternal, CodeUnexpectedError, message).
		WithSuggestion("this is likely a bug; check the logs for the stack trace")
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// IsCategory checks whether err is a ReconcilerError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	re, ok := AsReconcilerError(err)
	return ok && re.Category == category
}

// IsCode checks whether err is a ReconcilerError with the given code
func IsCode(err error, code ErrorCode) bool {
	re, ok := AsReconcilerError(err)
	return ok && re.Code == code
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	for err != nil {
		if re, ok := err.(*ReconcilerError); ok {
			return re, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
