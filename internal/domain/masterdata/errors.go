package masterdata

import "errors"

// Error codes for reconciliation and read failures.
const (
	// CodeMappingAmbiguous is used when two or more columns tie for the same canonical field
	CodeMappingAmbiguous = "MAPPING_AMBIGUOUS"
	// CodeRecordInvalid is used for per-row validation failures kept as diagnostics
	CodeRecordInvalid = "RECORD_INVALID"
	// CodeLoadFailed is used when a source file cannot produce a usable snapshot (terminal, not retried)
	CodeLoadFailed = "LOAD_FAILED"
	// CodeTransientIO is used for lock/permission/temporary-absence failures (retried with backoff)
	CodeTransientIO = "TRANSIENT_IO"
	// CodeRetryExhausted is used when the retry budget for a dataset is spent
	CodeRetryExhausted = "RETRY_EXHAUSTED"
	// CodeDatasetNotFound is used when a dataset key is not registered
	CodeDatasetNotFound = "DATASET_NOT_FOUND"
	// CodeNeverLoaded is used when a dataset has no successfully loaded snapshot yet
	CodeNeverLoaded = "NEVER_LOADED"
	// CodeNoPrevious is used when rollback is requested without a previous generation
	CodeNoPrevious = "NO_PREVIOUS_SNAPSHOT"
	// CodeEmptySnapshot is used when a candidate snapshot carries no valid records
	CodeEmptySnapshot = "EMPTY_SNAPSHOT"
	// CodeInvalidHSCode is used when a requested HS code cannot be normalized
	CodeInvalidHSCode = "INVALID_HS_CODE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError creates a domain error that wraps an underlying cause
func WrapError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors
var (
	ErrDatasetNotFound = NewDomainError(CodeDatasetNotFound, "Dataset not found")
	ErrNeverLoaded     = NewDomainError(CodeNeverLoaded, "Dataset has no successfully loaded snapshot")
	ErrNoPrevious      = NewDomainError(CodeNoPrevious, "No previous snapshot available for rollback")
	ErrEmptySnapshot   = NewDomainError(CodeEmptySnapshot, "Snapshot contains no valid records")
)

// NewLoadError creates a terminal load failure for bad file content.
// Load failures are never retried: the content will not change on its own.
func NewLoadError(message string) *DomainError {
	return NewDomainError(CodeLoadFailed, message)
}

// NewTransientIOError creates a retryable I/O failure (lock, permission,
// temporary absence).
func NewTransientIOError(message string, err error) *DomainError {
	return WrapError(CodeTransientIO, message, err)
}

// CodeOf returns the domain error code of err, or "" for non-domain errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsLoadError reports whether err is a terminal load failure.
func IsLoadError(err error) bool {
	return CodeOf(err) == CodeLoadFailed
}

// IsTransientIO reports whether err should be retried with backoff.
func IsTransientIO(err error) bool {
	return CodeOf(err) == CodeTransientIO
}
