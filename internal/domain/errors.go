package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrToolNotFound     = fmt.Errorf("tool not found")
	ErrToolFailure      = fmt.Errorf("tool execution failed")
	ErrMissingDoc       = fmt.Errorf("tool function has no documentation")
	ErrUnresolvableType = fmt.Errorf("parameter type cannot be resolved")
	ErrDuplicateTool    = fmt.Errorf("tool already registered")

	ErrNoActiveWindow = fmt.Errorf("no active usage window")
	ErrQuotaExceeded  = fmt.Errorf("token quota exceeded")

	ErrThreadNotFound = fmt.Errorf("thread not found")
	ErrRunFailed      = fmt.Errorf("assistant run failed")
	ErrProviderError  = fmt.Errorf("assistant provider error")

	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicate    = fmt.Errorf("duplicate")
	ErrAuthInvalid  = fmt.Errorf("authentication failed")
	ErrRateLimit    = fmt.Errorf("rate limit exceeded")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrConfigLoad   = fmt.Errorf("failed to load configuration")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Invoker.Invoke")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for API responses and monitoring.
type ErrorCode string

const (
	CodeUnknown          ErrorCode = "UNKNOWN"
	CodeToolNotFound     ErrorCode = "TOOL_NOT_FOUND"
	CodeToolFailure      ErrorCode = "TOOL_FAILURE"
	CodeMissingDoc       ErrorCode = "MISSING_DOCUMENTATION"
	CodeUnresolvableType ErrorCode = "UNRESOLVABLE_TYPE"
	CodeNoActiveWindow   ErrorCode = "NO_ACTIVE_WINDOW"
	CodeQuotaExceeded    ErrorCode = "QUOTA_EXCEEDED"
	CodeThreadNotFound   ErrorCode = "THREAD_NOT_FOUND"
	CodeRunFailed        ErrorCode = "RUN_FAILED"
	CodeProviderError    ErrorCode = "PROVIDER_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeDuplicate        ErrorCode = "DUPLICATE"
	CodeAuthInvalid      ErrorCode = "AUTH_INVALID"
	CodeRateLimit        ErrorCode = "RATE_LIMIT"
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeConfigLoad       ErrorCode = "CONFIG_LOAD"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrToolNotFound:     CodeToolNotFound,
	ErrToolFailure:      CodeToolFailure,
	ErrMissingDoc:       CodeMissingDoc,
	ErrUnresolvableType: CodeUnresolvableType,
	ErrNoActiveWindow:   CodeNoActiveWindow,
	ErrQuotaExceeded:    CodeQuotaExceeded,
	ErrThreadNotFound:   CodeThreadNotFound,
	ErrRunFailed:        CodeRunFailed,
	ErrProviderError:    CodeProviderError,
	ErrNotFound:         CodeNotFound,
	ErrDuplicate:        CodeDuplicate,
	ErrAuthInvalid:      CodeAuthInvalid,
	ErrRateLimit:        CodeRateLimit,
	ErrInvalidInput:     CodeInvalidInput,
	ErrConfigLoad:       CodeConfigLoad,
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	// Fast path: direct sentinel lookup.
	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}

	// Walk the error chain with errors.Is.
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}
