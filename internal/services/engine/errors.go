package engine

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRateLimit  ErrorType = "RATE_LIMIT"
	ErrTypeQuota      ErrorType = "QUOTA"
	ErrTypeAuth       ErrorType = "AUTH"
	ErrTypeFormat     ErrorType = "FORMAT"
	ErrTypeValidation ErrorType = "VALIDATION"
)

// EngineError carries the provider error classification the core's
// propagation policy depends on: rate-limit, quota and network failures
// are retryable; auth, format and malformed-request failures are not.
type EngineError struct {
	Type      ErrorType
	Code      int
	Message   string
	Operation string
	Cause     error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("engine %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// Retryable reports whether repeating the same call can succeed.
func (e *EngineError) Retryable() bool {
	switch e.Type {
	case ErrTypeRateLimit, ErrTypeQuota, ErrTypeNetwork:
		return true
	default:
		return false
	}
}

func NewConfigError(msg string) *EngineError {
	return &EngineError{Type: ErrTypeConfig, Message: msg, Operation: "config"}
}

func NewProviderError(operation, msg string, cause error) *EngineError {
	return &EngineError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewFormatError(operation, msg string, cause error) *EngineError {
	return &EngineError{Type: ErrTypeFormat, Operation: operation, Message: msg, Cause: cause}
}

func NewValidationError(operation, msg string) *EngineError {
	return &EngineError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}
