package pinecone

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeConnection ErrorType = "CONNECTION"
	ErrTypeIndex      ErrorType = "INDEX"
)

type PineconeError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *PineconeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pinecone %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("pinecone %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *PineconeError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *PineconeError {
	return &PineconeError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewConnectionError(operation, msg string, cause error) *PineconeError {
	return &PineconeError{Type: ErrTypeConnection, Operation: operation, Message: msg, Cause: cause}
}

func NewIndexError(operation, msg string, cause error) *PineconeError {
	return &PineconeError{Type: ErrTypeIndex, Operation: operation, Message: msg, Cause: cause}
}
