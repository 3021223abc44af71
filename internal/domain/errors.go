// File: internal/domain/errors.go
package domain

import "errors"

// Core error taxonomy. Services return these (possibly wrapped); the
// HTTP layer maps them to status codes.
var (
	// ErrNotFound means an entity id could not be resolved.
	ErrNotFound = errors.New("not found")

	// ErrLimitExceeded means a store already holds its maximum number of prompts.
	ErrLimitExceeded = errors.New("prompt limit exceeded")

	// ErrUnauthorized covers every credential resolution failure. The
	// message deliberately never distinguishes "no such key" from
	// "key revoked".
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupportedFormat means the external engine rejected a file's content type.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoActiveSession means a conversational operation arrived with no live session.
	ErrNoActiveSession = errors.New("no active chat session")

	// ErrSessionSuperseded means the session slot was replaced while a
	// message was in flight.
	ErrSessionSuperseded = errors.New("chat session superseded")
)
