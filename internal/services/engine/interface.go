// Package engine is the boundary with the external document-indexing
// and answer-generation service. The core never inspects document
// contents; it hands bytes in and gets identifiers and answers back.
package engine

import "context"

// Turn is one message of conversation history handed to the engine.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// Status reports engine health for diagnostics.
type Status struct {
	IsHealthy bool
	Provider  string
	Message   string
}

// Logger is the minimal logging surface the engine providers need.
// services.Logger satisfies it.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Engine is the external semantic-search/answer engine contract.
type Engine interface {
	// ProvisionStore creates a backing knowledge base and returns its
	// external identifier.
	ProvisionStore(ctx context.Context, displayName string) (string, error)

	// DeprovisionStore removes the backing knowledge base. Idempotent:
	// a store that is already gone is not an error.
	DeprovisionStore(ctx context.Context, externalID string) error

	// IndexFile uploads and indexes a document into the store.
	IndexFile(ctx context.Context, externalStoreID string, content []byte, filename string) (string, error)

	// RemoveFile deletes an indexed document. Idempotent on not-found.
	RemoveFile(ctx context.Context, externalStoreID, externalFileID string) error

	// GenerateAnswer runs the prompt, model and full history against the
	// store's documents and returns the answer text.
	GenerateAnswer(ctx context.Context, externalStoreID, prompt, modelID string, history []Turn) (string, error)

	HealthCheck(ctx context.Context) error
	GetStatus(ctx context.Context) Status
}
