// Package pinecone talks to a Pinecone serverless index over its REST
// API. The SDK is used for its vector types; requests go over plain
// HTTP so the client stays in control of timeouts and error mapping.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	pineconeSDK "github.com/pinecone-io/go-pinecone/v4/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// Logger is the minimal logging surface this package needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// UpsertVector is the wire form of one vector to insert.
type UpsertVector struct {
	ID       string                 `json:"id"`
	Values   []float32              `json:"values"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ClientService implements index operations against the Pinecone REST API.
type ClientService struct {
	config  *Config
	client  *http.Client
	baseURL string
	logger  Logger
}

func NewClientService(config *Config, logger Logger) (*ClientService, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	service := &ClientService{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: fmt.Sprintf("https://%s", config.IndexHost),
		logger:  logger,
	}

	logger.Info("Pinecone HTTP client initialized", "host", config.IndexHost)
	return service, nil
}

// Upsert inserts or replaces vectors in the given namespace.
func (c *ClientService) Upsert(ctx context.Context, namespace string, vectors []UpsertVector) error {
	body := map[string]interface{}{
		"vectors":   vectors,
		"namespace": namespace,
	}
	if err := c.post(ctx, "/vectors/upsert", body, nil); err != nil {
		return NewIndexError("upsert", fmt.Sprintf("upsert of %d vectors failed", len(vectors)), err)
	}
	return nil
}

// Query performs similarity search and returns SDK-typed matches.
func (c *ClientService) Query(ctx context.Context, namespace string, values []float32, topK int, filter map[string]interface{}) ([]*pineconeSDK.ScoredVector, error) {
	body := map[string]interface{}{
		"vector":          values,
		"topK":            topK,
		"namespace":       namespace,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		body["filter"] = filter
	}

	var response queryResponse
	if err := c.post(ctx, "/query", body, &response); err != nil {
		return nil, NewIndexError("query", "similarity query failed", err)
	}

	matches := make([]*pineconeSDK.ScoredVector, 0, len(response.Matches))
	for _, m := range response.Matches {
		metadata, err := structpb.NewStruct(m.Metadata)
		if err != nil {
			c.logger.Warn("dropping match with unconvertible metadata", "id", m.ID, "error", err)
			continue
		}
		matches = append(matches, &pineconeSDK.ScoredVector{
			Vector: &pineconeSDK.Vector{Id: m.ID, Metadata: metadata},
			Score:  m.Score,
		})
	}
	return matches, nil
}

// DeleteByFilter removes every vector in the namespace matching the filter.
func (c *ClientService) DeleteByFilter(ctx context.Context, namespace string, filter map[string]interface{}) error {
	body := map[string]interface{}{
		"filter":    filter,
		"namespace": namespace,
	}
	if err := c.post(ctx, "/vectors/delete", body, nil); err != nil {
		return NewIndexError("delete", "filtered delete failed", err)
	}
	return nil
}

// DeleteNamespace drops every vector in the namespace. A namespace that
// never existed deletes cleanly, which keeps the operation idempotent.
func (c *ClientService) DeleteNamespace(ctx context.Context, namespace string) error {
	body := map[string]interface{}{
		"deleteAll": true,
		"namespace": namespace,
	}
	err := c.post(ctx, "/vectors/delete", body, nil)
	if err != nil {
		var httpErr *httpStatusError
		if asHTTPStatus(err, &httpErr) && httpErr.status == http.StatusNotFound {
			return nil
		}
		return NewIndexError("delete_namespace", "namespace delete failed", err)
	}
	return nil
}

func (c *ClientService) HealthCheck(ctx context.Context) error {
	if err := c.post(ctx, "/describe_index_stats", map[string]interface{}{}, nil); err != nil {
		return NewConnectionError("health_check", "index stats request failed", err)
	}
	return nil
}

func (c *ClientService) Close() error {
	return nil
}

type queryResponse struct {
	Matches []struct {
		ID       string                 `json:"id"`
		Score    float32                `json:"score"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"matches"`
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func asHTTPStatus(err error, target **httpStatusError) bool {
	se, ok := err.(*httpStatusError)
	if ok {
		*target = se
	}
	return ok
}

func (c *ClientService) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("Pinecone request failed", "path", path, "status", resp.StatusCode)
		return &httpStatusError{status: resp.StatusCode, body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}
