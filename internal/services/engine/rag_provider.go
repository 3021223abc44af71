package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	pineconeSDK "github.com/pinecone-io/go-pinecone/v4/pinecone"
	openai "github.com/sashabaranov/go-openai"

	"github.com/askdeck/askdeck/internal/services/pinecone"
)

// RAGProvider implements Engine with a self-hosted retrieval pipeline:
// documents are chunked, embedded and upserted into a Pinecone index
// (one namespace per store); answers come from a chat completion over
// the retrieved context.
type RAGProvider struct {
	config       *Config
	client       *openai.Client
	index        *pinecone.ClientService
	retry        *pinecone.RetryService
	topK         int
	chunkSize    int
	chunkOverlap int
	logger       Logger
}

func NewRAGProvider(config *Config, index *pinecone.ClientService, retry *pinecone.RetryService, topK int, logger Logger) (*RAGProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	if config.EmbeddingModel == "" {
		return nil, NewConfigError("EMBEDDING_MODEL_NAME is required for the rag engine")
	}
	if index == nil || retry == nil {
		return nil, NewConfigError("pinecone index services are required for the rag engine")
	}
	if topK <= 0 {
		topK = 8
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &RAGProvider{
		config:       config,
		client:       openai.NewClientWithConfig(clientConfig),
		index:        index,
		retry:        retry,
		topK:         topK,
		chunkSize:    1200,
		chunkOverlap: 150,
		logger:       logger,
	}, nil
}

// ProvisionStore allocates a fresh namespace. Pinecone namespaces are
// created implicitly on first upsert, so provisioning only verifies the
// index is reachable before handing out the identifier.
func (p *RAGProvider) ProvisionStore(ctx context.Context, displayName string) (string, error) {
	if err := p.index.HealthCheck(ctx); err != nil {
		return "", NewProviderError("provision_store", "index unreachable", err)
	}
	namespace := "kb-" + uuid.NewString()
	p.logger.Info("provisioned rag namespace", "namespace", namespace, "display_name", displayName)
	return namespace, nil
}

func (p *RAGProvider) DeprovisionStore(ctx context.Context, externalID string) error {
	err := p.retry.RetryWithTimeout(ctx, "deprovision_store", func(ctx context.Context) error {
		return p.index.DeleteNamespace(ctx, externalID)
	})
	if err != nil {
		return NewProviderError("deprovision_store", "namespace cleanup failed", err)
	}
	return nil
}

func (p *RAGProvider) IndexFile(ctx context.Context, externalStoreID string, content []byte, filename string) (string, error) {
	if len(content) == 0 {
		return "", NewValidationError("index_file", "file content is empty")
	}
	// This pipeline only understands text; binary uploads belong to the
	// hosted provider.
	if !utf8.Valid(content) {
		return "", NewFormatError("index_file", fmt.Sprintf("%q is not a text document", filename), nil)
	}

	chunks := chunkText(string(content), p.chunkSize, p.chunkOverlap)
	if len(chunks) == 0 {
		return "", NewValidationError("index_file", "document has no indexable text")
	}

	fileID := "doc-" + uuid.NewString()
	vectors := make([]pinecone.UpsertVector, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := p.createEmbedding(ctx, chunk)
		if err != nil {
			return "", err
		}
		vectors = append(vectors, pinecone.UpsertVector{
			ID:     fmt.Sprintf("%s-%d", fileID, i),
			Values: embedding,
			Metadata: map[string]interface{}{
				"file_id":     fileID,
				"source_file": filename,
				"chunk":       i,
				"text":        chunk,
			},
		})
	}

	err := p.retry.RetryWithTimeout(ctx, "index_file", func(ctx context.Context) error {
		return p.index.Upsert(ctx, externalStoreID, vectors)
	})
	if err != nil {
		return "", NewProviderError("index_file", "vector upsert failed", err)
	}

	p.logger.Info("indexed file", "file_id", fileID, "chunks", len(chunks), "namespace", externalStoreID)
	return fileID, nil
}

func (p *RAGProvider) RemoveFile(ctx context.Context, externalStoreID, externalFileID string) error {
	err := p.retry.RetryWithTimeout(ctx, "remove_file", func(ctx context.Context) error {
		return p.index.DeleteByFilter(ctx, externalStoreID, map[string]interface{}{
			"file_id": map[string]interface{}{"$eq": externalFileID},
		})
	})
	if err != nil {
		return NewProviderError("remove_file", "vector delete failed", err)
	}
	return nil
}

func (p *RAGProvider) GenerateAnswer(ctx context.Context, externalStoreID, prompt, modelID string, history []Turn) (string, error) {
	if len(history) == 0 {
		return "", NewValidationError("generate_answer", "history is empty")
	}
	if modelID == "" {
		modelID = p.config.AnswerModel
	}

	question := lastUserText(history)
	embedding, err := p.createEmbedding(ctx, question)
	if err != nil {
		return "", err
	}

	var matches []*pineconeSDK.ScoredVector
	err = p.retry.RetryWithTimeout(ctx, "generate_answer", func(ctx context.Context) error {
		got, qErr := p.index.Query(ctx, externalStoreID, embedding, p.topK, nil)
		if qErr != nil {
			return qErr
		}
		matches = got
		return nil
	})
	if err != nil {
		return "", NewProviderError("generate_answer", "retrieval failed", err)
	}

	messages := p.buildMessages(prompt, buildContext(matches), history)

	var answer string
	err = retryWithTimeout(ctx, p.config, p.logger, "generate_answer", func(ctx context.Context) error {
		resp, cErr := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       modelID,
			Messages:    messages,
			Temperature: p.config.Temperature,
			TopP:        p.config.TopP,
		})
		if cErr != nil {
			return NewProviderError("generate_answer", "completion failed", cErr)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return NewProviderError("generate_answer", "empty completion response", nil)
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	return answer, err
}

func (p *RAGProvider) HealthCheck(ctx context.Context) error {
	if err := p.index.HealthCheck(ctx); err != nil {
		return NewProviderError("health_check", "index unreachable", err)
	}
	return nil
}

func (p *RAGProvider) GetStatus(ctx context.Context) Status {
	err := p.HealthCheck(ctx)
	status := Status{IsHealthy: err == nil, Provider: "rag", Message: "rag engine healthy"}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}

func (p *RAGProvider) createEmbedding(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	err := retryWithTimeout(ctx, p.config, p.logger, "embedding", func(ctx context.Context) error {
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(p.config.EmbeddingModel),
		})
		if err != nil {
			return NewProviderError("embedding", "failed to create embedding", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return NewProviderError("embedding", "empty embedding response", nil)
		}
		embedding = resp.Data[0].Embedding
		return nil
	})
	return embedding, err
}

func (p *RAGProvider) buildMessages(prompt, contextBlock string, history []Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if prompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		})
	}
	if contextBlock != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("Answer using only the following document excerpts. "+
				"If the excerpts do not contain the answer, say so.\n\n%s", contextBlock),
		})
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	return messages
}

// buildContext flattens retrieved chunks into a numbered excerpt block.
func buildContext(matches []*pineconeSDK.ScoredVector) string {
	var b strings.Builder
	n := 0
	for _, match := range matches {
		if match == nil || match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		fields := match.Vector.Metadata.GetFields()
		text := fields["text"].GetStringValue()
		if text == "" {
			continue
		}
		n++
		source := fields["source_file"].GetStringValue()
		fmt.Fprintf(&b, "[%d] (%s, score %.4f)\n%s\n\n", n, source, match.Score, text)
	}
	return strings.TrimSpace(b.String())
}

func lastUserText(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Text
		}
	}
	return history[len(history)-1].Text
}

// chunkText splits text into overlapping character windows, preferring
// to break at whitespace near the window edge.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			// back up to the nearest whitespace to avoid mid-word cuts
			if idx := strings.LastIndexFunc(text[start:end], func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }); idx > size/2 {
				end = start + idx
			}
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
		start = end - overlap
	}
	return chunks
}
