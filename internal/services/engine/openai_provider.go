package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Engine on top of OpenAI vector stores and
// assistant file search. A store maps to a vector store; answering runs
// an ephemeral assistant scoped to that vector store.
type OpenAIProvider struct {
	config *Config
	client *openai.Client
	logger Logger
}

func NewOpenAIProvider(config *Config, logger Logger) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

func (p *OpenAIProvider) ProvisionStore(ctx context.Context, displayName string) (string, error) {
	var id string
	err := retryWithTimeout(ctx, p.config, p.logger, "provision_store", func(ctx context.Context) error {
		vs, err := p.client.CreateVectorStore(ctx, openai.VectorStoreRequest{Name: displayName})
		if err != nil {
			return p.wrapAPIError("provision_store", err)
		}
		id = vs.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("provisioned external store", "external_id", id, "display_name", displayName)
	return id, nil
}

func (p *OpenAIProvider) DeprovisionStore(ctx context.Context, externalID string) error {
	return retryWithTimeout(ctx, p.config, p.logger, "deprovision_store", func(ctx context.Context) error {
		_, err := p.client.DeleteVectorStore(ctx, externalID)
		if err != nil && !isNotFound(err) {
			return p.wrapAPIError("deprovision_store", err)
		}
		return nil
	})
}

func (p *OpenAIProvider) IndexFile(ctx context.Context, externalStoreID string, content []byte, filename string) (string, error) {
	if len(content) == 0 {
		return "", NewValidationError("index_file", "file content is empty")
	}

	var fileID string
	err := retryWithTimeout(ctx, p.config, p.logger, "index_file", func(ctx context.Context) error {
		// Keep the caller's filename so the provider can sniff the content type.
		f, err := p.client.CreateFileBytes(ctx, openai.FileBytesRequest{
			Name:    filename,
			Bytes:   content,
			Purpose: openai.PurposeAssistants,
		})
		if err != nil {
			if code := apiStatusCode(err); code == http.StatusBadRequest || code == http.StatusUnsupportedMediaType {
				return NewFormatError("index_file", fmt.Sprintf("provider rejected %q", filename), err)
			}
			return p.wrapAPIError("index_file", err)
		}

		if _, err := p.client.CreateVectorStoreFile(ctx, externalStoreID, openai.VectorStoreFileRequest{FileID: f.ID}); err != nil {
			// Don't leave an orphaned upload behind the failed attach.
			if delErr := p.client.DeleteFile(ctx, f.ID); delErr != nil {
				p.logger.Warn("orphaned provider file after failed attach", "file_id", f.ID, "error", delErr)
			}
			return p.wrapAPIError("index_file", err)
		}
		fileID = f.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return fileID, nil
}

func (p *OpenAIProvider) RemoveFile(ctx context.Context, externalStoreID, externalFileID string) error {
	return retryWithTimeout(ctx, p.config, p.logger, "remove_file", func(ctx context.Context) error {
		if err := p.client.DeleteVectorStoreFile(ctx, externalStoreID, externalFileID); err != nil && !isNotFound(err) {
			return p.wrapAPIError("remove_file", err)
		}
		if err := p.client.DeleteFile(ctx, externalFileID); err != nil && !isNotFound(err) {
			return p.wrapAPIError("remove_file", err)
		}
		return nil
	})
}

func (p *OpenAIProvider) GenerateAnswer(ctx context.Context, externalStoreID, prompt, modelID string, history []Turn) (string, error) {
	if len(history) == 0 {
		return "", NewValidationError("generate_answer", "history is empty")
	}
	if modelID == "" {
		modelID = p.config.AnswerModel
	}

	var answer string
	err := retryWithTimeout(ctx, p.config, p.logger, "generate_answer", func(ctx context.Context) error {
		got, err := p.runAssistant(ctx, externalStoreID, prompt, modelID, history)
		if err != nil {
			return err
		}
		answer = got
		return nil
	})
	return answer, err
}

// runAssistant creates a throwaway assistant wired to the store's vector
// store, seeds a thread with the conversation and polls the run.
func (p *OpenAIProvider) runAssistant(ctx context.Context, externalStoreID, prompt, modelID string, history []Turn) (string, error) {
	name := "askdeck-answer"
	assistant, err := p.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        modelID,
		Name:         &name,
		Instructions: &prompt,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}},
		ToolResources: &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{VectorStoreIDs: []string{externalStoreID}},
		},
	})
	if err != nil {
		return "", p.wrapAPIError("generate_answer", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := p.client.DeleteAssistant(cleanupCtx, assistant.ID); err != nil {
			p.logger.Warn("failed to delete ephemeral assistant", "assistant_id", assistant.ID, "error", err)
		}
	}()

	messages := make([]openai.ThreadMessage, 0, len(history))
	for _, turn := range history {
		role := openai.ThreadMessageRoleUser
		if turn.Role == "model" {
			role = openai.ThreadMessageRoleAssistant
		}
		messages = append(messages, openai.ThreadMessage{Role: role, Content: turn.Text})
	}

	run, err := p.client.CreateThreadAndRun(ctx, openai.CreateThreadAndRunRequest{
		RunRequest: openai.RunRequest{AssistantID: assistant.ID},
		Thread:     openai.ThreadRequest{Messages: messages},
	})
	if err != nil {
		return "", p.wrapAPIError("generate_answer", err)
	}

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			return p.lastAssistantMessage(ctx, run.ThreadID)
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusIncomplete:
			return "", NewProviderError("generate_answer",
				fmt.Sprintf("run ended with status %s", run.Status), nil)
		case openai.RunStatusRequiresAction:
			return "", NewProviderError("generate_answer", "run requires unsupported tool action", nil)
		}

		select {
		case <-ctx.Done():
			return "", NewProviderError("generate_answer", "run polling cancelled", ctx.Err())
		case <-time.After(p.config.PollInterval):
		}

		run, err = p.client.RetrieveRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return "", p.wrapAPIError("generate_answer", err)
		}
	}
}

func (p *OpenAIProvider) lastAssistantMessage(ctx context.Context, threadID string) (string, error) {
	limit := 1
	order := "desc"
	list, err := p.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", p.wrapAPIError("generate_answer", err)
	}
	if len(list.Messages) == 0 || len(list.Messages[0].Content) == 0 {
		return "", NewProviderError("generate_answer", "empty answer from provider", nil)
	}

	content := list.Messages[0].Content[0]
	if content.Text == nil || content.Text.Value == "" {
		return "", NewProviderError("generate_answer", "answer has no text content", nil)
	}
	return content.Text.Value, nil
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return p.wrapAPIError("health_check", err)
	}
	return nil
}

func (p *OpenAIProvider) GetStatus(ctx context.Context) Status {
	err := p.HealthCheck(ctx)
	status := Status{IsHealthy: err == nil, Provider: "openai", Message: "OpenAI engine healthy"}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}

// wrapAPIError classifies a go-openai error into the engine taxonomy.
func (p *OpenAIProvider) wrapAPIError(operation string, err error) *EngineError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		engErr := &EngineError{
			Type:      ErrTypeProvider,
			Code:      apiErr.HTTPStatusCode,
			Message:   apiErr.Message,
			Operation: operation,
			Cause:     err,
		}
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			engErr.Type = ErrTypeRateLimit
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			engErr.Type = ErrTypeAuth
		case apiErr.HTTPStatusCode >= 500:
			engErr.Type = ErrTypeNetwork
		}
		return engErr
	}
	return &EngineError{Type: ErrTypeNetwork, Message: "provider request failed", Operation: operation, Cause: err}
}

func apiStatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	return 0
}

func isNotFound(err error) bool {
	return apiStatusCode(err) == http.StatusNotFound
}
