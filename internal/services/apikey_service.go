package services

import (
	"context"
	"errors"
	"strings"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/repository/apikey"
	"github.com/askdeck/askdeck/internal/repository/prompt"
	"github.com/askdeck/askdeck/internal/repository/store"
)

// ApiKeyCreated carries the one and only copy of a new key's plaintext
// secret alongside its persisted record.
type ApiKeyCreated struct {
	Key    string         `json:"key"`
	Record *domain.ApiKey `json:"record"`
}

// ResolvedScope is the effective scope a presented API key grants.
// FallbackUsed flags that the key carried a prompt pin whose prompt no
// longer resolves, so the store's active prompt was substituted. That
// substitution is expected behavior, not an error.
type ResolvedScope struct {
	KeyID         uint
	StoreID       uint
	PromptContent string
	PromptPinned  bool
	FallbackUsed  bool
}

// ApiKeyService is the credential store for scoped API keys.
type ApiKeyService struct {
	apiKeyRepo apikey.ApiKeyRepository
	promptRepo prompt.PromptRepository
	storeRepo  store.StoreRepository
	logger     Logger
}

func NewApiKeyService(apiKeyRepo apikey.ApiKeyRepository, promptRepo prompt.PromptRepository, storeRepo store.StoreRepository, logger Logger) (*ApiKeyService, error) {
	if apiKeyRepo == nil || promptRepo == nil || storeRepo == nil {
		return nil, errors.New("api key service: repositories are required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &ApiKeyService{
		apiKeyRepo: apiKeyRepo,
		promptRepo: promptRepo,
		storeRepo:  storeRepo,
		logger:     logger,
	}, nil
}

// CreateApiKey issues a new scoped credential. The plaintext secret in
// the result is the only copy that will ever exist; it is never logged
// and cannot be derived from the stored hash.
//
// promptIndex optionally pins the key to the prompt at that ordinal
// position (creation order). The pin is stored as the prompt's stable
// id; an out-of-range index pins nothing and the key follows the
// store's active prompt.
func (s *ApiKeyService) CreateApiKey(ctx context.Context, name string, storeID uint, promptIndex *int) (*ApiKeyCreated, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("api key name cannot be empty")
	}

	secret, err := domain.GenerateApiKeySecret()
	if err != nil {
		return nil, err
	}

	record := &domain.ApiKey{StoreID: storeID, Name: name}
	if err := record.SetSecret(secret); err != nil {
		return nil, err
	}

	if promptIndex != nil {
		prompts, err := s.promptRepo.FindByStoreID(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if *promptIndex >= 0 && *promptIndex < len(prompts) {
			id := prompts[*promptIndex].ID
			record.PromptID = &id
		} else {
			s.logger.Warn("prompt index out of range, key will follow the active prompt",
				"store_id", storeID, "prompt_index", *promptIndex)
		}
	}

	created, err := s.apiKeyRepo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return &ApiKeyCreated{Key: secret, Record: created}, nil
}

// ListApiKeys returns key records scoped to one store, or all of them.
// Records only ever expose name, scope and display prefix.
func (s *ApiKeyService) ListApiKeys(ctx context.Context, storeID *uint) ([]domain.ApiKey, error) {
	if storeID != nil {
		if _, err := s.storeRepo.FindByID(ctx, *storeID); err != nil {
			return nil, err
		}
		return s.apiKeyRepo.FindByStoreID(ctx, *storeID)
	}
	return s.apiKeyRepo.FindAll(ctx)
}

func (s *ApiKeyService) DeleteApiKey(ctx context.Context, keyID uint) error {
	return s.apiKeyRepo.Delete(ctx, keyID)
}

// Resolve authenticates a presented secret and resolves its effective
// scope. Every failure maps to the same undifferentiated unauthorized
// error so callers cannot enumerate keys.
func (s *ApiKeyService) Resolve(ctx context.Context, presented string) (*ResolvedScope, error) {
	if !strings.HasPrefix(presented, domain.ApiKeySecretPrefix) {
		return nil, domain.ErrUnauthorized
	}

	record, err := s.apiKeyRepo.FindByFingerprint(ctx, domain.ApiKeyFingerprint(presented))
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if err := record.ValidateSecret(presented); err != nil {
		return nil, domain.ErrUnauthorized
	}

	scope := &ResolvedScope{
		KeyID:        record.ID,
		StoreID:      record.StoreID,
		PromptPinned: record.PromptID != nil,
	}

	if record.PromptID != nil {
		pinned, err := s.promptRepo.FindByID(ctx, *record.PromptID)
		if err == nil && pinned.StoreID == record.StoreID {
			scope.PromptContent = pinned.Content
			return scope, nil
		}
		// The pinned prompt is gone; fall through to the active prompt.
		scope.FallbackUsed = true
	}

	active, err := s.promptRepo.FindActiveByStoreID(ctx, record.StoreID)
	if err == nil {
		scope.PromptContent = active.Content
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return scope, nil
}
