package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/repository/prompt"
	"github.com/askdeck/askdeck/internal/repository/store"
)

// DefaultMaxPrompts is the per-store prompt cap.
const DefaultMaxPrompts = 3

// PromptList is the read model for a store's prompt registry.
type PromptList struct {
	Prompts        []domain.Prompt `json:"prompts"`
	ActivePromptID *uint           `json:"active_prompt_id"`
	MaxPrompts     int             `json:"max_prompts"`
}

// PromptService maintains the per-store bounded prompt collection and
// its exactly-one-active selection.
type PromptService struct {
	promptRepo prompt.PromptRepository
	storeRepo  store.StoreRepository
	maxPrompts int
	locks      sync.Map // store id -> *sync.Mutex
	logger     Logger
}

func NewPromptService(promptRepo prompt.PromptRepository, storeRepo store.StoreRepository, maxPrompts int, logger Logger) (*PromptService, error) {
	if promptRepo == nil || storeRepo == nil {
		return nil, errors.New("prompt service: repositories are required")
	}
	if maxPrompts <= 0 {
		maxPrompts = DefaultMaxPrompts
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &PromptService{
		promptRepo: promptRepo,
		storeRepo:  storeRepo,
		maxPrompts: maxPrompts,
		logger:     logger,
	}, nil
}

func (s *PromptService) storeLock(storeID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(storeID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *PromptService) ListPrompts(ctx context.Context, storeID uint) (*PromptList, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	prompts, err := s.promptRepo.FindByStoreID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	list := &PromptList{Prompts: prompts, MaxPrompts: s.maxPrompts}
	for i := range prompts {
		if prompts[i].IsActive {
			id := prompts[i].ID
			list.ActivePromptID = &id
			break
		}
	}
	return list, nil
}

// CreatePrompt adds a prompt version. The cap check and insert run as
// one unit under a per-store lock, so concurrent creates cannot both
// slip past the cap. The first prompt of a store becomes active.
func (s *PromptService) CreatePrompt(ctx context.Context, storeID uint, name, content string) (*domain.Prompt, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("prompt name cannot be empty")
	}

	mu := s.storeLock(storeID)
	mu.Lock()
	defer mu.Unlock()

	return s.promptRepo.CreateCapped(ctx, &domain.Prompt{
		StoreID: storeID,
		Name:    name,
		Content: content,
	}, s.maxPrompts)
}

// UpdatePrompt applies a partial update; nil fields keep their value.
func (s *PromptService) UpdatePrompt(ctx context.Context, promptID uint, name, content *string) (*domain.Prompt, error) {
	record, err := s.promptRepo.FindByID(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if _, err := s.storeRepo.FindByID(ctx, record.StoreID); err != nil {
		return nil, err
	}

	if name != nil {
		record.Name = *name
	}
	if content != nil {
		record.Content = *content
	}
	if err := s.promptRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeletePrompt removes a prompt. Deleting the active prompt leaves the
// store with no active prompt; no replacement is auto-selected, callers
// must surface the choice to the operator.
func (s *PromptService) DeletePrompt(ctx context.Context, promptID uint) error {
	record, err := s.promptRepo.FindByID(ctx, promptID)
	if err != nil {
		return err
	}

	mu := s.storeLock(record.StoreID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.promptRepo.Delete(ctx, promptID); err != nil {
		return err
	}
	if record.IsActive {
		s.logger.Warn("active prompt deleted, store has no active prompt",
			"store_id", record.StoreID, "prompt_id", promptID)
	}
	return nil
}

// SetActivePrompt atomically moves the active flag. Idempotent.
func (s *PromptService) SetActivePrompt(ctx context.Context, storeID, promptID uint) error {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return err
	}

	mu := s.storeLock(storeID)
	mu.Lock()
	defer mu.Unlock()

	return s.promptRepo.SetActive(ctx, storeID, promptID)
}

// ActivePrompt returns the store's active prompt, or nil when the store
// has none.
func (s *PromptService) ActivePrompt(ctx context.Context, storeID uint) (*domain.Prompt, error) {
	active, err := s.promptRepo.FindActiveByStoreID(ctx, storeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return active, nil
}
