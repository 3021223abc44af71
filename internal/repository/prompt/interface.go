package prompt

import (
	"context"

	"github.com/askdeck/askdeck/internal/domain"
)

// PromptRepository handles per-store prompt versions.
//
// CreateCapped and SetActive run inside transactions so the prompt cap
// and the single-active invariant hold even under concurrent callers.
type PromptRepository interface {
	CreateCapped(ctx context.Context, prompt *domain.Prompt, maxPrompts int) (*domain.Prompt, error)
	FindByID(ctx context.Context, id uint) (*domain.Prompt, error)
	FindByStoreID(ctx context.Context, storeID uint) ([]domain.Prompt, error)
	FindActiveByStoreID(ctx context.Context, storeID uint) (*domain.Prompt, error)
	Update(ctx context.Context, prompt *domain.Prompt) error
	Delete(ctx context.Context, id uint) error
	DeleteByStoreID(ctx context.Context, storeID uint) error
	SetActive(ctx context.Context, storeID, promptID uint) error
}
