package store

import (
	"context"

	"github.com/askdeck/askdeck/internal/domain"
)

// StoreRepository handles knowledge-base store records.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) (*domain.Store, error)
	FindByID(ctx context.Context, id uint) (*domain.Store, error)
	FindAll(ctx context.Context) ([]domain.Store, error)
	Delete(ctx context.Context, id uint) error
}
