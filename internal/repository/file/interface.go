package file

import (
	"context"

	"github.com/askdeck/askdeck/internal/domain"
)

// FileRepository mirrors the files the external engine holds per store.
type FileRepository interface {
	Create(ctx context.Context, file *domain.File) (*domain.File, error)
	FindByID(ctx context.Context, id uint) (*domain.File, error)
	FindByStoreID(ctx context.Context, storeID uint) ([]domain.File, error)
	Delete(ctx context.Context, id uint) error
	DeleteByStoreID(ctx context.Context, storeID uint) error
}
