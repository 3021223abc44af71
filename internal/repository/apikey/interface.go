package apikey

import (
	"context"

	"github.com/askdeck/askdeck/internal/domain"
)

// ApiKeyRepository persists scoped API key records. It never sees
// plaintext secrets; callers hand it hashed records only.
type ApiKeyRepository interface {
	Create(ctx context.Context, key *domain.ApiKey) (*domain.ApiKey, error)
	FindByID(ctx context.Context, id uint) (*domain.ApiKey, error)
	FindByFingerprint(ctx context.Context, fingerprint []byte) (*domain.ApiKey, error)
	FindAll(ctx context.Context) ([]domain.ApiKey, error)
	FindByStoreID(ctx context.Context, storeID uint) ([]domain.ApiKey, error)
	Delete(ctx context.Context, id uint) error
	DeleteByStoreID(ctx context.Context, storeID uint) error
}
