package apikey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/askdeck/askdeck/internal/domain"
	"gorm.io/gorm"
)

type gormApiKeyRepository struct {
	db *gorm.DB
}

func NewApiKeyRepository(db *gorm.DB) ApiKeyRepository {
	return &gormApiKeyRepository{db: db}
}

func (r *gormApiKeyRepository) Create(ctx context.Context, key *domain.ApiKey) (*domain.ApiKey, error) {
	if err := r.validateKeyInput(key); err != nil {
		log.Printf("[ApiKeyRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		log.Printf("[ApiKeyRepository] Database error during key creation for store ID %d: %v", key.StoreID, err)
		return nil, errors.New("database error creating api key")
	}

	log.Printf("[ApiKeyRepository] Api key created successfully with ID: %d for store: %d", key.ID, key.StoreID)
	return key, nil
}

func (r *gormApiKeyRepository) FindByID(ctx context.Context, id uint) (*domain.ApiKey, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}

	var key domain.ApiKey
	err := r.db.WithContext(ctx).First(&key, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Printf("[ApiKeyRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &key, nil
}

// FindByFingerprint is the credential lookup path. A miss is reported as
// plain ErrNotFound; callers translate it into an undifferentiated
// unauthorized error.
func (r *gormApiKeyRepository) FindByFingerprint(ctx context.Context, fingerprint []byte) (*domain.ApiKey, error) {
	if len(fingerprint) == 0 {
		return nil, domain.ErrNotFound
	}

	var key domain.ApiKey
	err := r.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Printf("[ApiKeyRepository] FindByFingerprint database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &key, nil
}

func (r *gormApiKeyRepository) FindAll(ctx context.Context) ([]domain.ApiKey, error) {
	var keys []domain.ApiKey
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&keys).Error
	if err != nil {
		log.Printf("[ApiKeyRepository] Database error listing api keys: %v", err)
		return nil, errors.New("database error fetching api keys")
	}
	return keys, nil
}

func (r *gormApiKeyRepository) FindByStoreID(ctx context.Context, storeID uint) ([]domain.ApiKey, error) {
	if storeID == 0 {
		return nil, domain.ErrNotFound
	}

	var keys []domain.ApiKey
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC, id ASC").
		Find(&keys).Error
	if err != nil {
		log.Printf("[ApiKeyRepository] Database error finding keys for store ID %d: %v", storeID, err)
		return nil, errors.New("database error fetching api keys")
	}
	return keys, nil
}

func (r *gormApiKeyRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).Delete(&domain.ApiKey{}, id)
	if result.Error != nil {
		log.Printf("[ApiKeyRepository] Database error deleting api key ID %d: %v", id, result.Error)
		return errors.New("database error deleting api key")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	log.Printf("[ApiKeyRepository] Api key revoked: ID %d", id)
	return nil
}

func (r *gormApiKeyRepository) DeleteByStoreID(ctx context.Context, storeID uint) error {
	if storeID == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&domain.ApiKey{})
	if result.Error != nil {
		log.Printf("[ApiKeyRepository] Database error deleting keys for store ID %d: %v", storeID, result.Error)
		return errors.New("database error deleting api keys")
	}

	log.Printf("[ApiKeyRepository] Revoked %d api keys for store %d", result.RowsAffected, storeID)
	return nil
}

func (r *gormApiKeyRepository) validateKeyInput(key *domain.ApiKey) error {
	if key == nil {
		return errors.New("api key cannot be nil")
	}
	if key.StoreID == 0 {
		return errors.New("store ID is required")
	}
	if strings.TrimSpace(key.Name) == "" {
		return errors.New("api key name is required")
	}
	if len(key.KeyHash) == 0 || len(key.Fingerprint) == 0 {
		return errors.New("api key secret has not been set")
	}
	return nil
}
