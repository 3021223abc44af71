package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/askdeck/askdeck/internal/domain"
	"gorm.io/gorm"
)

type gormStoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &gormStoreRepository{db: db}
}

func (r *gormStoreRepository) Create(ctx context.Context, store *domain.Store) (*domain.Store, error) {
	if err := r.validateStoreInput(store); err != nil {
		log.Printf("[StoreRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		log.Printf("[StoreRepository] Database error during store creation %q: %v", store.Name, err)
		return nil, errors.New("database error creating store")
	}

	log.Printf("[StoreRepository] Store created successfully with ID: %d name: %s", store.ID, store.Name)
	return store, nil
}

func (r *gormStoreRepository) FindByID(ctx context.Context, id uint) (*domain.Store, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}

	var store domain.Store
	err := r.db.WithContext(ctx).First(&store, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Printf("[StoreRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &store, nil
}

func (r *gormStoreRepository) FindAll(ctx context.Context) ([]domain.Store, error) {
	var stores []domain.Store
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&stores).Error
	if err != nil {
		log.Printf("[StoreRepository] Database error listing stores: %v", err)
		return nil, errors.New("database error fetching stores")
	}
	return stores, nil
}

func (r *gormStoreRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).Delete(&domain.Store{}, id)
	if result.Error != nil {
		log.Printf("[StoreRepository] Database error deleting store ID %d: %v", id, result.Error)
		return errors.New("database error deleting store")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	log.Printf("[StoreRepository] Store deleted successfully: ID %d", id)
	return nil
}

func (r *gormStoreRepository) validateStoreInput(store *domain.Store) error {
	if store == nil {
		return errors.New("store cannot be nil")
	}
	if strings.TrimSpace(store.Name) == "" {
		return errors.New("store name is required")
	}
	if strings.TrimSpace(store.DisplayName) == "" {
		return errors.New("store display name is required")
	}
	if len(store.DisplayName) > 200 {
		return errors.New("store display name must be 200 characters or less")
	}
	return nil
}
