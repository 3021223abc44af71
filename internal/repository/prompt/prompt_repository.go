package prompt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/askdeck/askdeck/internal/domain"
	"gorm.io/gorm"
)

type gormPromptRepository struct {
	db *gorm.DB
}

func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &gormPromptRepository{db: db}
}

// CreateCapped inserts a prompt only if the store is still under the cap.
// The count and the insert share one transaction; the first prompt of a
// store becomes active automatically.
func (r *gormPromptRepository) CreateCapped(ctx context.Context, prompt *domain.Prompt, maxPrompts int) (*domain.Prompt, error) {
	if err := r.validatePromptInput(prompt); err != nil {
		log.Printf("[PromptRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Prompt{}).
			Where("store_id = ?", prompt.StoreID).
			Count(&count).Error; err != nil {
			log.Printf("[PromptRepository] Database error counting prompts for store ID %d: %v", prompt.StoreID, err)
			return errors.New("database error counting prompts")
		}
		if count >= int64(maxPrompts) {
			return domain.ErrLimitExceeded
		}
		if count == 0 {
			prompt.IsActive = true
		}
		if err := tx.Create(prompt).Error; err != nil {
			log.Printf("[PromptRepository] Database error during prompt creation for store ID %d: %v", prompt.StoreID, err)
			return errors.New("database error creating prompt")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[PromptRepository] Prompt created successfully with ID: %d for store: %d active: %t",
		prompt.ID, prompt.StoreID, prompt.IsActive)
	return prompt, nil
}

func (r *gormPromptRepository) FindByID(ctx context.Context, id uint) (*domain.Prompt, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}

	var prompt domain.Prompt
	err := r.db.WithContext(ctx).First(&prompt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Printf("[PromptRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &prompt, nil
}

// FindByStoreID returns the store's prompts in creation order. Ordinal
// positions used for key pinning follow this ordering.
func (r *gormPromptRepository) FindByStoreID(ctx context.Context, storeID uint) ([]domain.Prompt, error) {
	if storeID == 0 {
		return nil, domain.ErrNotFound
	}

	var prompts []domain.Prompt
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC, id ASC").
		Find(&prompts).Error
	if err != nil {
		log.Printf("[PromptRepository] Database error finding prompts for store ID %d: %v", storeID, err)
		return nil, errors.New("database error fetching prompts")
	}
	return prompts, nil
}

func (r *gormPromptRepository) FindActiveByStoreID(ctx context.Context, storeID uint) (*domain.Prompt, error) {
	if storeID == 0 {
		return nil, domain.ErrNotFound
	}

	var prompt domain.Prompt
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND is_active = ?", storeID, true).
		First(&prompt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Printf("[PromptRepository] FindActiveByStoreID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &prompt, nil
}

func (r *gormPromptRepository) Update(ctx context.Context, prompt *domain.Prompt) error {
	if err := r.validatePromptInput(prompt); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Prompt{}).
		Where("id = ?", prompt.ID).
		Updates(map[string]interface{}{
			"name":    prompt.Name,
			"content": prompt.Content,
		})
	if result.Error != nil {
		log.Printf("[PromptRepository] Database error updating prompt ID %d: %v", prompt.ID, result.Error)
		return errors.New("database error updating prompt")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a prompt. Deleting the active prompt deliberately
// leaves the store with no active prompt; callers must select a new one.
func (r *gormPromptRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).Delete(&domain.Prompt{}, id)
	if result.Error != nil {
		log.Printf("[PromptRepository] Database error deleting prompt ID %d: %v", id, result.Error)
		return errors.New("database error deleting prompt")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *gormPromptRepository) DeleteByStoreID(ctx context.Context, storeID uint) error {
	if storeID == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&domain.Prompt{})
	if result.Error != nil {
		log.Printf("[PromptRepository] Database error deleting prompts for store ID %d: %v", storeID, result.Error)
		return errors.New("database error deleting prompts")
	}

	log.Printf("[PromptRepository] Deleted %d prompts for store %d", result.RowsAffected, storeID)
	return nil
}

// SetActive atomically clears the previous active flag and sets the new
// one. Idempotent: activating the already-active prompt changes nothing.
func (r *gormPromptRepository) SetActive(ctx context.Context, storeID, promptID uint) error {
	if storeID == 0 || promptID == 0 {
		return domain.ErrNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prompt domain.Prompt
		err := tx.Where("id = ? AND store_id = ?", promptID, storeID).First(&prompt).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			log.Printf("[PromptRepository] SetActive lookup error: %v", err)
			return errors.New("database query failed")
		}

		if err := tx.Model(&domain.Prompt{}).
			Where("store_id = ? AND is_active = ?", storeID, true).
			Update("is_active", false).Error; err != nil {
			log.Printf("[PromptRepository] SetActive clear error for store ID %d: %v", storeID, err)
			return errors.New("database error clearing active prompt")
		}

		if err := tx.Model(&domain.Prompt{}).
			Where("id = ?", promptID).
			Update("is_active", true).Error; err != nil {
			log.Printf("[PromptRepository] SetActive set error for prompt ID %d: %v", promptID, err)
			return errors.New("database error setting active prompt")
		}
		return nil
	})
}

func (r *gormPromptRepository) validatePromptInput(prompt *domain.Prompt) error {
	if prompt == nil {
		return errors.New("prompt cannot be nil")
	}
	if prompt.StoreID == 0 {
		return errors.New("store ID is required")
	}
	if strings.TrimSpace(prompt.Name) == "" {
		return errors.New("prompt name is required")
	}
	if len(prompt.Name) > 100 {
		return errors.New("prompt name must be 100 characters or less")
	}
	return nil
}
