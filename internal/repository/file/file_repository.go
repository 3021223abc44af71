package file

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/askdeck/askdeck/internal/domain"
	"gorm.io/gorm"
)

type gormFileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &gormFileRepository{db: db}
}

func (r *gormFileRepository) Create(ctx context.Context, file *domain.File) (*domain.File, error) {
	if err := r.validateFileInput(file); err != nil {
		log.Printf("[FileRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		log.Printf("[FileRepository] Database error during file creation for store ID %d: %v", file.StoreID, err)
		return nil, errors.New("database error creating file")
	}

	log.Printf("[FileRepository] File created successfully with ID: %d for store: %d", file.ID, file.StoreID)
	return file, nil
}

func (r *gormFileRepository) FindByID(ctx context.Context, id uint) (*domain.File, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}

	var file domain.File
	err := r.db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		log.Printf("[FileRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &file, nil
}

func (r *gormFileRepository) FindByStoreID(ctx context.Context, storeID uint) ([]domain.File, error) {
	if storeID == 0 {
		return nil, domain.ErrNotFound
	}

	var files []domain.File
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC, id ASC").
		Find(&files).Error
	if err != nil {
		log.Printf("[FileRepository] Database error finding files for store ID %d: %v", storeID, err)
		return nil, errors.New("database error fetching files")
	}
	return files, nil
}

func (r *gormFileRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).Delete(&domain.File{}, id)
	if result.Error != nil {
		log.Printf("[FileRepository] Database error deleting file ID %d: %v", id, result.Error)
		return errors.New("database error deleting file")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *gormFileRepository) DeleteByStoreID(ctx context.Context, storeID uint) error {
	if storeID == 0 {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&domain.File{})
	if result.Error != nil {
		log.Printf("[FileRepository] Database error deleting files for store ID %d: %v", storeID, result.Error)
		return errors.New("database error deleting files")
	}

	log.Printf("[FileRepository] Deleted %d files for store %d", result.RowsAffected, storeID)
	return nil
}

func (r *gormFileRepository) validateFileInput(file *domain.File) error {
	if file == nil {
		return errors.New("file cannot be nil")
	}
	if file.StoreID == 0 {
		return errors.New("store ID is required")
	}
	if strings.TrimSpace(file.Name) == "" {
		return errors.New("file name is required")
	}
	return nil
}
