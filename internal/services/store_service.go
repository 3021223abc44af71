package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/repository/apikey"
	"github.com/askdeck/askdeck/internal/repository/file"
	"github.com/askdeck/askdeck/internal/repository/prompt"
	"github.com/askdeck/askdeck/internal/repository/store"
	"github.com/askdeck/askdeck/internal/services/engine"
)

// StoreService owns knowledge-base lifecycle: provisioning against the
// external engine, the local record, owned files, and the cascade that
// tears everything down.
type StoreService struct {
	storeRepo  store.StoreRepository
	fileRepo   file.FileRepository
	promptRepo prompt.PromptRepository
	apiKeyRepo apikey.ApiKeyRepository
	sessions   *SessionService
	engine     engine.Engine
	logger     Logger
}

func NewStoreService(
	storeRepo store.StoreRepository,
	fileRepo file.FileRepository,
	promptRepo prompt.PromptRepository,
	apiKeyRepo apikey.ApiKeyRepository,
	sessions *SessionService,
	eng engine.Engine,
	logger Logger,
) (*StoreService, error) {
	if storeRepo == nil || fileRepo == nil || promptRepo == nil || apiKeyRepo == nil {
		return nil, errors.New("store service: all repositories are required")
	}
	if sessions == nil {
		return nil, errors.New("store service: session service is required")
	}
	if eng == nil {
		return nil, errors.New("store service: engine is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	return &StoreService{
		storeRepo:  storeRepo,
		fileRepo:   fileRepo,
		promptRepo: promptRepo,
		apiKeyRepo: apiKeyRepo,
		sessions:   sessions,
		engine:     eng,
		logger:     logger,
	}, nil
}

// CreateStore provisions a backing knowledge base and persists the
// record. If persistence fails the remote store is deprovisioned again
// so local and remote state never disagree past this call.
func (s *StoreService) CreateStore(ctx context.Context, displayName string) (*domain.Store, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.New("display name cannot be empty")
	}

	externalID, err := s.engine.ProvisionStore(ctx, displayName)
	if err != nil {
		return nil, fmt.Errorf("provisioning failed: %w", err)
	}

	record := &domain.Store{
		Name:        domain.NewStoreName(),
		DisplayName: displayName,
		ExternalID:  externalID,
	}
	created, err := s.storeRepo.Create(ctx, record)
	if err != nil {
		if rbErr := s.engine.DeprovisionStore(ctx, externalID); rbErr != nil {
			s.logger.Error("rollback deprovision failed, remote store orphaned",
				"external_id", externalID, "error", rbErr)
		}
		return nil, err
	}

	s.logger.Info("store created", "store_id", created.ID, "name", created.Name)
	return created, nil
}

// DeleteStore deprovisions the external knowledge base, then cascades
// local deletion in fixed order: files, prompts, api keys, session.
// If deprovisioning fails the local record is retained and the caller
// is expected to retry the same call; every step is safe to repeat.
func (s *StoreService) DeleteStore(ctx context.Context, storeID uint) error {
	record, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return err
	}

	if err := s.engine.DeprovisionStore(ctx, record.ExternalID); err != nil {
		return fmt.Errorf("deprovisioning failed, store retained: %w", err)
	}

	if err := s.fileRepo.DeleteByStoreID(ctx, storeID); err != nil {
		return err
	}
	if err := s.promptRepo.DeleteByStoreID(ctx, storeID); err != nil {
		return err
	}
	if err := s.apiKeyRepo.DeleteByStoreID(ctx, storeID); err != nil {
		return err
	}
	s.sessions.TerminateForStore(storeID)

	if err := s.storeRepo.Delete(ctx, storeID); err != nil {
		return err
	}

	s.logger.Info("store deleted", "store_id", storeID, "name", record.Name)
	return nil
}

func (s *StoreService) ListStores(ctx context.Context) ([]domain.Store, error) {
	return s.storeRepo.FindAll(ctx)
}

func (s *StoreService) GetStore(ctx context.Context, storeID uint) (*domain.Store, error) {
	return s.storeRepo.FindByID(ctx, storeID)
}

// UploadFile indexes a document with the external engine and mirrors it
// locally. Upload keeps the caller's filename so the engine can detect
// the content type.
func (s *StoreService) UploadFile(ctx context.Context, storeID uint, content []byte, filename string) (*domain.File, error) {
	record, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("filename cannot be empty")
	}

	externalFileID, err := s.engine.IndexFile(ctx, record.ExternalID, content, filename)
	if err != nil {
		var engErr *engine.EngineError
		if errors.As(err, &engErr) && engErr.Type == engine.ErrTypeFormat {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filename)
		}
		return nil, fmt.Errorf("indexing failed: %w", err)
	}

	mirrored, err := s.fileRepo.Create(ctx, &domain.File{
		StoreID:     storeID,
		Name:        externalFileID,
		DisplayName: filename,
		Status:      domain.FileStatusIndexed,
	})
	if err != nil {
		if rbErr := s.engine.RemoveFile(ctx, record.ExternalID, externalFileID); rbErr != nil {
			s.logger.Error("rollback remove failed, remote file orphaned",
				"external_file_id", externalFileID, "error", rbErr)
		}
		return nil, err
	}
	return mirrored, nil
}

func (s *StoreService) ListFiles(ctx context.Context, storeID uint) ([]domain.File, error) {
	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		return nil, err
	}
	return s.fileRepo.FindByStoreID(ctx, storeID)
}

// DeleteFile removes the document from the engine first, then the local
// mirror. Immediate and irreversible.
func (s *StoreService) DeleteFile(ctx context.Context, fileID uint) error {
	record, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return err
	}
	owner, err := s.storeRepo.FindByID(ctx, record.StoreID)
	if err != nil {
		return err
	}

	if err := s.engine.RemoveFile(ctx, owner.ExternalID, record.Name); err != nil {
		return fmt.Errorf("engine removal failed: %w", err)
	}
	return s.fileRepo.Delete(ctx, fileID)
}
