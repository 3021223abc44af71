package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/askdeck/askdeck/internal/domain"
	apikeyrepo "github.com/askdeck/askdeck/internal/repository/apikey"
	filerepo "github.com/askdeck/askdeck/internal/repository/file"
	promptrepo "github.com/askdeck/askdeck/internal/repository/prompt"
	storerepo "github.com/askdeck/askdeck/internal/repository/store"
	"github.com/askdeck/askdeck/internal/services/engine"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Store{}, &domain.File{}, &domain.Prompt{}, &domain.ApiKey{}))
	return db
}

type testRepos struct {
	stores  storerepo.StoreRepository
	files   filerepo.FileRepository
	prompts promptrepo.PromptRepository
	apiKeys apikeyrepo.ApiKeyRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db := newTestDB(t)
	return testRepos{
		stores:  storerepo.NewStoreRepository(db),
		files:   filerepo.NewFileRepository(db),
		prompts: promptrepo.NewPromptRepository(db),
		apiKeys: apikeyrepo.NewApiKeyRepository(db),
	}
}

func seedStore(t *testing.T, repos testRepos, displayName string) *domain.Store {
	t.Helper()
	created, err := repos.stores.Create(context.Background(), &domain.Store{
		Name:        domain.NewStoreName(),
		DisplayName: displayName,
		ExternalID:  "ext-" + displayName,
	})
	require.NoError(t, err)
	return created
}

// fakeEngine is a controllable Engine for service tests. Zero value
// succeeds on everything.
type fakeEngine struct {
	provisionErr   error
	deprovisionErr error
	indexErr       error
	removeErr      error
	answerFn       func(ctx context.Context, externalStoreID, prompt, modelID string, history []engine.Turn) (string, error)

	provisioned   []string
	deprovisioned []string
	indexed       []string
	removed       []string
}

func (f *fakeEngine) ProvisionStore(ctx context.Context, displayName string) (string, error) {
	if f.provisionErr != nil {
		return "", f.provisionErr
	}
	id := "ext-" + displayName
	f.provisioned = append(f.provisioned, id)
	return id, nil
}

func (f *fakeEngine) DeprovisionStore(ctx context.Context, externalID string) error {
	if f.deprovisionErr != nil {
		return f.deprovisionErr
	}
	f.deprovisioned = append(f.deprovisioned, externalID)
	return nil
}

func (f *fakeEngine) IndexFile(ctx context.Context, externalStoreID string, content []byte, filename string) (string, error) {
	if f.indexErr != nil {
		return "", f.indexErr
	}
	id := "file-" + filename
	f.indexed = append(f.indexed, id)
	return id, nil
}

func (f *fakeEngine) RemoveFile(ctx context.Context, externalStoreID, externalFileID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, externalFileID)
	return nil
}

func (f *fakeEngine) GenerateAnswer(ctx context.Context, externalStoreID, prompt, modelID string, history []engine.Turn) (string, error) {
	if f.answerFn != nil {
		return f.answerFn(ctx, externalStoreID, prompt, modelID, history)
	}
	return "stub answer", nil
}

func (f *fakeEngine) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeEngine) GetStatus(ctx context.Context) engine.Status {
	return engine.Status{IsHealthy: true, Provider: "fake"}
}
