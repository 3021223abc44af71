package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/services/engine"
)

func newStoreStack(t *testing.T, eng *fakeEngine) (testRepos, *StoreService, *SessionService) {
	t.Helper()
	repos := newTestRepos(t)
	prompts := newPromptService(t, repos)
	sessions, err := NewSessionService(repos.stores, prompts, eng, "test-model", &NoOpLogger{})
	require.NoError(t, err)
	stores, err := NewStoreService(repos.stores, repos.files, repos.prompts, repos.apiKeys, sessions, eng, &NoOpLogger{})
	require.NoError(t, err)
	return repos, stores, sessions
}

func TestCreateStoreProvisionsExternally(t *testing.T) {
	eng := &fakeEngine{}
	_, stores, _ := newStoreStack(t, eng)
	ctx := context.Background()

	created, err := stores.CreateStore(ctx, "handbook")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "handbook", created.DisplayName)
	require.Equal(t, "ext-handbook", created.ExternalID)
	require.Contains(t, created.Name, "kb-")

	listed, err := stores.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestCreateStoreProvisioningFailure(t *testing.T) {
	eng := &fakeEngine{provisionErr: engine.NewProviderError("create_store", "boom", nil)}
	_, stores, _ := newStoreStack(t, eng)

	_, err := stores.CreateStore(context.Background(), "handbook")
	require.Error(t, err)

	// Nothing was persisted.
	listed, err := stores.ListStores(context.Background())
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestDeleteStoreCascades(t *testing.T) {
	eng := &fakeEngine{}
	repos, stores, sessions := newStoreStack(t, eng)
	prompts := newPromptService(t, repos)
	apiKeys := newApiKeyService(t, repos)
	ctx := context.Background()

	created, err := stores.CreateStore(ctx, "handbook")
	require.NoError(t, err)

	_, err = stores.UploadFile(ctx, created.ID, []byte("content"), "guide.txt")
	require.NoError(t, err)
	_, err = prompts.CreatePrompt(ctx, created.ID, "tone", "Be concise.")
	require.NoError(t, err)
	key, err := apiKeys.CreateApiKey(ctx, "ci", created.ID, nil)
	require.NoError(t, err)
	_, err = sessions.StartChat(ctx, "user:alice", created.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, stores.DeleteStore(ctx, created.ID))
	require.Equal(t, []string{created.ExternalID}, eng.deprovisioned)

	_, err = stores.GetStore(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	files, err := repos.files.FindByStoreID(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, files)

	remaining, err := repos.prompts.FindByStoreID(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	_, err = apiKeys.Resolve(ctx, key.Key)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = prompts.ListPrompts(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = apiKeys.ListApiKeys(ctx, &created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = sessions.GetHistory("user:alice")
	require.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestDeleteStoreRetainedOnDeprovisionFailure(t *testing.T) {
	eng := &fakeEngine{}
	_, stores, _ := newStoreStack(t, eng)
	ctx := context.Background()

	created, err := stores.CreateStore(ctx, "handbook")
	require.NoError(t, err)

	eng.deprovisionErr = engine.NewProviderError("delete_store", "upstream down", nil)
	require.Error(t, stores.DeleteStore(ctx, created.ID))

	// The record survives so the operation can be retried.
	_, err = stores.GetStore(ctx, created.ID)
	require.NoError(t, err)

	eng.deprovisionErr = nil
	require.NoError(t, stores.DeleteStore(ctx, created.ID))
}

func TestDeleteUnknownStore(t *testing.T) {
	eng := &fakeEngine{}
	_, stores, _ := newStoreStack(t, eng)

	err := stores.DeleteStore(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, eng.deprovisioned)
}

func TestUploadFileMirrorsRecord(t *testing.T) {
	eng := &fakeEngine{}
	_, stores, _ := newStoreStack(t, eng)
	ctx := context.Background()

	created, err := stores.CreateStore(ctx, "handbook")
	require.NoError(t, err)

	uploaded, err := stores.UploadFile(ctx, created.ID, []byte("content"), "guide.txt")
	require.NoError(t, err)
	require.Equal(t, "file-guide.txt", uploaded.Name)
	require.Equal(t, "guide.txt", uploaded.DisplayName)
	require.Equal(t, domain.FileStatusIndexed, uploaded.Status)

	files, err := stores.ListFiles(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestUploadFileUnsupportedFormat(t *testing.T) {
	eng := &fakeEngine{indexErr: engine.NewFormatError("index_file", "unsupported content type", nil)}
	_, stores, _ := newStoreStack(t, eng)
	ctx := context.Background()

	created, err := stores.CreateStore(ctx, "handbook")
	require.NoError(t, err)

	_, err = stores.UploadFile(ctx, created.ID, []byte{0xff, 0xfe}, "binary.bin")
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	files, err := stores.ListFiles(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestDeleteFileEngineFirst(t *testing.T) {
	eng := &fakeEngine{}
	_, stores, _ := newStoreStack(t, eng)
	ctx := context.Background()

	created, err := stores.CreateStore(ctx, "handbook")
	require.NoError(t, err)
	uploaded, err := stores.UploadFile(ctx, created.ID, []byte("content"), "guide.txt")
	require.NoError(t, err)

	// When the engine refuses, the local mirror must survive.
	eng.removeErr = engine.NewProviderError("remove_file", "upstream down", nil)
	require.Error(t, stores.DeleteFile(ctx, uploaded.ID))
	files, err := stores.ListFiles(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	eng.removeErr = nil
	require.NoError(t, stores.DeleteFile(ctx, uploaded.ID))
	require.Equal(t, []string{uploaded.Name}, eng.removed)

	files, err = stores.ListFiles(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, files)

	require.True(t, errors.Is(stores.DeleteFile(ctx, uploaded.ID), domain.ErrNotFound))
}
