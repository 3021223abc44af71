package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdeck/askdeck/internal/domain"
)

func newApiKeyService(t *testing.T, repos testRepos) *ApiKeyService {
	t.Helper()
	svc, err := NewApiKeyService(repos.apiKeys, repos.prompts, repos.stores, &NoOpLogger{})
	require.NoError(t, err)
	return svc
}

func TestCreateApiKeyReturnsSecretOnce(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	created, err := svc.CreateApiKey(ctx, "ci", store.ID, nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(created.Key, domain.ApiKeySecretPrefix))
	require.Equal(t, created.Key[:len(created.Record.KeyPrefix)], created.Record.KeyPrefix)
	require.NotContains(t, string(created.Record.KeyHash), created.Key)

	// The listing never carries the secret, only metadata.
	keys, err := svc.ListApiKeys(ctx, &store.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, "ci", keys[0].Name)
	require.NotEmpty(t, keys[0].KeyPrefix)
}

func TestCreateApiKeyUnknownStore(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)

	_, err := svc.CreateApiKey(context.Background(), "ci", 42, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveApiKey(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	prompts := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	active, err := prompts.CreatePrompt(ctx, store.ID, "tone", "Be concise.")
	require.NoError(t, err)

	created, err := svc.CreateApiKey(ctx, "ci", store.ID, nil)
	require.NoError(t, err)

	scope, err := svc.Resolve(ctx, created.Key)
	require.NoError(t, err)
	require.Equal(t, created.Record.ID, scope.KeyID)
	require.Equal(t, store.ID, scope.StoreID)
	require.False(t, scope.PromptPinned)
	require.False(t, scope.FallbackUsed)
	require.Equal(t, active.Content, scope.PromptContent)
}

func TestResolveRejectsBadCredentials(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	created, err := svc.CreateApiKey(ctx, "ci", store.ID, nil)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, "not-a-key")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Resolve(ctx, domain.ApiKeySecretPrefix+strings.Repeat("0", 64))
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// A deleted key stops authenticating immediately.
	require.NoError(t, svc.DeleteApiKey(ctx, created.Record.ID))
	_, err = svc.Resolve(ctx, created.Key)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolvePinnedPrompt(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	prompts := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	_, err := prompts.CreatePrompt(ctx, store.ID, "first", "active content")
	require.NoError(t, err)
	pinned, err := prompts.CreatePrompt(ctx, store.ID, "second", "pinned content")
	require.NoError(t, err)

	idx := 1
	created, err := svc.CreateApiKey(ctx, "ci", store.ID, &idx)
	require.NoError(t, err)
	require.NotNil(t, created.Record.PromptID)
	require.Equal(t, pinned.ID, *created.Record.PromptID)

	scope, err := svc.Resolve(ctx, created.Key)
	require.NoError(t, err)
	require.True(t, scope.PromptPinned)
	require.False(t, scope.FallbackUsed)
	require.Equal(t, "pinned content", scope.PromptContent)
}

func TestResolveFallsBackWhenPinnedPromptDeleted(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	prompts := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	_, err := prompts.CreatePrompt(ctx, store.ID, "first", "active content")
	require.NoError(t, err)
	pinned, err := prompts.CreatePrompt(ctx, store.ID, "second", "pinned content")
	require.NoError(t, err)

	idx := 1
	created, err := svc.CreateApiKey(ctx, "ci", store.ID, &idx)
	require.NoError(t, err)

	require.NoError(t, prompts.DeletePrompt(ctx, pinned.ID))

	scope, err := svc.Resolve(ctx, created.Key)
	require.NoError(t, err)
	require.True(t, scope.PromptPinned)
	require.True(t, scope.FallbackUsed)
	require.Equal(t, "active content", scope.PromptContent)
}

func TestResolveFallbackWithoutActivePrompt(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	created, err := svc.CreateApiKey(ctx, "ci", store.ID, nil)
	require.NoError(t, err)

	scope, err := svc.Resolve(ctx, created.Key)
	require.NoError(t, err)
	require.Empty(t, scope.PromptContent)
	require.False(t, scope.FallbackUsed)
}

func TestCreateApiKeyOutOfRangeIndexPinsNothing(t *testing.T) {
	repos := newTestRepos(t)
	svc := newApiKeyService(t, repos)
	prompts := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	_, err := prompts.CreatePrompt(ctx, store.ID, "only", "active content")
	require.NoError(t, err)

	idx := 7
	created, err := svc.CreateApiKey(ctx, "ci", store.ID, &idx)
	require.NoError(t, err)
	require.Nil(t, created.Record.PromptID)

	scope, err := svc.Resolve(ctx, created.Key)
	require.NoError(t, err)
	require.False(t, scope.PromptPinned)
	require.Equal(t, "active content", scope.PromptContent)
}
