package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdeck/askdeck/internal/domain"
)

func newPromptService(t *testing.T, repos testRepos) *PromptService {
	t.Helper()
	svc, err := NewPromptService(repos.prompts, repos.stores, DefaultMaxPrompts, &NoOpLogger{})
	require.NoError(t, err)
	return svc
}

func TestCreatePromptFirstBecomesActive(t *testing.T) {
	repos := newTestRepos(t)
	svc := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	first, err := svc.CreatePrompt(ctx, store.ID, "tone", "Be concise.")
	require.NoError(t, err)
	require.True(t, first.IsActive)

	second, err := svc.CreatePrompt(ctx, store.ID, "verbose", "Be thorough.")
	require.NoError(t, err)
	require.False(t, second.IsActive)

	list, err := svc.ListPrompts(ctx, store.ID)
	require.NoError(t, err)
	require.Len(t, list.Prompts, 2)
	require.NotNil(t, list.ActivePromptID)
	require.Equal(t, first.ID, *list.ActivePromptID)
}

func TestCreatePromptEnforcesCap(t *testing.T) {
	repos := newTestRepos(t)
	svc := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c"} {
		_, err := svc.CreatePrompt(ctx, store.ID, name, "content")
		require.NoError(t, err, "prompt %d", i)
	}

	_, err := svc.CreatePrompt(ctx, store.ID, "d", "content")
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	// Deleting one frees a slot.
	list, err := svc.ListPrompts(ctx, store.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeletePrompt(ctx, list.Prompts[2].ID))

	_, err = svc.CreatePrompt(ctx, store.ID, "d", "content")
	require.NoError(t, err)
}

func TestSetActivePromptSwitchesExactlyOne(t *testing.T) {
	repos := newTestRepos(t)
	svc := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	first, err := svc.CreatePrompt(ctx, store.ID, "a", "one")
	require.NoError(t, err)
	second, err := svc.CreatePrompt(ctx, store.ID, "b", "two")
	require.NoError(t, err)

	require.NoError(t, svc.SetActivePrompt(ctx, store.ID, second.ID))

	list, err := svc.ListPrompts(ctx, store.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, *list.ActivePromptID)

	activeCount := 0
	for _, p := range list.Prompts {
		if p.IsActive {
			activeCount++
		}
	}
	require.Equal(t, 1, activeCount)

	// Activating the already-active prompt is a no-op.
	require.NoError(t, svc.SetActivePrompt(ctx, store.ID, second.ID))

	// A prompt from another store cannot be activated here.
	other := seedStore(t, repos, "other")
	foreign, err := svc.CreatePrompt(ctx, other.ID, "x", "y")
	require.NoError(t, err)
	require.ErrorIs(t, svc.SetActivePrompt(ctx, store.ID, foreign.ID), domain.ErrNotFound)

	reloaded, err := svc.ListPrompts(ctx, store.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, *reloaded.ActivePromptID)
	require.Equal(t, first.ID, reloaded.Prompts[0].ID)
	require.False(t, reloaded.Prompts[0].IsActive)
}

func TestDeleteActivePromptLeavesNoneActive(t *testing.T) {
	repos := newTestRepos(t)
	svc := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	active, err := svc.CreatePrompt(ctx, store.ID, "a", "one")
	require.NoError(t, err)
	_, err = svc.CreatePrompt(ctx, store.ID, "b", "two")
	require.NoError(t, err)

	require.NoError(t, svc.DeletePrompt(ctx, active.ID))

	current, err := svc.ActivePrompt(ctx, store.ID)
	require.NoError(t, err)
	require.Nil(t, current)

	list, err := svc.ListPrompts(ctx, store.ID)
	require.NoError(t, err)
	require.Nil(t, list.ActivePromptID)
}

func TestUpdatePromptPartial(t *testing.T) {
	repos := newTestRepos(t)
	svc := newPromptService(t, repos)
	store := seedStore(t, repos, "docs")
	ctx := context.Background()

	created, err := svc.CreatePrompt(ctx, store.ID, "a", "one")
	require.NoError(t, err)

	newContent := "updated"
	updated, err := svc.UpdatePrompt(ctx, created.ID, nil, &newContent)
	require.NoError(t, err)
	require.Equal(t, "a", updated.Name)
	require.Equal(t, "updated", updated.Content)

	_, err = svc.UpdatePrompt(ctx, 9999, nil, &newContent)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPromptsUnknownStore(t *testing.T) {
	repos := newTestRepos(t)
	svc := newPromptService(t, repos)

	_, err := svc.ListPrompts(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
