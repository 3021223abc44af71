package prompt

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/askdeck/askdeck/internal/domain"
)

func newTestRepo(t *testing.T) PromptRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Prompt{}))
	return NewPromptRepository(db)
}

func TestCreateCappedCountsPerStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "p", Content: "c"}, 3)
		require.NoError(t, err)
	}

	_, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "p4", Content: "c"}, 3)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	// Another store has its own budget.
	_, err = repo.CreateCapped(ctx, &domain.Prompt{StoreID: 2, Name: "q", Content: "c"}, 3)
	require.NoError(t, err)
}

func TestCreateCappedFirstIsActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "a", Content: "c"}, 3)
	require.NoError(t, err)
	require.True(t, first.IsActive)

	second, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "b", Content: "c"}, 3)
	require.NoError(t, err)
	require.False(t, second.IsActive)

	active, err := repo.FindActiveByStoreID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first.ID, active.ID)
}

func TestSetActiveMovesFlag(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "a", Content: "c"}, 3)
	require.NoError(t, err)
	second, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "b", Content: "c"}, 3)
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, 1, second.ID))

	prompts, err := repo.FindByStoreID(ctx, 1)
	require.NoError(t, err)
	for _, p := range prompts {
		require.Equal(t, p.ID == second.ID, p.IsActive)
	}

	// Unknown or foreign prompt ids do not disturb the current flag.
	require.ErrorIs(t, repo.SetActive(ctx, 1, 999), domain.ErrNotFound)
	require.ErrorIs(t, repo.SetActive(ctx, 2, first.ID), domain.ErrNotFound)

	active, err := repo.FindActiveByStoreID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)
}

func TestFindByStoreIDCreationOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	names := []string{"first", "second", "third"}
	for _, name := range names {
		_, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: name, Content: "c"}, 3)
		require.NoError(t, err)
	}

	prompts, err := repo.FindByStoreID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, prompts, 3)
	for i, p := range prompts {
		require.Equal(t, names[i], p.Name)
	}
}

func TestDeleteByStoreID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "a", Content: "c"}, 3)
	require.NoError(t, err)
	keep, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 2, Name: "b", Content: "c"}, 3)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByStoreID(ctx, 1))

	gone, err := repo.FindByStoreID(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, gone)

	_, err = repo.FindByID(ctx, keep.ID)
	require.NoError(t, err)
}

func TestCreateCappedValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateCapped(ctx, &domain.Prompt{StoreID: 0, Name: "a"}, 3)
	require.Error(t, err)

	_, err = repo.CreateCapped(ctx, &domain.Prompt{StoreID: 1, Name: "   "}, 3)
	require.Error(t, err)
}
