package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/askdeck/askdeck/internal/domain"
	apikeyrepo "github.com/askdeck/askdeck/internal/repository/apikey"
	promptrepo "github.com/askdeck/askdeck/internal/repository/prompt"
	storerepo "github.com/askdeck/askdeck/internal/repository/store"
	"github.com/askdeck/askdeck/internal/services"
)

func newAccessStack(t *testing.T) (*services.AccessService, *services.ApiKeyService, storerepo.StoreRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Store{}, &domain.Prompt{}, &domain.ApiKey{}))

	stores := storerepo.NewStoreRepository(db)
	apiKeys, err := services.NewApiKeyService(apikeyrepo.NewApiKeyRepository(db), promptrepo.NewPromptRepository(db), stores, nil)
	require.NoError(t, err)
	access, err := services.NewAccessService(apiKeys, []byte("test-secret"), "admin-secret", time.Hour, nil)
	require.NoError(t, err)
	return access, apiKeys, stores
}

func scopeEcho(t *testing.T, captured **services.Scope) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = ScopeFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	access, _, _ := newAccessStack(t)

	token, err := access.IssueToken("ops", "admin-secret")
	require.NoError(t, err)

	var scope *services.Scope
	handler := NewAuthMiddleware(access)(scopeEcho(t, &scope))

	r := httptest.NewRequest("GET", "/api/stores", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, scope)
	require.True(t, scope.Primary)
	require.Equal(t, "user:ops", scope.Principal)
}

func TestAuthMiddlewareApiKeyHeader(t *testing.T) {
	access, apiKeys, stores := newAccessStack(t)

	store, err := stores.Create(context.Background(), &domain.Store{
		Name:        domain.NewStoreName(),
		DisplayName: "docs",
		ExternalID:  "ext-docs",
	})
	require.NoError(t, err)

	created, err := apiKeys.CreateApiKey(context.Background(), "ci", store.ID, nil)
	require.NoError(t, err)

	var scope *services.Scope
	handler := NewAuthMiddleware(access)(scopeEcho(t, &scope))

	r := httptest.NewRequest("POST", "/api/chat/start", nil)
	r.Header.Set("X-API-Key", created.Key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, scope)
	require.False(t, scope.Primary)
	require.Equal(t, store.ID, *scope.StoreID)
}

func TestAuthMiddlewareRejectsMissingCredential(t *testing.T) {
	access, _, _ := newAccessStack(t)

	handler := NewAuthMiddleware(access)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/api/stores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePrimaryBlocksKeyScopes(t *testing.T) {
	access, apiKeys, stores := newAccessStack(t)

	store, err := stores.Create(context.Background(), &domain.Store{
		Name:        domain.NewStoreName(),
		DisplayName: "docs",
		ExternalID:  "ext-docs",
	})
	require.NoError(t, err)
	created, err := apiKeys.CreateApiKey(context.Background(), "ci", store.ID, nil)
	require.NoError(t, err)

	handler := NewAuthMiddleware(access)(RequirePrimary(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	r := httptest.NewRequest("DELETE", "/api/stores/1", nil)
	r.Header.Set("X-API-Key", created.Key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := access.IssueToken("ops", "admin-secret")
	require.NoError(t, err)
	r = httptest.NewRequest("DELETE", "/api/stores/1", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
}
