package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdeck/askdeck/internal/domain"
	"github.com/askdeck/askdeck/internal/services"
	"github.com/askdeck/askdeck/internal/services/engine"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"limit exceeded", domain.ErrLimitExceeded, http.StatusConflict},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"unsupported format", domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{"no session", domain.ErrNoActiveSession, http.StatusBadRequest},
		{"superseded", domain.ErrSessionSuperseded, http.StatusConflict},
		{"rate limited provider", &engine.EngineError{Type: engine.ErrTypeRateLimit, Message: "slow down"}, http.StatusTooManyRequests},
		{"quota exhausted", &engine.EngineError{Type: engine.ErrTypeQuota, Message: "quota"}, http.StatusTooManyRequests},
		{"provider failure", &engine.EngineError{Type: engine.ErrTypeProvider, Message: "boom"}, http.StatusBadGateway},
		{"unknown", assertErr("weird"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["error"])
		})
	}
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestResolveStoreForKeyScope(t *testing.T) {
	keyStore := uint(7)
	scope := &services.Scope{StoreID: &keyStore}

	// Implied store.
	got, err := resolveStore(scope, 0)
	require.NoError(t, err)
	require.Equal(t, keyStore, got)

	// Matching explicit store.
	got, err = resolveStore(scope, 7)
	require.NoError(t, err)
	require.Equal(t, keyStore, got)

	// A foreign store is refused without existence disclosure.
	_, err = resolveStore(scope, 8)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolveStoreForPrimaryScope(t *testing.T) {
	scope := &services.Scope{Primary: true}

	got, err := resolveStore(scope, 3)
	require.NoError(t, err)
	require.Equal(t, uint(3), got)

	_, err = resolveStore(scope, 0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenderMarkdown(t *testing.T) {
	html := renderMarkdown("**bold** answer")
	require.Contains(t, html, "<strong>bold</strong>")
}
