package route

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"scanstation/internal/config"
	"scanstation/internal/logger"
	"scanstation/internal/service/websocket"
	"scanstation/internal/session"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "scan.html"), []byte("scan page"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log(1)"), 0644))

	cfg := &config.Config{
		LogDirectory:    t.TempDir(),
		StaticDirectory: static,
		DefaultUserID:   "local",
	}
	log := logger.NewDiscard()
	ctrl := session.New(session.Deps{Logger: log}, session.Options{})

	return SetupRoutes(cfg, log, ctrl, websocket.NewHubService(log), nil)
}

func TestRoutes_SessionState(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "idle", st["mode"])
	assert.Equal(t, false, st["active"])
}

func TestRoutes_CaptureWithoutCamera(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/capture", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRoutes_PagesAndStatic(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/static/app.js", http.StatusOK},
		{http.MethodGet, "/api/pages", http.StatusOK},
		{http.MethodGet, "/notifications", http.StatusNotFound},
		{http.MethodGet, "/api/session/capture", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, tc.path)
	}
}
