package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"scanstation/internal/config"
	"scanstation/internal/logger"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logsRouter(log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Get("/logs/{level}", ShowLogsHandler(log.Directory()))
	r.Post("/logs/{level}/clear", ClearLogsHandler(log))
	return r
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewLogger(&config.Config{LogDirectory: dir})
	log.Warning("camera %d missing", 1)
	router := logsRouter(log)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/warning", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "camera 1 missing")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	data, err := os.ReadFile(filepath.Join(dir, logger.WarningFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLogsHandlers_UnknownLevel(t *testing.T) {
	router := logsRouter(logger.NewLogger(&config.Config{LogDirectory: t.TempDir()}))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/logs/debug"},
		{http.MethodPost, "/logs/debug/clear"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
	}
}
