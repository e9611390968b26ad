package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"scanstation/internal/config"
	"scanstation/internal/logger"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewLogger(&config.Config{LogDirectory: dir})

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session/capture" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/api/session", "/api/session/capture", "/static/app.js"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	info, err := os.ReadFile(filepath.Join(dir, logger.InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "GET /api/session -> 200")
	assert.NotContains(t, string(info), "/static/app.js")

	warning, err := os.ReadFile(filepath.Join(dir, logger.WarningFile))
	require.NoError(t, err)
	assert.Contains(t, string(warning), "GET /api/session/capture -> 409")
}
