package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.html"), []byte("<h1>Scan</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipes.html"), []byte("<h1>Recipes</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.html"), []byte("nope"), 0644))
	h := PageHandler(dir)

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "<h1>Scan</h1>"},
		{"/recipes", http.StatusOK, "<h1>Recipes</h1>"},
		{"/donate", http.StatusNotFound, ""},
		{"/secret", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, tc.path)
		if tc.body != "" {
			assert.Equal(t, tc.body, rec.Body.String())
		}
	}
}

func TestListPagesHandler_ScanIsDefault(t *testing.T) {
	rec := httptest.NewRecorder()
	ListPagesHandler()(rec, httptest.NewRequest(http.MethodGet, "/api/pages", nil))

	var pages []Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
	require.Len(t, pages, 5)
	assert.Equal(t, "scan", pages[0].Name)
	assert.Equal(t, "/", pages[0].Path)
}
