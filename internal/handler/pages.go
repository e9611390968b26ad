package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Page is one screen of the station UI.
type Page struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Pages lists the navigation screens; the first one is served on "/".
var Pages = []Page{
	{Name: "scan", Title: "Scan", Path: "/"},
	{Name: "notifications", Title: "Notifications", Path: "/notifications"},
	{Name: "recipes", Title: "Recipes", Path: "/recipes"},
	{Name: "recycle", Title: "Recycle", Path: "/recycle"},
	{Name: "donate", Title: "Donate", Path: "/donate"},
}

// ListPagesHandler returns the navigation screens.
func ListPagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Pages)
	}
}

// PageHandler serves /name as {staticDir}/name.html for known pages; "/"
// serves the scan page.
func PageHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := findPage(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		filePath := filepath.Join(staticDir, page.Name+".html")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

func findPage(path string) (Page, bool) {
	if path == "" || path == "/" {
		return Pages[0], true
	}
	name := strings.Trim(path, "/")
	for _, p := range Pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}
