package route

import (
	"net/http"
	"scanstation/internal/config"
	"scanstation/internal/handler"
	"scanstation/internal/logger"
	"scanstation/internal/middleware"
	"scanstation/internal/service/websocket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes registers static files, the session and catalog APIs, the
// viewer socket, log endpoints and the navigation pages.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, ctrl handler.SessionController,
	hub *websocket.HubService, products handler.Catalog) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", handler.ViewWebsocketHandler(hub, ctrl, logger))
		r.Get("/pages", handler.ListPagesHandler())

		r.Route("/session", func(r chi.Router) {
			r.Get("/", handler.GetSessionHandler(ctrl))
			r.Get("/image", handler.CapturedImageHandler(ctrl))
			r.Post("/activate", handler.ActivateHandler(ctrl, logger))
			r.Post("/deactivate", handler.DeactivateHandler(ctrl))
			r.Post("/mode", handler.SetModeHandler(ctrl, logger))
			r.Post("/capture", handler.CaptureHandler(ctrl))
			r.Post("/retake", handler.RetakeHandler(ctrl))
			r.Post("/submit", handler.SubmitHandler(ctrl, logger))
		})

		r.Post("/barcode/scan", handler.ScanBarcodeHandler(products, logger))
		r.Post("/barcode/confirm", handler.ConfirmBarcodeHandler(products, cfg.DefaultUserID, logger))
		r.Get("/products", handler.UserProductsHandler(products, cfg.DefaultUserID, logger))
	})

	// Log endpoints
	r.Get("/logs/{level}", handler.ShowLogsHandler(cfg.LogDirectory))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Navigation pages: / -> static/scan.html, /recipes -> static/recipes.html
	pages := handler.PageHandler(cfg.StaticDirectory)
	r.Get("/", pages)
	r.Get("/{page}", pages)

	return r
}
