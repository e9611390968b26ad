package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"scanstation/internal/config"
	"scanstation/internal/logger"
	"scanstation/internal/repository/sqlite"
	"scanstation/internal/route"
	"scanstation/internal/service"
	"scanstation/internal/service/barcode"
	"scanstation/internal/service/camera"
	"scanstation/internal/service/camera/opencv"
	"scanstation/internal/service/camera/udp"
	"scanstation/internal/service/catalog"
	"scanstation/internal/service/classify"
	"scanstation/internal/service/websocket"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	hubService *websocket.HubService
	catalog    *catalog.Service
	station    *service.Station
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	products := catalog.NewService(
		sqlite.NewProductRepository(db),
		sqlite.NewLinkRepository(db),
		catalog.NewOpenFoodFacts(cfg.ProductLookupURL, cfg.LookupTimeout),
		log,
	)

	var provider camera.Provider
	switch cfg.CameraSource {
	case "udp":
		provider = udp.NewProvider(cfg, log)
	case "device":
		provider = opencv.NewProvider(cfg, log)
	default:
		db.Close()
		return nil, fmt.Errorf("unknown CAMERA_SOURCE %q", cfg.CameraSource)
	}

	hub := websocket.NewHubService(log)
	station, err := service.NewStation(
		cfg,
		log,
		provider,
		barcode.NewDecoder(log),
		classify.NewClient(cfg.ClassifyURL, cfg.ClassifyTimeout, log),
		hub,
		products,
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hubService: hub,
		catalog:    products,
		station:    station,
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then releases the camera and closes
// the database.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background services
	go a.hubService.Run(ctx)

	router := route.SetupRoutes(a.config, a.logger, a.station.Session(), a.hubService, a.catalog)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	fmt.Printf("🛒 Scan Station\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	if a.config.CameraSource == "udp" {
		fmt.Printf("📷 Camera: network camera on UDP port %d\n", a.config.CameraUDPPort)
	} else {
		fmt.Printf("📷 Camera: device %d (%dx%d)\n", a.config.CameraDevice, a.config.CameraWidth, a.config.CameraHeight)
	}
	fmt.Printf("🔎 Classifier: %s\n", a.config.ClassifyURL)
	fmt.Printf("🗄️  Catalog: %s\n", a.config.DatabasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warning("Server shutdown: %v", err)
		}
		cancel()
	}

	stop()
	a.station.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Warning("Failed to close database: %v", err)
	}
	a.logger.Close()
	return serveErr
}
