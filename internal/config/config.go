package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	LogDirectory    string
	DatabasePath    string
	StaticDirectory string

	CameraSource     string // "device" for a local capture device, "udp" for a network camera
	CameraUDPPort    int    // Port network cameras stream JPEG frames to
	CameraUDPSource  string // Only accept frames from this IP when set
	CameraDevice     int    // Device index used for the rear ("environment") camera
	CameraDeviceUser int    // Device index used for the front ("user") camera, -1 when absent
	CameraWidth      int    // Requested frame width in pixels
	CameraHeight     int    // Requested frame height in pixels
	FacingMode       string // Default facing mode requested on activation

	Symbologies     []string      // Barcode formats the decoder looks for
	ScanInterval    time.Duration // How often the decoder samples a frame
	DebounceWindow  time.Duration // Minimum gap between two accepted detections
	PreviewInterval time.Duration // How often a preview frame is pushed to viewers

	ClassifyURL     string
	ClassifyTimeout time.Duration // 0 disables the timeout

	ProductLookupURL string
	LookupTimeout    time.Duration
	DefaultUserID    string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "catalog.db")),
		StaticDirectory: getEnv("STATIC_DIR", "static"),

		CameraSource:     getEnv("CAMERA_SOURCE", "device"),
		CameraUDPPort:    getEnvAsInt("CAMERA_UDP_PORT", 5005),
		CameraUDPSource:  getEnv("CAMERA_UDP_SOURCE", ""),
		CameraDevice:     getEnvAsInt("CAMERA_DEVICE", 0),
		CameraDeviceUser: getEnvAsInt("CAMERA_DEVICE_USER", -1),
		CameraWidth:      getEnvAsInt("CAMERA_WIDTH", 320),
		CameraHeight:     getEnvAsInt("CAMERA_HEIGHT", 240),
		FacingMode:       getEnv("CAMERA_FACING_MODE", "environment"),

		Symbologies:     getEnvAsList("SYMBOLOGIES", []string{"ean_13", "ean_8", "upc_a", "upc_e"}),
		ScanInterval:    getEnvAsMillis("SCAN_INTERVAL_MS", 200),
		DebounceWindow:  getEnvAsMillis("DEBOUNCE_MS", 3000),
		PreviewInterval: getEnvAsMillis("PREVIEW_INTERVAL_MS", 250),

		ClassifyURL:     getEnv("CLASSIFY_URL", "http://localhost:5000/api/classify"),
		ClassifyTimeout: getEnvAsSeconds("CLASSIFY_TIMEOUT_SEC", 30),

		ProductLookupURL: getEnv("PRODUCT_LOOKUP_URL", "https://world.openfoodfacts.org"),
		LookupTimeout:    getEnvAsSeconds("LOOKUP_TIMEOUT_SEC", 5),
		DefaultUserID:    getEnv("DEFAULT_USER_ID", "local"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
