package session

import (
	"context"
	"fmt"
	"scanstation/internal/service/barcode"
	"scanstation/internal/service/classify"
	"strings"
	"time"
)

// DefaultDebounce is the minimum gap between two accepted detections.
const DefaultDebounce = 3 * time.Second

type Mode int

const (
	Idle Mode = iota
	Capturing
	Scanning
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Scanning:
		return "scanning"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode accepts "capture"/"capturing" and "scan"/"scanning".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "capture", "capturing":
		return Capturing, nil
	case "scan", "scanning":
		return Scanning, nil
	case "idle":
		return Idle, nil
	default:
		return Idle, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Detection is the most recently accepted decoded barcode.
type Detection struct {
	Payload string            `json:"payload"`
	Format  barcode.Symbology `json:"format,omitempty"`
	At      time.Time         `json:"at"`
}

// CapturedImage is an encoded still frame. Data must not be modified.
type CapturedImage struct {
	ID        string
	Data      []byte
	Format    string
	CreatedAt time.Time
}

// ClassificationResult is the reference returned for a submitted image.
type ClassificationResult struct {
	ImageID  string `json:"imageId"`
	ImageURL string `json:"imageUrl"`
}

// ImageInfo describes the captured image without its bytes.
type ImageInfo struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// State is a point-in-time copy of the session for the presentation layer.
type State struct {
	Mode          Mode                  `json:"mode"`
	Active        bool                  `json:"active"`
	LastDetection *Detection            `json:"lastDetection,omitempty"`
	LastError     string                `json:"lastError,omitempty"`
	Message       string                `json:"message,omitempty"`
	Image         *ImageInfo            `json:"image,omitempty"`
	Result        *ClassificationResult `json:"result,omitempty"`
	Submitting    bool                  `json:"submitting"`
}

type EventType string

const (
	EventState     EventType = "state"
	EventDetection EventType = "detection"
)

// Event is pushed to the Notifier after the session lock is released.
type Event struct {
	Type      EventType  `json:"type"`
	State     State      `json:"state"`
	Detection *Detection `json:"detection,omitempty"`
}

type Notifier interface {
	Notify(Event)
}

// Decoder attaches a barcode decoder to a live stream.
type Decoder interface {
	Attach(ctx context.Context, src barcode.FrameSource, cfg barcode.Config) (barcode.Subscription, error)
}

// Classifier sends an encoded image to the classification service.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (*classify.Result, error)
}
