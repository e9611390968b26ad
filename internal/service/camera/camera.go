// Package camera describes the live video stream contract shared by the
// session controller, the barcode decoder and the device providers.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera device found")
	ErrUnavailable      = errors.New("camera unavailable")
	// ErrNoFrame is returned while a stream has not produced its first frame.
	ErrNoFrame = errors.New("no frame available")
)

// FacingMode selects which physical camera is requested.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Constraints are the stream properties requested from a Provider.
type Constraints struct {
	FacingMode FacingMode
	Width      int
	Height     int
}

// Stream is a live video stream owned by exactly one session.
type Stream interface {
	// Frame returns the most recent frame, or ErrNoFrame.
	Frame() (image.Image, error)
	// Snapshot returns the most recent frame encoded as JPEG, or ErrNoFrame.
	Snapshot() ([]byte, error)
	Close() error
}

// Provider grants and releases live streams.
type Provider interface {
	Request(ctx context.Context, constraints Constraints) (Stream, error)
	Release(stream Stream) error
}

// Describe turns a provider error into a message fit for the user.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Camera access denied. Please check permissions."
	case errors.Is(err, ErrNoDevice):
		return "No camera found. Please connect a camera and try again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Camera request was cancelled. Please try again."
	default:
		return "Camera access denied or not available. Please check permissions."
	}
}
