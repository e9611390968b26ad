package session

import "errors"

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrDecoderInit       = errors.New("barcode decoder failed to start")
	ErrCaptureEmpty      = errors.New("no frame available to capture")
	ErrSubmissionFailure = errors.New("image submission failed")

	ErrInvalidMode      = errors.New("invalid mode")
	ErrNoStream         = errors.New("camera is not active")
	ErrWrongMode        = errors.New("operation not allowed in current mode")
	ErrNoImage          = errors.New("no captured image")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	// ErrStaleSubmission is returned when the image was replaced while its
	// submission was in flight. The response has been discarded.
	ErrStaleSubmission = errors.New("captured image changed during submission")
)

// User-visible messages.
const (
	msgNoStream       = "Camera is not active. Please activate the camera first."
	msgWrongMode      = "Switch to capture mode to take a picture."
	msgCaptureEmpty   = "No image available yet. Please try again."
	msgStreamLost     = "Camera stream stopped. Please activate the camera again."
	msgDecoderInit    = "Barcode scanner could not be started. Please try again."
	msgNoImage        = "Capture an image before submitting."
	msgSubmitFailed   = "Could not submit image. Please try again."
	msgSubmitNoResult = "Image submitted, but no result was returned."
)
