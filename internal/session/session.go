// Package session implements the capture/scan session controller: it owns a
// live camera stream, switches it between still capture and barcode
// scanning, and forwards captured images to the classification service.
package session

import (
	"context"
	"errors"
	"fmt"
	"scanstation/internal/logger"
	"scanstation/internal/service/barcode"
	"scanstation/internal/service/camera"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Deps struct {
	Camera     camera.Provider
	Decoder    Decoder
	Classifier Classifier
	Notifier   Notifier // optional
	Logger     *logger.Logger
}

type Options struct {
	Constraints camera.Constraints
	Decoder     barcode.Config
	Debounce    time.Duration    // defaults to DefaultDebounce
	Clock       func() time.Time // defaults to time.Now
}

// Controller is safe for concurrent use. Collaborator events are applied
// under the same lock as user operations.
type Controller struct {
	camera     camera.Provider
	decoder    Decoder
	classifier Classifier
	notifier   Notifier
	logger     *logger.Logger

	constraints camera.Constraints
	decoderCfg  barcode.Config
	debounce    time.Duration
	clock       func() time.Time

	mu            sync.Mutex
	mode          Mode
	stream        camera.Stream
	sub           barcode.Subscription
	pumpDone      chan struct{} // closed when the pump for sub has exited
	generation    uint64        // bumped on every detach; stale decoder events are dropped
	lastDetection *Detection
	lastError     string
	message       string
	image         *CapturedImage
	result        *ClassificationResult
	submitting    bool
	pending       []Event
}

func New(deps Deps, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewDiscard()
	}

	return &Controller{
		camera:      deps.Camera,
		decoder:     deps.Decoder,
		classifier:  deps.Classifier,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		constraints: opts.Constraints,
		decoderCfg:  opts.Decoder,
		debounce:    opts.Debounce,
		clock:       opts.Clock,
		mode:        Idle,
	}
}

// Activate requests a stream and enters target mode. With a stream already
// active it behaves like SetMode.
func (c *Controller) Activate(ctx context.Context, target Mode) error {
	if target != Capturing && target != Scanning {
		return fmt.Errorf("%w: %s", ErrInvalidMode, target)
	}

	c.mu.Lock()
	defer c.unlock()

	if c.stream != nil {
		return c.switchLocked(ctx, target)
	}

	stream, err := c.camera.Request(ctx, c.constraints)
	if err != nil {
		c.mode = Idle
		c.lastError = camera.Describe(err)
		c.message = ""
		c.logger.Warning("Camera activation failed: %v", err)
		c.queueState()
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}

	c.stream = stream
	c.mode = Capturing
	c.lastError = ""
	c.message = ""
	c.logger.Info("Camera activated")

	if target == Scanning {
		return c.switchLocked(ctx, Scanning)
	}
	c.queueState()
	return nil
}

// Deactivate stops any decoder and releases the stream.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	done := c.shutdownLocked()
	c.lastError = ""
	c.message = ""
	c.queueState()
	c.unlock()

	wait(done)
}

// SetMode switches an active stream between Capturing and Scanning.
func (c *Controller) SetMode(ctx context.Context, target Mode) error {
	if target != Capturing && target != Scanning {
		return fmt.Errorf("%w: %s", ErrInvalidMode, target)
	}

	c.mu.Lock()
	defer c.unlock()
	return c.switchLocked(ctx, target)
}

func (c *Controller) switchLocked(ctx context.Context, target Mode) error {
	if c.stream == nil {
		c.message = msgNoStream
		c.queueState()
		return ErrNoStream
	}
	if c.mode == target {
		return nil
	}

	// Always tear down first: two decoders must never share a stream.
	c.detachLocked()
	c.discardImageLocked()
	c.mode = target
	c.lastError = ""
	c.message = ""

	if target == Scanning {
		sub, err := c.decoder.Attach(ctx, c.stream, c.decoderCfg)
		if err != nil {
			c.logger.Error("Barcode decoder failed to start: %v", err)
			c.releaseLocked()
			c.lastError = msgDecoderInit
			c.queueState()
			return fmt.Errorf("%w: %w", ErrDecoderInit, err)
		}
		c.sub = sub
		c.pumpDone = make(chan struct{})
		go c.pump(c.generation, sub, c.pumpDone)
	}

	c.logger.Info("Session mode switched to %s", target)
	c.queueState()
	return nil
}

// pump forwards decoder events until the subscription ends. If it ended
// because the stream failed, the session goes back to Idle.
func (c *Controller) pump(generation uint64, sub barcode.Subscription, done chan struct{}) {
	defer close(done)

	for det := range sub.Events() {
		c.mu.Lock()
		if generation == c.generation && c.mode == Scanning {
			c.acceptLocked(Detection{Payload: det.Payload, Format: det.Format}, c.clock())
		}
		c.unlock()
	}

	err := sub.Err()

	c.mu.Lock()
	if generation == c.generation && c.stream != nil {
		if err == nil {
			err = errors.New("decoder stopped")
		}
		// The returned channel is our own done.
		c.failStreamLocked(err)
	}
	c.unlock()
}

// OnDetected applies the debounce window to a decoded payload observed at
// now and reports whether it was accepted.
func (c *Controller) OnDetected(payload string, now time.Time) bool {
	c.mu.Lock()
	defer c.unlock()
	return c.acceptLocked(Detection{Payload: payload}, now)
}

func (c *Controller) acceptLocked(det Detection, now time.Time) bool {
	if c.lastDetection != nil && now.Sub(c.lastDetection.At) < c.debounce {
		return false
	}

	det.At = now
	c.lastDetection = &det
	c.logger.Info("Barcode detected: %s (%s)", det.Payload, det.Format)

	accepted := det
	c.pending = append(c.pending, Event{Type: EventDetection, State: c.stateLocked(), Detection: &accepted})
	return true
}

// Capture snapshots the stream into a CapturedImage.
func (c *Controller) Capture() error {
	c.mu.Lock()
	defer c.unlock()

	if c.stream == nil {
		c.message = msgNoStream
		c.queueState()
		return ErrNoStream
	}
	if c.mode != Capturing {
		c.message = msgWrongMode
		c.queueState()
		return ErrWrongMode
	}

	data, err := c.stream.Snapshot()
	if err != nil && !errors.Is(err, camera.ErrNoFrame) {
		// Capturing has no decoder, so there is no pump to wait for.
		c.failStreamLocked(err)
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}
	if len(data) == 0 {
		c.message = msgCaptureEmpty
		c.queueState()
		return ErrCaptureEmpty
	}

	c.image = &CapturedImage{
		ID:        uuid.NewString(),
		Data:      data,
		Format:    "image/jpeg",
		CreatedAt: c.clock(),
	}
	c.result = nil
	c.message = ""
	c.lastError = ""
	c.logger.Info("Captured image %s (%d bytes)", c.image.ID, len(data))
	c.queueState()
	return nil
}

// Retake drops the captured image and any classification result.
func (c *Controller) Retake() error {
	c.mu.Lock()
	defer c.unlock()

	c.discardImageLocked()
	c.message = ""
	c.lastError = ""
	c.queueState()

	if c.stream == nil {
		return ErrNoStream
	}
	if c.mode != Capturing {
		return ErrWrongMode
	}
	return nil
}

// Submit uploads the current image. The lock is not held during the
// request; a response for an image that has since been replaced is dropped.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	img := c.image
	switch {
	case img == nil:
		c.message = msgNoImage
		c.queueState()
		c.unlock()
		return ErrNoImage
	case c.submitting:
		c.unlock()
		return ErrSubmitInProgress
	}
	c.submitting = true
	c.queueState()
	c.unlock()

	result, err := c.classifier.Classify(ctx, img.Data)

	c.mu.Lock()
	defer c.unlock()
	c.submitting = false

	if c.image != img {
		c.logger.Info("Discarding classification response for replaced image %s", img.ID)
		c.queueState()
		return ErrStaleSubmission
	}

	if err != nil {
		c.logger.Error("Image %s submission failed: %v", img.ID, err)
		c.lastError = msgSubmitFailed
		c.queueState()
		return fmt.Errorf("%w: %w", ErrSubmissionFailure, err)
	}

	c.lastError = ""
	if result == nil || result.ImageURL == "" {
		c.message = msgSubmitNoResult
		c.queueState()
		return nil
	}

	c.result = &ClassificationResult{ImageID: img.ID, ImageURL: result.ImageURL}
	c.message = ""
	c.logger.Info("Image %s classified: %s", img.ID, result.ImageURL)
	c.queueState()
	return nil
}

// Teardown ends the session: decoder and stream are released on every path.
// Calling it again is a no-op.
func (c *Controller) Teardown() {
	c.mu.Lock()
	wasActive := c.stream != nil || c.sub != nil
	done := c.shutdownLocked()
	c.lastDetection = nil
	c.lastError = ""
	c.message = ""
	if wasActive {
		c.queueState()
	}
	c.unlock()

	wait(done)
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Image returns the captured image, or nil.
func (c *Controller) Image() *CapturedImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image
}

// Preview returns a JPEG of the live stream. It leaves session state alone
// unless the stream has failed, in which case the session ends as it would
// on a failed capture.
func (c *Controller) Preview() ([]byte, error) {
	c.mu.Lock()

	if c.stream == nil {
		c.mu.Unlock()
		return nil, ErrNoStream
	}
	data, err := c.stream.Snapshot()
	if err == nil || errors.Is(err, camera.ErrNoFrame) {
		c.mu.Unlock()
		return data, err
	}

	done := c.failStreamLocked(err)
	c.unlock()
	wait(done)
	return nil, fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
}

func (c *Controller) stateLocked() State {
	st := State{
		Mode:       c.mode,
		Active:     c.stream != nil,
		LastError:  c.lastError,
		Message:    c.message,
		Submitting: c.submitting,
	}
	if c.lastDetection != nil {
		det := *c.lastDetection
		st.LastDetection = &det
	}
	if c.image != nil {
		st.Image = &ImageInfo{
			ID:        c.image.ID,
			Format:    c.image.Format,
			Size:      len(c.image.Data),
			CreatedAt: c.image.CreatedAt,
		}
	}
	if c.result != nil {
		res := *c.result
		st.Result = &res
	}
	return st
}

// shutdownLocked detaches the decoder, releases the stream and drops the
// image. The returned channel, if any, closes once the old pump has exited;
// wait on it only after unlocking.
func (c *Controller) shutdownLocked() <-chan struct{} {
	done := c.detachLocked()
	c.releaseLocked()
	c.discardImageLocked()
	return done
}

// failStreamLocked ends the session after the stream reported err.
func (c *Controller) failStreamLocked(err error) <-chan struct{} {
	c.logger.Error("Camera stream failed in %s mode: %v", c.mode, err)
	done := c.shutdownLocked()
	c.lastError = msgStreamLost
	c.message = ""
	c.queueState()
	return done
}

func (c *Controller) detachLocked() <-chan struct{} {
	c.generation++
	done := c.pumpDone
	c.pumpDone = nil
	if c.sub != nil {
		c.sub.Detach()
		c.sub = nil
		c.logger.Info("Barcode decoder detached")
	}
	return done
}

func (c *Controller) releaseLocked() {
	if c.stream != nil {
		if err := c.camera.Release(c.stream); err != nil {
			c.logger.Warning("Failed to release camera stream: %v", err)
		}
		c.stream = nil
		c.logger.Info("Camera released")
	}
	c.mode = Idle
}

func (c *Controller) discardImageLocked() {
	c.image = nil
	c.result = nil
}

func wait(done <-chan struct{}) {
	if done != nil {
		<-done
	}
}

func (c *Controller) queueState() {
	c.pending = append(c.pending, Event{Type: EventState, State: c.stateLocked()})
}

// unlock releases the lock and then delivers queued events, so a Notifier
// may call back into the controller.
func (c *Controller) unlock() {
	events := c.pending
	c.pending = nil
	c.mu.Unlock()

	if c.notifier == nil {
		return
	}
	for _, ev := range events {
		c.notifier.Notify(ev)
	}
}
