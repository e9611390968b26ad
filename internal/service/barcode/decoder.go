// Package barcode attaches a barcode decoder to a live stream and delivers
// decoded payloads as a cancellable event stream.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"scanstation/internal/logger"
	"scanstation/internal/service/camera"
	"sync"
	"time"
)

// DefaultInterval is how often a frame is sampled when Config.Interval is zero.
const DefaultInterval = 200 * time.Millisecond

// ErrInit is returned when a decoder cannot be attached.
var ErrInit = errors.New("barcode decoder initialization failed")

// FrameSource is anything that can hand out the latest video frame.
type FrameSource interface {
	Frame() (image.Image, error)
}

type Config struct {
	Symbologies []Symbology
	Interval    time.Duration
}

// Detection is one decoded payload.
type Detection struct {
	Payload string    `json:"payload"`
	Format  Symbology `json:"format"`
	At      time.Time `json:"at"`
}

// Subscription delivers detections in arrival order until Detach is called.
type Subscription interface {
	Events() <-chan Detection
	// Detach stops decoding. When it returns no further event will be sent
	// and the Events channel is closed.
	Detach()
	// Err reports why Events closed on its own: the frame source failed.
	// It is nil after a Detach.
	Err() error
}

type Decoder struct {
	logger *logger.Logger
	clock  func() time.Time
}

func NewDecoder(logger *logger.Logger) *Decoder {
	return &Decoder{
		logger: logger,
		clock:  time.Now,
	}
}

// Attach starts sampling frames from src. The subscription outlives ctx;
// ctx only bounds the attach itself.
func (d *Decoder) Attach(ctx context.Context, src FrameSource, cfg Config) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no frame source", ErrInit)
	}

	reader, err := newFrameReader(cfg.Symbologies)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	sub := &subscription{
		events: make(chan Detection),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go sub.run(src, reader, interval, d.clock, d.logger)

	d.logger.Info("Barcode decoder attached (%v, every %v)", cfg.Symbologies, interval)
	return sub, nil
}

type subscription struct {
	events chan Detection
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	err    error // written before done is closed
}

// run samples src until Detach or until src fails with anything other
// than camera.ErrNoFrame.
func (s *subscription) run(src FrameSource, reader *frameReader, interval time.Duration, clock func() time.Time, logger *logger.Logger) {
	defer close(s.done)
	defer close(s.events)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		img, err := src.Frame()
		if err != nil && !errors.Is(err, camera.ErrNoFrame) {
			logger.Error("Barcode decoder stopped, frame source failed: %v", err)
			s.err = err
			return
		}
		if img == nil {
			continue
		}

		payload, format, ok := reader.decode(img)
		if !ok {
			continue
		}

		select {
		case s.events <- Detection{Payload: payload, Format: format, At: clock()}:
		case <-s.stop:
			return
		}
	}
}

func (s *subscription) Events() <-chan Detection {
	return s.events
}

// Err blocks until the sampling goroutine has exited. Call it after
// Events is closed.
func (s *subscription) Err() error {
	<-s.done
	return s.err
}

func (s *subscription) Detach() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}
