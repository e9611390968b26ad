package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"scanstation/internal/config"
	"scanstation/internal/dto"
	"scanstation/internal/logger"
	"scanstation/internal/service/barcode"
	"scanstation/internal/service/camera"
	"scanstation/internal/session"
	"sync"
	"time"
)

// Viewer message types.
const (
	MessageState       = "state"
	MessageDetection   = "detection"
	MessageLookup      = "lookup"
	MessageLookupError = "lookup_error"
	MessageFrame       = "frame"
)

const lookupQueueSize = 16

// Broadcaster delivers a message to every connected viewer.
type Broadcaster interface {
	Broadcast(message []byte) bool
	GetClientCount() int
}

// ProductLookup resolves an accepted barcode to a catalog entry.
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*dto.ScanLookup, error)
}

// Station connects the session controller to the viewers. Accepted
// detections are also looked up in the catalog.
type Station struct {
	session  *session.Controller
	hub      Broadcaster
	products ProductLookup
	logger   *logger.Logger

	previewInterval time.Duration
	lookupQueue     chan string
	now             func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewStation(cfg *config.Config, logger *logger.Logger, provider camera.Provider, decoder session.Decoder,
	classifier session.Classifier, hub Broadcaster, products ProductLookup) (*Station, error) {
	symbologies, err := barcode.ParseSymbologies(cfg.Symbologies)
	if err != nil {
		return nil, fmt.Errorf("invalid SYMBOLOGIES: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Station{
		hub:             hub,
		products:        products,
		logger:          logger,
		previewInterval: cfg.PreviewInterval,
		lookupQueue:     make(chan string, lookupQueueSize),
		now:             time.Now,
		ctx:             ctx,
		cancel:          cancel,
	}

	s.session = session.New(session.Deps{
		Camera:     provider,
		Decoder:    decoder,
		Classifier: classifier,
		Notifier:   s,
		Logger:     logger,
	}, session.Options{
		Constraints: camera.Constraints{
			FacingMode: camera.FacingMode(cfg.FacingMode),
			Width:      cfg.CameraWidth,
			Height:     cfg.CameraHeight,
		},
		Decoder: barcode.Config{
			Symbologies: symbologies,
			Interval:    cfg.ScanInterval,
		},
		Debounce: cfg.DebounceWindow,
	})

	s.wg.Add(1)
	go s.lookupWorker()

	if s.previewInterval > 0 {
		s.wg.Add(1)
		go s.previewLoop()
	}

	logger.Info("Station started - symbologies %v, preview every %s", symbologies, s.previewInterval)
	return s, nil
}

func (s *Station) Session() *session.Controller {
	return s.session
}

// Notify receives session events after the controller lock is released.
func (s *Station) Notify(ev session.Event) {
	switch ev.Type {
	case session.EventDetection:
		if ev.Detection == nil {
			return
		}
		s.SendToViewers(MessageDetection, ev.Detection)
		s.SendToViewers(MessageState, ev.State)

		select {
		case s.lookupQueue <- ev.Detection.Payload:
		default:
			s.logger.Warning("Lookup queue full - skipping catalog lookup for %s", ev.Detection.Payload)
		}
	default:
		s.SendToViewers(MessageState, ev.State)
	}
}

// SendToViewers broadcasts payload wrapped in a ViewerMessage.
func (s *Station) SendToViewers(messageType string, payload interface{}) {
	msg, err := json.Marshal(dto.ViewerMessage{
		Type:      messageType,
		Payload:   payload,
		Timestamp: s.now().UnixMilli(),
	})
	if err != nil {
		s.logger.Error("Failed to encode %s message: %v", messageType, err)
		return
	}
	s.hub.Broadcast(msg)
}

func (s *Station) lookupWorker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case code := <-s.lookupQueue:
			s.lookup(code)
		}
	}
}

func (s *Station) lookup(code string) {
	if s.products == nil {
		return
	}

	result, err := s.products.Lookup(s.ctx, code)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("Catalog lookup for %s failed: %v", code, err)
		s.SendToViewers(MessageLookupError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	s.SendToViewers(MessageLookup, result)
}

// previewLoop pushes a JPEG of the live stream to viewers while the camera
// is active and somebody is watching.
func (s *Station) previewLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.previewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if s.hub.GetClientCount() == 0 {
				continue
			}
			s.sendPreview()
		}
	}
}

func (s *Station) sendPreview() {
	frame, err := s.session.Preview()
	switch {
	case errors.Is(err, session.ErrNoStream), errors.Is(err, camera.ErrNoFrame):
		return
	case errors.Is(err, session.ErrCameraUnavailable):
		// The session has already gone Idle and broadcast its state.
		return
	case err != nil:
		s.logger.Warning("Preview frame unavailable: %v", err)
		return
	case len(frame) == 0:
		return
	}

	s.SendToViewers(MessageFrame, dto.FramePayload{
		Image: base64.StdEncoding.EncodeToString(frame),
	})
}

// Stop tears the session down and waits for the background workers.
func (s *Station) Stop() {
	s.once.Do(func() {
		s.session.Teardown()
		s.cancel()
		s.wg.Wait()
		s.logger.Info("Station stopped")
	})
}
