package opencv

import (
	"fmt"
	"image"
	"scanstation/internal/logger"
	"scanstation/internal/service/camera"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// maxReadFailures is how many consecutive empty reads end the stream.
	maxReadFailures = 50
	readRetryDelay  = 20 * time.Millisecond
)

// stream keeps the latest frame read from a capture device.
type stream struct {
	capture  *gocv.VideoCapture
	deviceID int
	logger   *logger.Logger

	mutex    sync.Mutex
	frame    gocv.Mat
	hasFrame bool
	err      error

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newStream(capture *gocv.VideoCapture, deviceID int, logger *logger.Logger) *stream {
	s := &stream{
		capture:  capture,
		deviceID: deviceID,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// run reads frames until the stream is closed or the device stops delivering.
func (s *stream) run() {
	defer close(s.done)

	mat := gocv.NewMat()
	defer mat.Close()

	failures := 0
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if ok := s.capture.Read(&mat); !ok || mat.Empty() {
			failures++
			if failures >= maxReadFailures {
				s.logger.Error("Camera device %d stopped delivering frames", s.deviceID)
				s.mutex.Lock()
				s.err = fmt.Errorf("%w: device %d stopped delivering frames", camera.ErrUnavailable, s.deviceID)
				s.mutex.Unlock()
				return
			}
			time.Sleep(readRetryDelay)
			continue
		}
		failures = 0

		s.mutex.Lock()
		if s.hasFrame {
			s.frame.Close()
		}
		s.frame = mat.Clone()
		s.hasFrame = true
		s.mutex.Unlock()
	}
}

// Frame converts the latest frame to an image.Image.
func (s *stream) Frame() (image.Image, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if !s.hasFrame {
		return nil, camera.ErrNoFrame
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

// Snapshot encodes the latest frame as JPEG.
func (s *stream) Snapshot() ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if !s.hasFrame || s.frame.Empty() {
		return nil, camera.ErrNoFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	snapshot := make([]byte, len(buf.GetBytes()))
	copy(snapshot, buf.GetBytes())
	return snapshot, nil
}

// Close stops the reader goroutine and releases the device. Safe to call twice.
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done

		s.mutex.Lock()
		if s.hasFrame {
			s.frame.Close()
			s.hasFrame = false
		}
		s.mutex.Unlock()

		err = s.capture.Close()
		s.logger.Info("Camera device %d released", s.deviceID)
	})
	return err
}
