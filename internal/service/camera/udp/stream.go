package udp

import (
	"errors"
	"fmt"
	"image"
	"net"
	"scanstation/internal/logger"
	"scanstation/internal/service/camera"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	datagramSize = 2048
	// maxReadFailures is how many consecutive read errors end the stream.
	maxReadFailures = 50
	readRetryDelay  = 20 * time.Millisecond
)

// packetReader is the receiving half of a *net.UDPConn.
type packetReader interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
}

type stream struct {
	conn   *net.UDPConn
	source string
	logger *logger.Logger

	mutex  sync.Mutex
	latest []byte
	err    error

	done      chan struct{}
	closeOnce sync.Once
}

func newStream(conn *net.UDPConn, source string, logger *logger.Logger) *stream {
	s := &stream{
		conn:   conn,
		source: source,
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.run(conn)
	return s
}

// run receives datagrams until the listener is closed or reads keep failing.
func (s *stream) run(reader packetReader) {
	defer close(s.done)

	frames := newAssembler()
	buffer := make([]byte, datagramSize)

	failures := 0
	for {
		n, remoteAddr, err := reader.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			failures++
			s.logger.Error("Error reading UDP packet: %v", err)
			if failures >= maxReadFailures {
				s.mutex.Lock()
				s.err = fmt.Errorf("%w: network camera listener failed: %w", camera.ErrUnavailable, err)
				s.mutex.Unlock()
				return
			}
			time.Sleep(readRetryDelay)
			continue
		}
		failures = 0

		ip := remoteAddr.IP.String()
		if s.source != "" && ip != s.source {
			continue
		}

		if frame, ok := frames.push(ip, buffer[:n]); ok {
			s.mutex.Lock()
			s.latest = frame
			s.mutex.Unlock()
		}
	}
}

func (s *stream) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Frame decodes the latest JPEG.
func (s *stream) Frame() (image.Image, error) {
	data, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	// A corrupt datagram spoils one frame, not the stream.
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode frame: %v", camera.ErrNoFrame, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, camera.ErrNoFrame
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

// Snapshot returns the latest frame as received; cameras already send JPEG.
func (s *stream) Snapshot() ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.latest == nil {
		return nil, camera.ErrNoFrame
	}
	return s.latest, nil
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
		<-s.done
		s.logger.Info("Network camera listener on %s closed", s.conn.LocalAddr())
	})
	return err
}
