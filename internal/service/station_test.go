package service

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"scanstation/internal/config"
	"scanstation/internal/dto"
	"scanstation/internal/logger"
	"scanstation/internal/service/barcode"
	"scanstation/internal/service/camera"
	"scanstation/internal/service/classify"
	"scanstation/internal/session"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fakeHub struct {
	viewers  int
	messages chan recordedMessage
}

func newFakeHub(viewers int) *fakeHub {
	return &fakeHub{viewers: viewers, messages: make(chan recordedMessage, 256)}
}

func (h *fakeHub) Broadcast(message []byte) bool {
	var msg recordedMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		panic(err)
	}
	select {
	case h.messages <- msg:
		return true
	default:
		return false
	}
}

func (h *fakeHub) GetClientCount() int { return h.viewers }

// next returns the next message of type messageType, skipping others.
func (h *fakeHub) next(t *testing.T, messageType string) recordedMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-h.messages:
			if msg.Type == messageType {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %q message broadcast", messageType)
			return recordedMessage{}
		}
	}
}

type stubStream struct {
	mu     sync.Mutex
	closed bool
	err    error
}

func (s *stubStream) Frame() (image.Image, error) { return nil, camera.ErrNoFrame }

func (s *stubStream) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return []byte{0xff, 0xd8, 0xff}, nil
}

func (s *stubStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type stubProvider struct {
	stream *stubStream
}

func (p *stubProvider) Request(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	return p.stream, nil
}

func (p *stubProvider) Release(stream camera.Stream) error {
	return stream.Close()
}

type stubDecoder struct{}

func (stubDecoder) Attach(ctx context.Context, src barcode.FrameSource, cfg barcode.Config) (barcode.Subscription, error) {
	return nil, errors.New("not used")
}

type stubClassifier struct{}

func (stubClassifier) Classify(ctx context.Context, image []byte) (*classify.Result, error) {
	return &classify.Result{}, nil
}

type stubProducts struct {
	err error
}

func (p stubProducts) Lookup(ctx context.Context, code string) (*dto.ScanLookup, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &dto.ScanLookup{Barcode: code, ItemName: "Nutella", ScanDate: "2026-10-18"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		FacingMode:      "environment",
		CameraWidth:     320,
		CameraHeight:    240,
		Symbologies:     []string{"ean_13"},
		ScanInterval:    10 * time.Millisecond,
		DebounceWindow:  time.Second,
		PreviewInterval: 10 * time.Millisecond,
	}
}

func newTestStation(t *testing.T, cfg *config.Config, hub *fakeHub, provider camera.Provider, products ProductLookup) *Station {
	t.Helper()
	station, err := NewStation(cfg, logger.NewDiscard(), provider, stubDecoder{}, stubClassifier{}, hub, products)
	require.NoError(t, err)
	t.Cleanup(station.Stop)
	return station
}

func TestStation_DetectionIsBroadcastAndLookedUp(t *testing.T) {
	hub := newFakeHub(1)
	station := newTestStation(t, testConfig(), hub, &stubProvider{stream: &stubStream{}}, stubProducts{})

	require.True(t, station.Session().OnDetected("3017620422003", time.Now()))

	det := hub.next(t, MessageDetection)
	var detection session.Detection
	require.NoError(t, json.Unmarshal(det.Payload, &detection))
	assert.Equal(t, "3017620422003", detection.Payload)

	lookup := hub.next(t, MessageLookup)
	var result dto.ScanLookup
	require.NoError(t, json.Unmarshal(lookup.Payload, &result))
	assert.Equal(t, "3017620422003", result.Barcode)
	assert.Equal(t, "Nutella", result.ItemName)
}

func TestStation_LookupFailureIsReported(t *testing.T) {
	hub := newFakeHub(1)
	station := newTestStation(t, testConfig(), hub, &stubProvider{stream: &stubStream{}}, stubProducts{err: errors.New("db down")})

	station.Session().OnDetected("123", time.Now())

	msg := hub.next(t, MessageLookupError)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &body))
	assert.Equal(t, "db down", body.Error)
}

func TestStation_StateChangesAreBroadcast(t *testing.T) {
	hub := newFakeHub(0)
	station := newTestStation(t, testConfig(), hub, &stubProvider{stream: &stubStream{}}, nil)

	require.NoError(t, station.Session().Activate(context.Background(), session.Capturing))

	msg := hub.next(t, MessageState)
	var st struct {
		Mode   string `json:"mode"`
		Active bool   `json:"active"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &st))
	assert.True(t, st.Active)
	assert.Equal(t, "capturing", st.Mode)
}

func TestStation_PreviewOnlyWhileActive(t *testing.T) {
	hub := newFakeHub(1)
	station := newTestStation(t, testConfig(), hub, &stubProvider{stream: &stubStream{}}, nil)

	require.NoError(t, station.Session().Activate(context.Background(), session.Capturing))

	frame := hub.next(t, MessageFrame)
	var payload dto.FramePayload
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "/9j/", payload.Image)
}

func TestStation_PreviewStreamFailureEndsSession(t *testing.T) {
	hub := newFakeHub(1)
	stream := &stubStream{}
	station := newTestStation(t, testConfig(), hub, &stubProvider{stream: stream}, nil)

	require.NoError(t, station.Session().Activate(context.Background(), session.Capturing))
	stream.fail(camera.ErrUnavailable)

	var st struct {
		Active    bool   `json:"active"`
		Mode      string `json:"mode"`
		LastError string `json:"lastError"`
	}
	for {
		msg := hub.next(t, MessageState)
		require.NoError(t, json.Unmarshal(msg.Payload, &st))
		if !st.Active {
			break
		}
	}

	assert.Equal(t, "idle", st.Mode)
	assert.NotEmpty(t, st.LastError)
	stream.mu.Lock()
	defer stream.mu.Unlock()
	assert.True(t, stream.closed)
}

func TestStation_StopReleasesCamera(t *testing.T) {
	stream := &stubStream{}
	station, err := NewStation(testConfig(), logger.NewDiscard(), &stubProvider{stream: stream}, stubDecoder{}, stubClassifier{}, newFakeHub(0), nil)
	require.NoError(t, err)

	require.NoError(t, station.Session().Activate(context.Background(), session.Capturing))
	station.Stop()
	station.Stop()

	stream.mu.Lock()
	defer stream.mu.Unlock()
	assert.True(t, stream.closed)
	assert.False(t, station.Session().State().Active)
}

func TestNewStation_InvalidSymbologies(t *testing.T) {
	cfg := testConfig()
	cfg.Symbologies = []string{"pdf_417_plus"}

	_, err := NewStation(cfg, logger.NewDiscard(), &stubProvider{}, stubDecoder{}, stubClassifier{}, newFakeHub(0), nil)
	assert.Error(t, err)
}
