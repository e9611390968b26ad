package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"scanstation/internal/logger"
	"scanstation/internal/service/camera"
	"sync"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu  sync.Mutex
	img image.Image
	err error
}

func (s *staticSource) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img, s.err
}

func (s *staticSource) set(img image.Image, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img, s.err = img, err
}

func qrImage(t *testing.T, payload string) image.Image {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(payload, gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	require.NoError(t, err)
	return matrix
}

func ean13Image(t *testing.T, payload string) image.Image {
	t.Helper()
	matrix, err := oned.NewEAN13Writer().Encode(payload, gozxing.BarcodeFormat_EAN_13, 300, 80, nil)
	require.NoError(t, err)
	return matrix
}

func TestParseSymbologies(t *testing.T) {
	got, err := ParseSymbologies([]string{"EAN_13", " qr_code "})
	require.NoError(t, err)
	assert.Equal(t, []Symbology{EAN13, QRCode}, got)

	_, err = ParseSymbologies([]string{"pdf_417"})
	assert.Error(t, err)
}

func TestFrameReader_DecodesQRCode(t *testing.T) {
	reader, err := newFrameReader([]Symbology{EAN13, QRCode})
	require.NoError(t, err)

	payload, format, ok := reader.decode(qrImage(t, "https://example.com/p/42"))
	require.True(t, ok)
	assert.Equal(t, "https://example.com/p/42", payload)
	assert.Equal(t, QRCode, format)
}

func TestFrameReader_DecodesEAN13(t *testing.T) {
	reader, err := newFrameReader(DefaultSymbologies)
	require.NoError(t, err)

	payload, format, ok := reader.decode(ean13Image(t, "4006381333931"))
	require.True(t, ok)
	assert.Equal(t, "4006381333931", payload)
	assert.Equal(t, EAN13, format)
}

func TestFrameReader_BlankFrame(t *testing.T) {
	reader, err := newFrameReader([]Symbology{QRCode})
	require.NoError(t, err)

	_, _, ok := reader.decode(image.NewGray(image.Rect(0, 0, 64, 64)))
	assert.False(t, ok)
}

func TestDecoder_AttachErrors(t *testing.T) {
	d := NewDecoder(logger.NewDiscard())

	_, err := d.Attach(context.Background(), &staticSource{}, Config{})
	assert.True(t, errors.Is(err, ErrInit), "empty symbology set should fail: %v", err)

	_, err = d.Attach(context.Background(), nil, Config{Symbologies: DefaultSymbologies})
	assert.True(t, errors.Is(err, ErrInit))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Attach(ctx, &staticSource{}, Config{Symbologies: DefaultSymbologies})
	assert.True(t, errors.Is(err, ErrInit))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecoder_EmitsDetections(t *testing.T) {
	src := &staticSource{err: camera.ErrNoFrame}
	d := NewDecoder(logger.NewDiscard())

	sub, err := d.Attach(context.Background(), src, Config{Symbologies: []Symbology{QRCode}, Interval: 5 * time.Millisecond})
	require.NoError(t, err)
	defer sub.Detach()

	src.set(qrImage(t, "hello"), nil)

	select {
	case det := <-sub.Events():
		assert.Equal(t, "hello", det.Payload)
		assert.Equal(t, QRCode, det.Format)
		assert.False(t, det.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no detection received")
	}
}

func TestDecoder_DetachClosesEvents(t *testing.T) {
	src := &staticSource{}
	src.set(qrImage(t, "hello"), nil)
	d := NewDecoder(logger.NewDiscard())

	sub, err := d.Attach(context.Background(), src, Config{Symbologies: []Symbology{QRCode}, Interval: time.Millisecond})
	require.NoError(t, err)

	// Nobody reads, so the decoder is parked on a send when Detach runs.
	time.Sleep(20 * time.Millisecond)
	sub.Detach()
	sub.Detach()

	for range sub.Events() {
		// Drain; the channel must be closed.
	}
}

func TestDecoder_SourceFailureEndsSubscription(t *testing.T) {
	src := &staticSource{err: camera.ErrNoFrame}
	d := NewDecoder(logger.NewDiscard())

	sub, err := d.Attach(context.Background(), src, Config{Symbologies: []Symbology{QRCode}, Interval: time.Millisecond})
	require.NoError(t, err)
	defer sub.Detach()

	// ErrNoFrame is transient; the subscription keeps running.
	time.Sleep(20 * time.Millisecond)
	select {
	case _, ok := <-sub.Events():
		require.True(t, ok, "events closed on ErrNoFrame")
	default:
	}

	src.set(nil, fmt.Errorf("%w: device gone", camera.ErrUnavailable))

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events not closed after source failure")
	}
	assert.True(t, errors.Is(sub.Err(), camera.ErrUnavailable))
}

func TestDecoder_ErrNilAfterDetach(t *testing.T) {
	d := NewDecoder(logger.NewDiscard())

	sub, err := d.Attach(context.Background(), &staticSource{}, Config{Symbologies: []Symbology{QRCode}, Interval: time.Millisecond})
	require.NoError(t, err)

	sub.Detach()
	assert.NoError(t, sub.Err())
}
