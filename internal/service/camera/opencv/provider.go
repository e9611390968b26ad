package opencv

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"scanstation/internal/config"
	"scanstation/internal/logger"
	"scanstation/internal/service/camera"

	"gocv.io/x/gocv"
)

// Provider opens local capture devices through OpenCV.
type Provider struct {
	devices map[camera.FacingMode]int
	logger  *logger.Logger
}

// NewProvider maps facing modes to the device indexes from the configuration.
func NewProvider(config *config.Config, logger *logger.Logger) *Provider {
	devices := map[camera.FacingMode]int{
		camera.FacingEnvironment: config.CameraDevice,
	}
	if config.CameraDeviceUser >= 0 {
		devices[camera.FacingUser] = config.CameraDeviceUser
	}

	return &Provider{
		devices: devices,
		logger:  logger,
	}
}

// Request opens the device matching the facing mode and starts reading frames.
func (p *Provider) Request(ctx context.Context, constraints camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deviceID, ok := p.devices[constraints.FacingMode]
	if !ok {
		// Same fallback browsers apply when the facing mode cannot be honoured.
		deviceID = p.devices[camera.FacingEnvironment]
	}

	if err := probeDevice(deviceID); err != nil {
		return nil, err
	}

	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d could not be opened", camera.ErrUnavailable, deviceID)
	}

	if constraints.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(constraints.Width))
	}
	if constraints.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(constraints.Height))
	}

	p.logger.Info("Camera device %d opened (%s, %dx%d)", deviceID, constraints.FacingMode, constraints.Width, constraints.Height)
	return newStream(capture, deviceID, p.logger), nil
}

// Release stops the stream and closes the device.
func (p *Provider) Release(stream camera.Stream) error {
	if stream == nil {
		return nil
	}
	return stream.Close()
}

// probeDevice distinguishes a missing device from one we are not allowed to
// open. OpenCV reports both as a plain open failure.
func probeDevice(deviceID int) error {
	if runtime.GOOS != "linux" {
		return nil
	}

	path := fmt.Sprintf("/dev/video%d", deviceID)
	file, err := os.Open(path)
	switch {
	case err == nil:
		file.Close()
		return nil
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s", camera.ErrNoDevice, path)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, path)
	default:
		return fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}
}
