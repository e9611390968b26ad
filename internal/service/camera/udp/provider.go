// Package udp receives JPEG frames that network cameras push over UDP.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"scanstation/internal/config"
	"scanstation/internal/logger"
	"scanstation/internal/service/camera"
)

// Provider listens for a network camera while a stream is requested.
type Provider struct {
	port   int
	source string
	logger *logger.Logger
}

func NewProvider(config *config.Config, logger *logger.Logger) *Provider {
	return &Provider{
		port:   config.CameraUDPPort,
		source: config.CameraUDPSource,
		logger: logger,
	}
}

// Request binds the UDP port. The facing mode is ignored: a network camera
// has a single view.
func (p *Provider) Request(ctx context.Context, constraints camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: p.port})
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", camera.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}

	p.logger.Info("Listening for network camera on %s", conn.LocalAddr())
	return newStream(conn, p.source, p.logger), nil
}

func (p *Provider) Release(stream camera.Stream) error {
	if stream == nil {
		return nil
	}
	return stream.Close()
}
