package camera

import (
	"context"
	"fmt"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrPermissionDenied, "Camera access denied. Please check permissions."},
		{fmt.Errorf("%w: /dev/video0", ErrNoDevice), "No camera found. Please connect a camera and try again."},
		{context.Canceled, "Camera request was cancelled. Please try again."},
		{ErrUnavailable, "Camera access denied or not available. Please check permissions."},
	}

	for _, tt := range tests {
		if got := Describe(tt.err); got != tt.expected {
			t.Errorf("Describe(%v) = %q, expected %q", tt.err, got, tt.expected)
		}
	}
}
