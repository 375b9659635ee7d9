package geosource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenSerialMissingDevice(t *testing.T) {
	_, err := OpenSerial(filepath.Join(t.TempDir(), "ttyNONE"), PortOptions{}, NewNMEADecoder(0), MuxOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOpenSerialInvalidOptions(t *testing.T) {
	_, err := OpenSerial("/dev/null", PortOptions{DataBits: 9}, NewNMEADecoder(0), MuxOptions{})
	assert.ErrorContains(t, err, "invalid serial options")
}

func TestClassifyOpenError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", &os.PathError{Op: "open", Path: "/dev/ttyX", Err: os.ErrNotExist}, ErrUnsupported},
		{"permission", &os.PathError{Op: "open", Path: "/dev/ttyX", Err: os.ErrPermission}, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyOpenError("/dev/ttyX", tt.err), tt.want)
		})
	}

	other := errors.New("boom")
	err := classifyOpenError("/dev/ttyX", other)
	assert.ErrorIs(t, err, other)
	assert.False(t, IsSensorError(err))
}
