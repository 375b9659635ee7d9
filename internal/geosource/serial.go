package geosource

import (
	"errors"
	"fmt"
	"io/fs"

	"go.bug.st/serial"
)

// OpenSerial opens an NMEA receiver at path and wraps it in a Mux. Missing
// devices map to ErrUnsupported and permission problems to
// ErrPermissionDenied so the caller can fall back to a DisabledSource.
func OpenSerial(path string, opts PortOptions, dec Decoder, mo MuxOptions) (*Mux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, fmt.Errorf("invalid serial options: %w", err)
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}
	return NewMux[serial.Port](port, dec, mo), nil
}

func classifyOpenError(path string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.InvalidSerialPort:
			return fmt.Errorf("%w: open %s: %v", ErrUnsupported, path, err)
		case serial.PermissionDenied:
			return fmt.Errorf("%w: open %s: %v", ErrPermissionDenied, path, err)
		}
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: open %s: %v", ErrUnsupported, path, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: open %s: %v", ErrPermissionDenied, path, err)
	}
	return fmt.Errorf("failed to open serial port %s: %w", path, err)
}
