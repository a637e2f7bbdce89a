package cryosnap

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Wrap with %w and classify with
// errors.Is.
var (
	// ErrInvalidInput covers malformed configuration values, empty
	// commands, empty command output, and unsupported input shapes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO covers filesystem failures.
	ErrIO = errors.New("io error")

	// ErrRender covers SVG parse errors, raster scale and size
	// overflow, PNG encode/decode errors, external rasteriser
	// failures, and font download failures.
	ErrRender = errors.New("render error")

	// ErrTimeout means a PTY command exceeded the configured budget.
	ErrTimeout = errors.New("execution timeout")
)

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func ioErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}

func renderErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRender, fmt.Sprintf(format, args...))
}
