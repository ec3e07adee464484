package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
)

// Sentinel errors classifying failure causes across service boundaries.
var (
	// ErrExternalTool marks failures from spawned binaries such as ffmpeg.
	ErrExternalTool = errors.New("external tool failure")
	// ErrValidation marks malformed or unusable input data.
	ErrValidation = errors.New("validation failure")
	// ErrConfiguration marks missing or invalid runtime configuration.
	ErrConfiguration = errors.New("configuration failure")
	// ErrNotFound marks absent records or remote resources.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks operations that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks failures that a later retry may clear.
	ErrTransient = errors.New("transient failure")
	// ErrUnavailable marks remote services refusing or dropping connections.
	ErrUnavailable = errors.New("service unavailable")
)

// Wrap annotates err with a sentinel classification and operation context.
func Wrap(sentinel error, operation string, err error) error {
	if err == nil {
		return nil
	}
	if operation == "" {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, operation, err)
}

// Wrapf annotates a formatted message with a sentinel classification.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err is worth retrying on a later pass.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// Classification names the failure category for operator-facing output.
func Classification(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "external_tool"
		}
		return "unknown"
	}
}
