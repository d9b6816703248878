// Package errs defines the error kinds shared by the compositor, the
// recording session and the host. Each typed error matches its sentinel via
// errors.Is so callers can branch on kind without type assertions.
package errs

import (
	"errors"
	"fmt"
	"image"
)

// Re-export for callers that only import this package.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// Sentinel errors.
var (
	// ErrPermissionDenied indicates the capture device is inaccessible.
	ErrPermissionDenied = New("capture permission denied")
	// ErrPrecondition indicates an operation was called before its requirements were met.
	ErrPrecondition = New("precondition not met")
	// ErrCaptureUnavailable indicates the underlying recorder could not open a segment.
	ErrCaptureUnavailable = New("capture unavailable")
	// ErrSizeMismatch indicates frames with differing dimensions.
	ErrSizeMismatch = New("frame size mismatch")
	// ErrInvalidTransition indicates an operation not valid in the current session state.
	ErrInvalidTransition = New("invalid state transition")
	// ErrNothingToExport indicates an export with no finalized data.
	ErrNothingToExport = New("nothing to export")
	// ErrUnknownPreset indicates a color preset name that does not exist.
	ErrUnknownPreset = New("unknown color preset")
)

// PermissionDeniedError wraps a capture device failure.
type PermissionDeniedError struct {
	Device string
	Cause  error
}

func (e *PermissionDeniedError) Error() string {
	msg := "permission denied"
	if e.Device != "" {
		msg = fmt.Sprintf("permission denied [device=%s]", e.Device)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PermissionDeniedError) Unwrap() error        { return e.Cause }
func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

// PreconditionError reports an operation rejected because a requirement is missing.
type PreconditionError struct {
	Op          string
	Requirement string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: requires %s", e.Op, e.Requirement)
}

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// CaptureUnavailableError reports a failure of the recorder to open a segment.
type CaptureUnavailableError struct {
	Op    string
	Cause error
}

func (e *CaptureUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: capture unavailable: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: capture unavailable", e.Op)
}

func (e *CaptureUnavailableError) Unwrap() error        { return e.Cause }
func (e *CaptureUnavailableError) Is(target error) bool { return target == ErrCaptureUnavailable }

// SizeMismatchError reports frames whose bounds differ.
type SizeMismatchError struct {
	Current    image.Rectangle
	Background image.Rectangle
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("frame size mismatch: current=%dx%d background=%dx%d",
		e.Current.Dx(), e.Current.Dy(), e.Background.Dx(), e.Background.Dy())
}

func (e *SizeMismatchError) Is(target error) bool { return target == ErrSizeMismatch }

// InvalidTransitionError reports an operation not permitted from State.
type InvalidTransitionError struct {
	Op    string
	State string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// IsFatal reports whether err should end the capture session. Only loss of
// the capture device is fatal; everything else is recoverable locally.
func IsFatal(err error) bool {
	return err != nil && errors.Is(err, ErrPermissionDenied)
}

// UserMessage maps err to a short notification text.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Camera access denied. Please allow camera permission."
	case errors.Is(err, ErrPrecondition):
		return "Please capture background first!"
	case errors.Is(err, ErrCaptureUnavailable):
		return "Recording failed: " + err.Error()
	case errors.Is(err, ErrSizeMismatch):
		return "Background does not match the camera resolution; recapture it."
	case errors.Is(err, ErrNothingToExport):
		return "Nothing to export yet."
	case errors.Is(err, ErrUnknownPreset):
		return "Unknown color preset."
	default:
		return err.Error()
	}
}
