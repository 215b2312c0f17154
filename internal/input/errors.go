package input

import (
	"errors"
	"fmt"
)

// Installation failures. They are only returned by Listen and Grab, before any
// event loop has started.
var (
	ErrEventTap       = errors.New("failed to create event tap")
	ErrLoopSource     = errors.New("failed to create run loop source")
	ErrKeyboardHook   = errors.New("failed to install keyboard hook")
	ErrMouseHook      = errors.New("failed to install mouse hook")
	ErrKeyboardDevice = errors.New("failed to open keyboard device")
	ErrPointerDevice  = errors.New("failed to open pointer device")
	ErrVirtualDevice  = errors.New("failed to create virtual device")
	ErrUnsupported    = errors.New("input capture is not supported on this platform")
)

// Mode is the capture mode of a session.
type Mode int

const (
	ModeListen Mode = iota
	ModeGrab
)

func (m Mode) String() string {
	if m == ModeGrab {
		return "grab"
	}
	return "listen"
}

// CaptureError describes a failed session installation. Kind is one of the
// sentinel errors above, Code the native error code when the platform has one
// and Err the underlying cause, if any.
type CaptureError struct {
	Mode Mode
	Kind error
	Code uint32
	Err  error
}

func newCaptureError(mode Mode, kind error, code uint32, err error) *CaptureError {
	return &CaptureError{Mode: mode, Kind: kind, Code: code, Err: err}
}

func (e *CaptureError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Mode, e.Kind)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CaptureError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
