// Package input intercepts raw keyboard and mouse input at the operating-system
// level and delivers it to a single registered callback as normalized events.
//
// Two modes are offered. Listen observes every matching event and cannot alter
// it. Grab observes and may veto each event before it reaches the rest of the
// system. The native mechanism is selected at compile time: a Quartz event tap
// on macOS, the low-level hook chain on Windows and evdev devices on Linux.
package input

import (
	"fmt"
	"math"
	"time"
)

// EventKind identifies the variant carried by an EventType
type EventKind uint8

const (
	KindKeyPress EventKind = iota + 1
	KindKeyRelease
	KindButtonPress
	KindButtonRelease
	KindMouseMove
	KindWheel
)

func (k EventKind) String() string {
	switch k {
	case KindKeyPress:
		return "KeyPress"
	case KindKeyRelease:
		return "KeyRelease"
	case KindButtonPress:
		return "ButtonPress"
	case KindButtonRelease:
		return "ButtonRelease"
	case KindMouseMove:
		return "MouseMove"
	case KindWheel:
		return "Wheel"
	default:
		return "Invalid"
	}
}

// Button is a mouse button. Values above ButtonMiddle carry the raw platform
// button number, see UnknownButton. The type is wider than the platform number
// so every uint8 maps to a distinct button.
type Button uint16

const (
	ButtonLeft Button = iota + 1
	ButtonRight
	ButtonMiddle
	buttonUnknownBase
)

// UnknownButton returns the button for an extra platform button number.
func UnknownButton(n uint8) Button {
	return buttonUnknownBase + Button(n)
}

// Unknown reports the raw platform number of an extra button.
func (b Button) Unknown() (uint8, bool) {
	if b < buttonUnknownBase || b > buttonUnknownBase+math.MaxUint8 {
		return 0, false
	}
	return uint8(b - buttonUnknownBase), true
}

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "Left"
	case ButtonRight:
		return "Right"
	case ButtonMiddle:
		return "Middle"
	}
	if n, ok := b.Unknown(); ok {
		return fmt.Sprintf("Unknown(%d)", n)
	}
	return "Invalid"
}

// EventType is the tagged variant of an Event. Only the payload fields that
// belong to Kind are meaningful.
type EventType struct {
	Kind   EventKind
	Key    Key
	Button Button
	// MouseMove position
	X, Y float64
	// Wheel deltas, positive is right and up
	DeltaX, DeltaY int64
}

func KeyPress(k Key) EventType { return EventType{Kind: KindKeyPress, Key: k} }
func KeyRelease(k Key) EventType { return EventType{Kind: KindKeyRelease, Key: k} }
func ButtonPress(b Button) EventType { return EventType{Kind: KindButtonPress, Button: b} }

func ButtonRelease(b Button) EventType {
	return EventType{Kind: KindButtonRelease, Button: b}
}

func MouseMove(x, y float64) EventType {
	return EventType{Kind: KindMouseMove, X: x, Y: y}
}

func Wheel(dx, dy int64) EventType {
	return EventType{Kind: KindWheel, DeltaX: dx, DeltaY: dy}
}

// IsKey reports whether the variant is a key press or release.
func (t EventType) IsKey() bool {
	return t.Kind == KindKeyPress || t.Kind == KindKeyRelease
}

func (t EventType) String() string {
	switch t.Kind {
	case KindKeyPress, KindKeyRelease:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Key)
	case KindButtonPress, KindButtonRelease:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Button)
	case KindMouseMove:
		return fmt.Sprintf("MouseMove{x: %.1f, y: %.1f}", t.X, t.Y)
	case KindWheel:
		return fmt.Sprintf("Wheel{dx: %d, dy: %d}", t.DeltaX, t.DeltaY)
	default:
		return "Invalid"
	}
}

// UnicodeInfo is the text a key press produced.
type UnicodeInfo struct {
	Name   string
	IsDead bool
}

// Event is one normalized input event. It is built once per native event and
// is not modified afterwards.
type Event struct {
	Type EventType
	Time time.Time
	// Unicode is nil unless a key press was translated to text
	Unicode *UnicodeInfo
	// PlatformCode is the raw key or button identifier of the platform
	PlatformCode uint32
	// PositionCode is the hardware scan code, platform specific
	PositionCode uint32
	// USBHID is the keyboard page usage id, 0 when unavailable
	USBHID uint32
	// ExtraData is the platform tag attached by whoever generated the event.
	// Synthetic input usually sets it, physical input leaves it at 0.
	ExtraData uint64
}

func (e Event) String() string {
	s := fmt.Sprintf("%s code=%d pos=%d", e.Type, e.PlatformCode, e.PositionCode)
	if e.Unicode != nil {
		s += fmt.Sprintf(" text=%q", e.Unicode.Name)
	}
	return s
}
