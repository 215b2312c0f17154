package input

import (
	"time"

	"github.com/bnema/keytap/internal/logger"
)

// Quartz CGEventType values
const (
	cgEventNull                   = 0
	cgEventLeftMouseDown          = 1
	cgEventLeftMouseUp            = 2
	cgEventRightMouseDown         = 3
	cgEventRightMouseUp           = 4
	cgEventMouseMoved             = 5
	cgEventLeftMouseDragged       = 6
	cgEventRightMouseDragged      = 7
	cgEventKeyDown                = 10
	cgEventKeyUp                  = 11
	cgEventFlagsChanged           = 12
	cgEventScrollWheel            = 22
	cgEventOtherMouseDown         = 25
	cgEventOtherMouseUp           = 26
	cgEventOtherMouseDragged      = 27
	cgEventTapDisabledByTimeout   = 0xFFFFFFFE
	cgEventTapDisabledByUserInput = 0xFFFFFFFF
)

// Quartz CGEventField values
const (
	cgFieldMouseButtonNumber   = 3
	cgFieldKeyboardKeycode     = 9
	cgFieldScrollDeltaAxis1    = 11
	cgFieldScrollDeltaAxis2    = 12
	cgFieldEventSourceUserData = 42
)

// tapEvent is the part of a CGEventRef the converter reads and the grab
// trampoline rewrites.
type tapEvent interface {
	IntegerField(field uint32) int64
	Location() (x, y float64)
	Flags() uint64
	SetType(typ uint32)
}

// convertTapEvent normalizes a Quartz event. Types without a mapping return
// nil and leave kb untouched.
func convertTapEvent(typ uint32, ev tapEvent, kb *Keyboard, now time.Time) *Event {
	var (
		et   EventType
		code uint32
	)

	switch typ {
	case cgEventLeftMouseDown:
		et = ButtonPress(ButtonLeft)
		code = uint32(ev.IntegerField(cgFieldMouseButtonNumber))
	case cgEventLeftMouseUp:
		et = ButtonRelease(ButtonLeft)
		code = uint32(ev.IntegerField(cgFieldMouseButtonNumber))
	case cgEventRightMouseDown:
		et = ButtonPress(ButtonRight)
		code = uint32(ev.IntegerField(cgFieldMouseButtonNumber))
	case cgEventRightMouseUp:
		et = ButtonRelease(ButtonRight)
		code = uint32(ev.IntegerField(cgFieldMouseButtonNumber))
	case cgEventOtherMouseDown, cgEventOtherMouseUp:
		code = uint32(ev.IntegerField(cgFieldMouseButtonNumber))
		b := ButtonMiddle
		if code != 2 {
			b = UnknownButton(uint8(code))
		}
		if typ == cgEventOtherMouseDown {
			et = ButtonPress(b)
		} else {
			et = ButtonRelease(b)
		}
	case cgEventMouseMoved, cgEventLeftMouseDragged, cgEventRightMouseDragged, cgEventOtherMouseDragged:
		x, y := ev.Location()
		et = MouseMove(x, y)
	case cgEventScrollWheel:
		et = Wheel(ev.IntegerField(cgFieldScrollDeltaAxis2), ev.IntegerField(cgFieldScrollDeltaAxis1))
	case cgEventKeyDown, cgEventKeyUp:
		code = uint32(ev.IntegerField(cgFieldKeyboardKeycode))
		pressed := typ == cgEventKeyDown
		key, uni := kb.Translate(code, pressed)
		if pressed {
			et = KeyPress(key)
		} else {
			et = KeyRelease(key)
		}
		return keyEvent(et, uni, code, code, ev, now)
	case cgEventFlagsChanged:
		code = uint32(ev.IntegerField(cgFieldKeyboardKeycode))
		key, pressed := kb.TranslateFlags(code, ev.Flags())
		if pressed {
			et = KeyPress(key)
		} else {
			et = KeyRelease(key)
		}
		return keyEvent(et, nil, code, code, ev, now)
	default:
		return nil
	}

	return &Event{
		Type:         et,
		Time:         now,
		PlatformCode: code,
		ExtraData:    uint64(ev.IntegerField(cgFieldEventSourceUserData)),
	}
}

func keyEvent(et EventType, uni *UnicodeInfo, code, pos uint32, ev tapEvent, now time.Time) *Event {
	return &Event{
		Type:         et,
		Time:         now,
		Unicode:      uni,
		PlatformCode: code,
		PositionCode: pos,
		USBHID:       et.Key.USBHID(),
		ExtraData:    uint64(ev.IntegerField(cgFieldEventSourceUserData)),
	}
}

// handleTapEvent runs one tap callback. A vetoed grab event has its type
// rewritten to null so the window server drops it. It reports whether the
// tap was disabled and needs to be enabled again.
func handleTapEvent(mode Mode, typ uint32, ev tapEvent, kb *Keyboard) (disabled bool) {
	if typ == cgEventTapDisabledByTimeout || typ == cgEventTapDisabledByUserInput {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("Dropping tap event %d: %v", typ, r)
		}
	}()

	e := convertTapEvent(typ, ev, kb, time.Now())
	if e == nil {
		return false
	}
	if mode == ModeListen {
		dispatchListen(*e)
		return false
	}
	if !dispatchGrab(*e) {
		ev.SetType(cgEventNull)
	}
	return false
}
