package input

import (
	"time"

	"github.com/bnema/keytap/internal/logger"
)

// Linux input event types and codes
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evMsc = 0x04

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	mscScan = 0x04

	btnLeft    = 0x110
	btnRight   = 0x111
	btnMiddle  = 0x112
	btnSide    = 0x113
	btnExtra   = 0x114
	btnForward = 0x115
	btnBack    = 0x116
	btnTask    = 0x117

	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

// hidKeyboardPage is the usage page of MSC_SCAN values from USB keyboards.
const hidKeyboardPage = 0x07

// evdevRecord is one struct input_event without its timestamp.
type evdevRecord struct {
	Type  uint16
	Code  uint16
	Value int32
}

// evdevConverter normalizes evdev records. Relative motion is accumulated into
// a virtual pointer position starting at the origin.
type evdevConverter struct {
	kb      *Keyboard
	x, y    float64
	scan    uint32
	hasScan bool
}

func newEvdevConverter(kb *Keyboard) *evdevConverter {
	return &evdevConverter{kb: kb}
}

func evdevButton(code uint16) (Button, bool) {
	switch code {
	case btnLeft:
		return ButtonLeft, true
	case btnRight:
		return ButtonRight, true
	case btnMiddle:
		return ButtonMiddle, true
	case btnSide:
		return UnknownButton(1), true
	case btnExtra:
		return UnknownButton(2), true
	case btnForward, btnBack, btnTask:
		return UnknownButton(uint8(code - btnLeft)), true
	}
	return 0, false
}

// convert returns the event for rec, or nil for records that only carry state
// (MSC_SCAN) or have no mapping.
func (c *evdevConverter) convert(rec evdevRecord, now time.Time) *Event {
	switch rec.Type {
	case evMsc:
		if rec.Code == mscScan {
			c.scan = uint32(rec.Value)
			c.hasScan = true
		}
		return nil

	case evKey:
		if b, ok := evdevButton(rec.Code); ok {
			et := ButtonRelease(b)
			if rec.Value != keyRelease {
				et = ButtonPress(b)
			}
			return &Event{Type: et, Time: now, PlatformCode: uint32(rec.Code)}
		}
		return c.convertKey(rec, now)

	case evRel:
		var et EventType
		switch rec.Code {
		case relX:
			c.x += float64(rec.Value)
			et = MouseMove(c.x, c.y)
		case relY:
			c.y += float64(rec.Value)
			et = MouseMove(c.x, c.y)
		case relWheel:
			et = Wheel(0, int64(rec.Value))
		case relHWheel:
			et = Wheel(int64(rec.Value), 0)
		default:
			return nil
		}
		return &Event{Type: et, Time: now}
	}
	return nil
}

func (c *evdevConverter) convertKey(rec evdevRecord, now time.Time) *Event {
	code := uint32(rec.Code)

	var (
		key Key
		uni *UnicodeInfo
		et  EventType
	)
	switch rec.Value {
	case keyPress:
		key, uni = c.kb.Translate(code, true)
		et = KeyPress(key)
	case keyRepeat:
		// repeats do not change modifier state
		key = c.kb.KeyFor(code)
		uni = c.kb.Unicode(key)
		et = KeyPress(key)
	case keyRelease:
		key, _ = c.kb.Translate(code, false)
		et = KeyRelease(key)
	default:
		return nil
	}

	e := &Event{
		Type:         et,
		Time:         now,
		Unicode:      uni,
		PlatformCode: code,
		PositionCode: code,
		USBHID:       key.USBHID(),
	}
	if c.hasScan {
		e.PositionCode = c.scan
		if c.scan>>16 == hidKeyboardPage {
			e.USBHID = c.scan & 0xFFFF
		}
		c.hasScan = false
	}
	return e
}

// handleEvdev runs one record through the converter and the callback slot. It
// reports whether a grabbed record may be replayed.
func handleEvdev(mode Mode, conv *evdevConverter, rec evdevRecord, now time.Time) (pass bool) {
	pass = true
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf("Dropping evdev event %d/%d: %v", rec.Type, rec.Code, r)
		}
	}()

	e := conv.convert(rec, now)
	if e == nil {
		return true
	}
	if mode == ModeListen {
		dispatchListen(*e)
		return true
	}
	return dispatchGrab(*e)
}
