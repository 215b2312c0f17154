package input

import (
	"time"

	"github.com/bnema/keytap/internal/logger"
)

// Windows hook codes and window messages
const (
	hcAction = 0

	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E

	wheelDelta = 120
)

// kbdllHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type point struct {
	X, Y int32
}

// msllHookStruct mirrors MSLLHOOKSTRUCT.
type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

func hiword(v uint32) uint16 {
	return uint16(v >> 16)
}

// convertKeyboardHook normalizes a WH_KEYBOARD_LL record.
func convertKeyboardHook(wParam uintptr, rec *kbdllHookStruct, kb *Keyboard, now time.Time) *Event {
	var pressed bool
	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		pressed = true
	case wmKeyUp, wmSysKeyUp:
		pressed = false
	default:
		return nil
	}

	key, uni := kb.Translate(rec.VkCode, pressed)
	et := KeyRelease(key)
	if pressed {
		et = KeyPress(key)
	}
	return &Event{
		Type:         et,
		Time:         now,
		Unicode:      uni,
		PlatformCode: rec.VkCode,
		PositionCode: rec.ScanCode,
		USBHID:       key.USBHID(),
		ExtraData:    uint64(rec.DwExtraInfo),
	}
}

// convertMouseHook normalizes a WH_MOUSE_LL record.
func convertMouseHook(wParam uintptr, rec *msllHookStruct, now time.Time) *Event {
	var (
		et   EventType
		code uint32
	)
	switch wParam {
	case wmLButtonDown:
		et, code = ButtonPress(ButtonLeft), 1
	case wmLButtonUp:
		et, code = ButtonRelease(ButtonLeft), 1
	case wmRButtonDown:
		et, code = ButtonPress(ButtonRight), 2
	case wmRButtonUp:
		et, code = ButtonRelease(ButtonRight), 2
	case wmMButtonDown:
		et, code = ButtonPress(ButtonMiddle), 3
	case wmMButtonUp:
		et, code = ButtonRelease(ButtonMiddle), 3
	case wmXButtonDown:
		code = uint32(hiword(rec.MouseData))
		et = ButtonPress(UnknownButton(uint8(code)))
	case wmXButtonUp:
		code = uint32(hiword(rec.MouseData))
		et = ButtonRelease(UnknownButton(uint8(code)))
	case wmMouseMove:
		et = MouseMove(float64(rec.Pt.X), float64(rec.Pt.Y))
	case wmMouseWheel:
		et = Wheel(0, int64(int16(hiword(rec.MouseData)))/wheelDelta)
	case wmMouseHWheel:
		et = Wheel(int64(int16(hiword(rec.MouseData)))/wheelDelta, 0)
	default:
		return nil
	}
	return &Event{
		Type:         et,
		Time:         now,
		PlatformCode: code,
		ExtraData:    uint64(rec.DwExtraInfo),
	}
}

// handleHook runs one hook procedure invocation. next chains to the following
// hook; a listen session always calls it exactly once, a grab session skips it
// and returns 1 for vetoed events.
func handleHook(mode Mode, nCode int32, convert func() *Event, next func() uintptr) uintptr {
	if nCode != hcAction {
		return next()
	}

	pass := true
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Debugf("Dropping hook event: %v", r)
			}
		}()
		e := convert()
		if e == nil {
			return
		}
		if mode == ModeListen {
			dispatchListen(*e)
			return
		}
		pass = dispatchGrab(*e)
	}()

	if mode == ModeGrab && !pass {
		return 1
	}
	return next()
}
