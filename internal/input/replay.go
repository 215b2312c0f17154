package input

import "fmt"

// virtualKeyboard is the part of a uinput keyboard used to replay keys.
type virtualKeyboard interface {
	KeyDown(key int) error
	KeyUp(key int) error
	KeyRepeat(key int) error
}

// virtualMouse is the part of a uinput mouse used to replay pointer input.
type virtualMouse interface {
	Move(x, y int32) error
	LeftPress() error
	LeftRelease() error
	RightPress() error
	RightRelease() error
	MiddlePress() error
	MiddleRelease() error
	Wheel(horizontal bool, delta int32) error
}

// replayRecord re-emits a passed evdev record on the virtual devices. Records
// that carry no input of their own and buttons the virtual mouse lacks are
// skipped. mouse may be nil in keyboard-only sessions.
func replayRecord(kb virtualKeyboard, mouse virtualMouse, rec evdevRecord) error {
	switch rec.Type {
	case evKey:
		if _, ok := evdevButton(rec.Code); ok {
			if mouse == nil {
				return nil
			}
			return replayButton(mouse, rec)
		}
		switch rec.Value {
		case keyPress:
			return kb.KeyDown(int(rec.Code))
		case keyRelease:
			return kb.KeyUp(int(rec.Code))
		case keyRepeat:
			return kb.KeyRepeat(int(rec.Code))
		}
		return nil

	case evRel:
		if mouse == nil {
			return nil
		}
		switch rec.Code {
		case relX:
			return mouse.Move(rec.Value, 0)
		case relY:
			return mouse.Move(0, rec.Value)
		case relWheel:
			return mouse.Wheel(false, rec.Value)
		case relHWheel:
			return mouse.Wheel(true, rec.Value)
		}
	}
	return nil
}

func replayButton(mouse virtualMouse, rec evdevRecord) error {
	pressed := rec.Value != keyRelease
	switch rec.Code {
	case btnLeft:
		if pressed {
			return mouse.LeftPress()
		}
		return mouse.LeftRelease()
	case btnRight:
		if pressed {
			return mouse.RightPress()
		}
		return mouse.RightRelease()
	case btnMiddle:
		if pressed {
			return mouse.MiddlePress()
		}
		return mouse.MiddleRelease()
	}
	return fmt.Errorf("button %#x cannot be replayed", rec.Code)
}
