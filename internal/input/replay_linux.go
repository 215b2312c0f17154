//go:build linux

package input

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ThomasT75/uinput"
	evdev "github.com/holoplot/go-evdev"

	"github.com/bnema/keytap/internal/logger"
)

const uinputPath = "/dev/uinput"

// Names of the pass-through devices. Grab sessions skip them when scanning.
const (
	virtualKeyboardName = "keytap virtual keyboard"
	virtualMouseName    = "keytap virtual mouse"
)

// passthroughKeyboard is the uinput keyboard plus autorepeat. uinput only
// sends presses and releases, and the kernel drops a press for a key that is
// already down, so repeats are injected through the keyboard's own event
// node, opened on first use.
type passthroughKeyboard struct {
	uinput.Keyboard
	node *evdev.InputDevice
}

func (k *passthroughKeyboard) KeyRepeat(key int) error {
	if k.node == nil {
		sys, err := k.FetchSyspath()
		if err != nil {
			return err
		}
		path, err := eventNodePath(sys)
		if err != nil {
			return err
		}
		if k.node, err = evdev.Open(path); err != nil {
			return err
		}
	}

	for _, ev := range []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: evdev.EvCode(key), Value: keyRepeat},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT},
	} {
		if err := k.node.WriteOne(&ev); err != nil {
			return err
		}
	}
	return nil
}

func (k *passthroughKeyboard) Close() error {
	if k.node != nil {
		_ = k.node.Close()
	}
	return k.Keyboard.Close()
}

// eventNodePath maps the sysfs directory of an input device to its
// /dev/input/eventN node.
func eventNodePath(sysPath string) (string, error) {
	sysPath = strings.TrimRight(sysPath, "\x00")
	matches, err := filepath.Glob(filepath.Join(sysPath, "event*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no event node under %s", sysPath)
	}
	return filepath.Join("/dev/input", filepath.Base(matches[0])), nil
}

// replayer re-emits the events a grab session lets through.
type replayer struct {
	keyboard *passthroughKeyboard
	mouse    uinput.Mouse
}

func newReplayer(mode Mode, withMouse bool) (*replayer, error) {
	kb, err := uinput.CreateKeyboard(uinputPath, []byte(virtualKeyboardName))
	if err != nil {
		return nil, newCaptureError(mode, ErrVirtualDevice, 0, err)
	}
	r := &replayer{keyboard: &passthroughKeyboard{Keyboard: kb}}

	if withMouse {
		mouse, err := uinput.CreateMouse(uinputPath, []byte(virtualMouseName))
		if err != nil {
			_ = r.keyboard.Close()
			return nil, newCaptureError(mode, ErrVirtualDevice, 0, err)
		}
		r.mouse = mouse
	}
	return r, nil
}

func (r *replayer) write(rec evdevRecord) {
	var mouse virtualMouse
	if r.mouse != nil {
		mouse = r.mouse
	}
	if err := replayRecord(r.keyboard, mouse, rec); err != nil {
		logger.Debugf("Replay of %d/%d failed: %v", rec.Type, rec.Code, err)
	}
}

func (r *replayer) Close() error {
	var err error
	if r.mouse != nil {
		err = r.mouse.Close()
	}
	if e := r.keyboard.Close(); e != nil && err == nil {
		err = e
	}
	return err
}
