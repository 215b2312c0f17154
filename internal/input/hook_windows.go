//go:build windows

package input

import (
	"errors"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/bnema/keytap/internal/logger"
)

var nativeKeyCodes = winKeyCodes

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	wmQuit       = 0x0012
	pmNoRemove   = 0x0000
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// Each mode gets its own procedures so a listen and a grab session can be
// installed side by side.
var (
	keyboardProcs = map[Mode]uintptr{
		ModeListen: windows.NewCallback(keyboardProc(ModeListen)),
		ModeGrab:   windows.NewCallback(keyboardProc(ModeGrab)),
	}
	mouseProcs = map[Mode]uintptr{
		ModeListen: windows.NewCallback(mouseProc(ModeListen)),
		ModeGrab:   windows.NewCallback(mouseProc(ModeGrab)),
	}
)

func callNext(nCode int32, wParam, lParam uintptr) uintptr {
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func keyboardProc(mode Mode) func(nCode int32, wParam, lParam uintptr) uintptr {
	return func(nCode int32, wParam, lParam uintptr) uintptr {
		next := func() uintptr { return callNext(nCode, wParam, lParam) }
		convert := func() *Event {
			rec := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			return convertKeyboardHook(wParam, rec, keyboardState(), time.Now())
		}
		return handleHook(mode, nCode, convert, next)
	}
}

func mouseProc(mode Mode) func(nCode int32, wParam, lParam uintptr) uintptr {
	return func(nCode int32, wParam, lParam uintptr) uintptr {
		next := func() uintptr { return callNext(nCode, wParam, lParam) }
		convert := func() *Event {
			rec := (*msllHookStruct)(unsafe.Pointer(lParam))
			return convertMouseHook(wParam, rec, time.Now())
		}
		return handleHook(mode, nCode, convert, next)
	}
}

// hookSession owns the hooks installed on one thread.
type hookSession struct {
	mode     Mode
	threadID uint32
	keyboard uintptr
	mouse    uintptr
	stopOnce sync.Once
}

func setHook(idHook int, proc uintptr) (uintptr, uint32) {
	h, _, err := procSetWindowsHookExW.Call(uintptr(idHook), proc, 0, 0)
	if h == 0 {
		var errno windows.Errno
		if errors.As(err, &errno) {
			return 0, uint32(errno)
		}
		return 0, 0
	}
	return h, 0
}

// installHooks installs the keyboard hook and, unless keyboard-only, the mouse
// hook on the calling thread. A failed mouse hook removes the keyboard hook.
func installHooks(mode Mode, opts captureOptions) (*hookSession, error) {
	s := &hookSession{mode: mode, threadID: windows.GetCurrentThreadId()}

	// force creation of the thread message queue so an early WM_QUIT is kept
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	var code uint32
	s.keyboard, code = setHook(whKeyboardLL, keyboardProcs[mode])
	if s.keyboard == 0 {
		return nil, newCaptureError(mode, ErrKeyboardHook, code, nil)
	}

	if !opts.keyboardOnly {
		s.mouse, code = setHook(whMouseLL, mouseProcs[mode])
		if s.mouse == 0 {
			procUnhookWindowsHookEx.Call(s.keyboard)
			return nil, newCaptureError(mode, ErrMouseHook, code, nil)
		}
	}

	logger.Debug("Hooks installed", "mode", mode, "mouse", s.mouse != 0)
	return s, nil
}

func (s *hookSession) uninstall() {
	if s.mouse != 0 {
		procUnhookWindowsHookEx.Call(s.mouse)
	}
	procUnhookWindowsHookEx.Call(s.keyboard)
	logger.Debug("Hooks removed", "mode", s.mode)
}

// run pumps the thread's messages until WM_QUIT, then removes the hooks.
func (s *hookSession) run() {
	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}
	s.uninstall()
}

func (s *hookSession) stop() {
	s.stopOnce.Do(func() {
		procPostThreadMessageW.Call(uintptr(s.threadID), wmQuit, 0, 0)
	})
}

type hookBackend struct{}

func newNativeBackend() backend {
	return hookBackend{}
}

func (hookBackend) listen(opts captureOptions) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s, err := installHooks(ModeListen, opts)
	if err != nil {
		return err
	}
	s.run()
	return nil
}

func (hookBackend) openGrab(opts captureOptions) (grabLoop, error) {
	s, err := installHooks(ModeGrab, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}
