//go:build darwin

package input

/*
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

extern CGEventRef goTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFMachPortRef createTap(CGEventTapLocation loc, CGEventTapOptions opts, CGEventMask mask, uintptr_t handle) {
	return CGEventTapCreate(loc, kCGHeadInsertEventTap, opts, mask, goTapCallback, (void *)handle);
}

static CFRunLoopSourceRef createSource(CFMachPortRef tap) {
	return CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
}

static void addSource(CFRunLoopRef loop, CFRunLoopSourceRef source) {
	CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void removeSource(CFRunLoopRef loop, CFRunLoopSourceRef source) {
	CFRunLoopRemoveSource(loop, source, kCFRunLoopCommonModes);
}

static CGEventMask allEventsMask(void) {
	return kCGEventMaskForAllEvents;
}

static CGEventMask keyboardEventsMask(void) {
	return CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp) | CGEventMaskBit(kCGEventFlagsChanged);
}

static double eventX(CGEventRef event) {
	return CGEventGetLocation(event).x;
}

static double eventY(CGEventRef event) {
	return CGEventGetLocation(event).y;
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync/atomic"
	"unsafe"

	"github.com/bnema/keytap/internal/logger"
)

var nativeKeyCodes = macKeyCodes

// cgEvent adapts a CGEventRef to tapEvent.
type cgEvent struct {
	ref C.CGEventRef
}

func (e cgEvent) IntegerField(field uint32) int64 {
	return int64(C.CGEventGetIntegerValueField(e.ref, C.CGEventField(field)))
}

func (e cgEvent) Location() (float64, float64) {
	return float64(C.eventX(e.ref)), float64(C.eventY(e.ref))
}

func (e cgEvent) Flags() uint64 {
	return uint64(C.CGEventGetFlags(e.ref))
}

func (e cgEvent) SetType(typ uint32) {
	C.CGEventSetType(e.ref, C.CGEventType(typ))
}

// tapSession owns one installed event tap.
type tapSession struct {
	mode    Mode
	tap     C.CFMachPortRef
	source  C.CFRunLoopSourceRef
	loop    C.CFRunLoopRef
	handle  cgo.Handle
	stopped atomic.Bool
}

// installTap creates the tap, wraps it as a run loop source, attaches it to
// loop and enables it. On failure nothing stays installed.
func installTap(mode Mode, loc C.CGEventTapLocation, opts C.CGEventTapOptions, mask C.CGEventMask, loop C.CFRunLoopRef) (*tapSession, error) {
	s := &tapSession{mode: mode, loop: loop}
	s.handle = cgo.NewHandle(s)

	s.tap = C.createTap(loc, opts, mask, C.uintptr_t(s.handle))
	if s.tap == 0 {
		s.handle.Delete()
		logger.Warn("Event tap creation failed, check accessibility permissions")
		return nil, newCaptureError(mode, ErrEventTap, 0, nil)
	}

	s.source = C.createSource(s.tap)
	if s.source == 0 {
		C.CFRelease(C.CFTypeRef(s.tap))
		s.handle.Delete()
		return nil, newCaptureError(mode, ErrLoopSource, 0, nil)
	}

	C.addSource(loop, s.source)
	C.CGEventTapEnable(s.tap, true)
	logger.Debug("Event tap installed", "mode", mode)
	return s, nil
}

func (s *tapSession) release() {
	C.CGEventTapEnable(s.tap, false)
	C.removeSource(s.loop, s.source)
	C.CFRelease(C.CFTypeRef(s.source))
	C.CFRelease(C.CFTypeRef(s.tap))
	s.handle.Delete()
}

// run drives the calling thread's loop until stop. The loop only returns on a
// stop, a timeout or when the tap source is gone.
func (s *tapSession) run() {
	for !s.stopped.Load() {
		if runCurrentLoop(runLoopForever) == runLoopFinished {
			break
		}
	}
	s.release()
}

func (s *tapSession) stop() {
	s.stopped.Store(true)
	stopRunLoop(s.loop)
}

type tapBackend struct{}

func newNativeBackend() backend {
	return tapBackend{}
}

// listen taps the HID stream listen-only on the main run loop and runs it.
// It must be called on the main thread.
func (tapBackend) listen(opts captureOptions) error {
	mask := C.allEventsMask()
	if opts.keyboardOnly {
		mask = C.keyboardEventsMask()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s, err := installTap(ModeListen, C.kCGHIDEventTap, C.kCGEventTapOptionListenOnly, mask, C.CFRunLoopGetMain())
	if err != nil {
		return err
	}
	defer s.release()

	C.CFRunLoopRun()
	return nil
}

// openGrab taps every event type of the session stream on the calling
// thread's run loop. keyboard-only does not narrow a grab.
func (tapBackend) openGrab(captureOptions) (grabLoop, error) {
	s, err := installTap(ModeGrab, C.kCGSessionEventTap, C.kCGEventTapOptionDefault, C.allEventsMask(), currentRunLoop())
	if err != nil {
		return nil, err
	}
	return s, nil
}

//export goTapCallback
func goTapCallback(_ C.CGEventTapProxy, typ C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	s, ok := cgo.Handle(uintptr(userInfo)).Value().(*tapSession)
	if !ok {
		return event
	}
	if handleTapEvent(s.mode, uint32(typ), cgEvent{event}, keyboardState()) {
		logger.Debug("Event tap disabled by the system, enabling again", "mode", s.mode)
		C.CGEventTapEnable(s.tap, true)
	}
	return event
}
