package input

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/keytap/internal/logger"
)

// captureOptions is the host configuration read when a session is installed.
type captureOptions struct {
	keyboardOnly bool
}

// backend installs native capture sessions.
type backend interface {
	// listen installs a listen session and blocks while it runs.
	listen(opts captureOptions) error
	// openGrab installs a grab session without running it. The caller
	// keeps the OS thread locked between openGrab and run.
	openGrab(opts captureOptions) (grabLoop, error)
}

// grabLoop is an installed grab session.
type grabLoop interface {
	// run blocks until stop is called, then releases the native resources.
	run()
	// stop may be called from any goroutine, also before run. It must not
	// block on run.
	stop()
}

var activeBackend backend = newNativeBackend()

var keyboardOnly atomic.Bool

// SetKeyboardOnly restricts sessions installed afterwards to keyboard events.
func SetKeyboardOnly(enabled bool) {
	keyboardOnly.Store(enabled)
}

// KeyboardOnly reports whether capture is restricted to keyboard events.
func KeyboardOnly() bool {
	return keyboardOnly.Load()
}

// SetLayout selects the layout used to decode key text.
func SetLayout(layout string) error {
	return keyboardState().SetLayout(layout)
}

// Modifiers returns the modifier mask seen by the converters.
func Modifiers() uint32 {
	return keyboardState().Modifiers()
}

func currentOptions() captureOptions {
	return captureOptions{keyboardOnly: keyboardOnly.Load()}
}

var listenState struct {
	mu     sync.Mutex
	active bool
}

// Listen registers cb and blocks while a listen session observes input. Events
// cannot be altered. If a listen session is already running, cb replaces its
// callback and Listen returns at once.
func Listen(cb func(Event)) error {
	if cb == nil {
		listenCallbacks.clear()
	} else {
		listenCallbacks.register(cb)
	}

	listenState.mu.Lock()
	if listenState.active {
		listenState.mu.Unlock()
		return nil
	}
	listenState.active = true
	listenState.mu.Unlock()

	defer func() {
		listenState.mu.Lock()
		listenState.active = false
		listenState.mu.Unlock()
	}()

	opts := currentOptions()
	logger.Debug("Installing listen session", "keyboard_only", opts.keyboardOnly)
	return activeBackend.listen(opts)
}

var grabState struct {
	mu       sync.Mutex
	starting bool
	stopReq  bool
	loop     grabLoop
	since    time.Time
}

// Grab registers cb and blocks while a grab session runs. cb returning nil
// vetoes the event; any other value lets the original event through. Grab
// returns nil at once when a session is already running or being installed.
func Grab(cb func(Event) *Event) error {
	grabState.mu.Lock()
	if grabState.starting || grabState.loop != nil {
		grabState.mu.Unlock()
		return nil
	}
	grabState.starting = true
	grabState.stopReq = false
	grabState.mu.Unlock()

	if cb == nil {
		grabCallbacks.clear()
	} else {
		grabCallbacks.register(cb)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	opts := currentOptions()
	logger.Debug("Installing grab session", "keyboard_only", opts.keyboardOnly)
	loop, err := activeBackend.openGrab(opts)

	grabState.mu.Lock()
	if err != nil {
		grabState.starting = false
		grabState.mu.Unlock()
		return err
	}
	if grabState.stopReq {
		// ExitGrab arrived during installation. The session is torn down
		// without ever being published; starting stays set until it is gone.
		grabState.mu.Unlock()
		loop.stop()
		loop.run()

		grabState.mu.Lock()
		grabState.starting = false
		grabState.mu.Unlock()
		logger.Debug("Grab session cancelled during installation")
		return nil
	}
	grabState.starting = false
	grabState.loop = loop
	grabState.since = time.Now()
	grabState.mu.Unlock()

	loop.run()

	grabState.mu.Lock()
	if grabState.loop == loop {
		grabState.loop = nil
	}
	grabState.mu.Unlock()
	logger.Debug("Grab session ended")
	return nil
}

// ExitGrab stops the running grab session, if any. It always returns nil.
func ExitGrab() error {
	grabState.mu.Lock()
	defer grabState.mu.Unlock()

	if grabState.loop != nil {
		grabState.loop.stop()
		grabState.loop = nil
		return nil
	}
	if grabState.starting {
		grabState.stopReq = true
	}
	return nil
}

// IsGrabbed reports whether a grab session is installed.
func IsGrabbed() bool {
	grabState.mu.Lock()
	defer grabState.mu.Unlock()
	return grabState.loop != nil
}

// GrabbedSince returns when the running grab session was installed, or the
// zero time.
func GrabbedSince() time.Time {
	grabState.mu.Lock()
	defer grabState.mu.Unlock()
	if grabState.loop == nil {
		return time.Time{}
	}
	return grabState.since
}

// IsListening reports whether a listen session is running.
func IsListening() bool {
	listenState.mu.Lock()
	defer listenState.mu.Unlock()
	return listenState.active
}
