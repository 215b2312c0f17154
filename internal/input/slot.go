package input

import (
	"sync"

	"github.com/bnema/keytap/internal/logger"
)

// slot holds the single callback of one capture mode. Native trampolines carry
// no user context, so the callback lives here for the process lifetime.
type slot[F any] struct {
	mu  sync.Mutex
	fn  F
	set bool

	// call serializes callback invocations. It is never held by register,
	// so a callback may replace itself.
	call sync.Mutex
}

func (s *slot[F]) register(fn F) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
	s.set = true
}

func (s *slot[F]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero F
	s.fn = zero
	s.set = false
}

func (s *slot[F]) load() (F, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn, s.set
}

var (
	listenCallbacks slot[func(Event)]
	grabCallbacks   slot[func(Event) *Event]
)

// dispatchListen hands an event to the listen callback. A missing callback or a
// panic drops the event.
func dispatchListen(e Event) {
	fn, ok := listenCallbacks.load()
	if !ok || fn == nil {
		return
	}

	listenCallbacks.call.Lock()
	defer listenCallbacks.call.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("Listen callback panicked on %s: %v", e.Type, r)
		}
	}()
	fn(e)
}

// dispatchGrab asks the grab callback whether the event may pass. Without a
// callback, or when it panics, the event passes.
func dispatchGrab(e Event) (pass bool) {
	fn, ok := grabCallbacks.load()
	if !ok || fn == nil {
		return true
	}

	grabCallbacks.call.Lock()
	defer grabCallbacks.call.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("Grab callback panicked on %s: %v", e.Type, r)
			pass = true
		}
	}()
	return fn(e) != nil
}
