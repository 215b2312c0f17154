package input

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetCallbacks empties both slots now and after the test.
func resetCallbacks(t *testing.T) {
	t.Helper()
	listenCallbacks.clear()
	grabCallbacks.clear()
	t.Cleanup(func() {
		listenCallbacks.clear()
		grabCallbacks.clear()
	})
}

func TestDispatchWithoutCallback(t *testing.T) {
	resetCallbacks(t)

	assert.NotPanics(t, func() {
		dispatchListen(Event{Type: KeyPress(KeyA)})
	})
	assert.True(t, dispatchGrab(Event{Type: KeyPress(KeyA)}), "no callback lets events through")
}

func TestSlotReplacesRegistration(t *testing.T) {
	resetCallbacks(t)

	var first, second int
	listenCallbacks.register(func(Event) { first++ })
	listenCallbacks.register(func(Event) { second++ })

	dispatchListen(Event{Type: KeyPress(KeyA)})
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestDispatchGrabDecision(t *testing.T) {
	resetCallbacks(t)

	grabCallbacks.register(func(e Event) *Event {
		if e.Type.Key == KeyQ {
			return nil
		}
		return &e
	})

	assert.False(t, dispatchGrab(Event{Type: KeyPress(KeyQ)}))
	assert.True(t, dispatchGrab(Event{Type: KeyPress(KeyW)}))
}

func TestDispatchRecoversPanics(t *testing.T) {
	resetCallbacks(t)

	listenCallbacks.register(func(Event) { panic("boom") })
	grabCallbacks.register(func(Event) *Event { panic("boom") })

	assert.NotPanics(t, func() { dispatchListen(Event{}) })

	var pass bool
	assert.NotPanics(t, func() { pass = dispatchGrab(Event{}) })
	assert.True(t, pass, "a panicking grab callback lets the event through")

	// the call lock was released by the recovered invocation
	var called bool
	listenCallbacks.register(func(Event) { called = true })
	dispatchListen(Event{})
	assert.True(t, called)
}

func TestCallbackMayReplaceItself(t *testing.T) {
	resetCallbacks(t)

	var replaced bool
	listenCallbacks.register(func(Event) {
		listenCallbacks.register(func(Event) { replaced = true })
	})

	done := make(chan struct{})
	go func() {
		dispatchListen(Event{})
		dispatchListen(Event{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("re-registration from a callback deadlocked")
	}
	assert.True(t, replaced)
}

func TestDispatchSerializesCallbacks(t *testing.T) {
	resetCallbacks(t)

	var (
		mu      sync.Mutex
		running int
		maxSeen int
	)
	listenCallbacks.register(func(Event) {
		mu.Lock()
		running++
		if running > maxSeen {
			maxSeen = running
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatchListen(Event{})
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}
