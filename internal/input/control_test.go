package input

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoop struct {
	done  chan struct{}
	once  sync.Once
	stops atomic.Int32

	// teardownGate, when set, holds run after stop until closed
	teardownGate chan struct{}
	tearingDown  chan struct{}
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{done: make(chan struct{})}
}

func (l *fakeLoop) run() {
	<-l.done
	if l.teardownGate != nil {
		l.tearingDown <- struct{}{}
		<-l.teardownGate
	}
}

func (l *fakeLoop) stop() {
	l.stops.Add(1)
	l.once.Do(func() { close(l.done) })
}

type fakeBackend struct {
	mu      sync.Mutex
	opts    []captureOptions
	opens   int
	loops   []*fakeLoop
	openErr error

	// openGate, when set, holds openGrab until closed
	openGate chan struct{}
	opening  chan struct{}

	listenGate chan struct{}
	listening  chan struct{}
	listenErr  error

	teardownGate chan struct{}
	tearingDown  chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		opening:     make(chan struct{}, 8),
		listening:   make(chan struct{}, 8),
		tearingDown: make(chan struct{}, 8),
	}
}

func (b *fakeBackend) listen(opts captureOptions) error {
	b.mu.Lock()
	b.opts = append(b.opts, opts)
	b.mu.Unlock()

	b.listening <- struct{}{}
	if b.listenGate != nil {
		<-b.listenGate
	}
	return b.listenErr
}

func (b *fakeBackend) openGrab(opts captureOptions) (grabLoop, error) {
	b.mu.Lock()
	b.opts = append(b.opts, opts)
	b.opens++
	b.mu.Unlock()

	b.opening <- struct{}{}
	if b.openGate != nil {
		<-b.openGate
	}
	if b.openErr != nil {
		return nil, b.openErr
	}

	l := newFakeLoop()
	l.teardownGate = b.teardownGate
	l.tearingDown = b.tearingDown
	b.mu.Lock()
	b.loops = append(b.loops, l)
	b.mu.Unlock()
	return l, nil
}

func (b *fakeBackend) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

// useBackend swaps in b and resets session state around the test.
func useBackend(t *testing.T, b backend) {
	t.Helper()
	prev := activeBackend
	activeBackend = b
	resetCallbacks(t)
	t.Cleanup(func() {
		_ = ExitGrab()
		activeBackend = prev
		SetKeyboardOnly(false)
		grabState.mu.Lock()
		grabState.starting = false
		grabState.stopReq = false
		grabState.loop = nil
		grabState.mu.Unlock()
	})
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func startGrab(cb func(Event) *Event) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- Grab(cb) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not return")
		return nil
	}
}

func TestGrabInstallsOnce(t *testing.T) {
	b := newFakeBackend()
	b.openGate = make(chan struct{})
	useBackend(t, b)

	errc := startGrab(func(e Event) *Event { return &e })
	waitSignal(t, b.opening, "installation")

	assert.NoError(t, Grab(func(e Event) *Event { return nil }), "grab during installation is a no-op")
	assert.False(t, IsGrabbed())

	close(b.openGate)
	require.Eventually(t, IsGrabbed, 2*time.Second, 5*time.Millisecond)
	assert.False(t, GrabbedSince().IsZero())

	assert.NoError(t, Grab(func(e Event) *Event { return nil }), "grab while grabbed is a no-op")
	assert.Equal(t, 1, b.openCount())

	// the second registration never replaced the first callback
	assert.True(t, dispatchGrab(Event{Type: KeyPress(KeyA)}))

	require.NoError(t, ExitGrab())
	assert.NoError(t, waitErr(t, errc))
	assert.False(t, IsGrabbed())
	assert.True(t, GrabbedSince().IsZero())
}

func TestExitGrabWithoutSession(t *testing.T) {
	useBackend(t, newFakeBackend())

	assert.NoError(t, ExitGrab())
	assert.NoError(t, ExitGrab())
	assert.False(t, IsGrabbed())
}

func TestExitGrabDuringInstallation(t *testing.T) {
	b := newFakeBackend()
	b.openGate = make(chan struct{})
	useBackend(t, b)

	errc := startGrab(func(e Event) *Event { return &e })
	waitSignal(t, b.opening, "installation")

	require.NoError(t, ExitGrab())
	close(b.openGate)

	assert.NoError(t, waitErr(t, errc))
	assert.False(t, IsGrabbed())

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.loops, 1)
	assert.GreaterOrEqual(t, b.loops[0].stops.Load(), int32(1))
}

func TestExitGrabDuringInstallationNeverReportsGrabbed(t *testing.T) {
	b := newFakeBackend()
	b.openGate = make(chan struct{})
	b.teardownGate = make(chan struct{})
	useBackend(t, b)

	errc := startGrab(func(e Event) *Event { return &e })
	waitSignal(t, b.opening, "installation")

	require.NoError(t, ExitGrab())
	close(b.openGate)
	waitSignal(t, b.tearingDown, "teardown")

	assert.False(t, IsGrabbed(), "a session cancelled during installation is never published")
	assert.True(t, GrabbedSince().IsZero())
	assert.NoError(t, Grab(func(e Event) *Event { return nil }), "grab during teardown is a no-op")
	assert.Equal(t, 1, b.openCount())

	close(b.teardownGate)
	assert.NoError(t, waitErr(t, errc))
	assert.False(t, IsGrabbed())
}

func TestGrabInstallationError(t *testing.T) {
	b := newFakeBackend()
	b.openErr = newCaptureError(ModeGrab, ErrEventTap, 0, nil)
	useBackend(t, b)

	err := Grab(func(e Event) *Event { return &e })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEventTap)

	var capErr *CaptureError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, ModeGrab, capErr.Mode)
	assert.False(t, IsGrabbed())

	// a failed installation does not block the next attempt
	_ = Grab(func(e Event) *Event { return &e })
	assert.Equal(t, 2, b.openCount())
}

func TestGrabCanRestart(t *testing.T) {
	b := newFakeBackend()
	useBackend(t, b)

	for i := 0; i < 2; i++ {
		errc := startGrab(func(e Event) *Event { return &e })
		require.Eventually(t, IsGrabbed, 2*time.Second, 5*time.Millisecond)
		require.NoError(t, ExitGrab())
		require.NoError(t, waitErr(t, errc))
	}
	assert.Equal(t, 2, b.openCount())
}

func TestKeyboardOnlyReachesBackend(t *testing.T) {
	b := newFakeBackend()
	useBackend(t, b)

	SetKeyboardOnly(true)
	assert.True(t, KeyboardOnly())
	require.NoError(t, Listen(func(Event) {}))

	SetKeyboardOnly(false)
	errc := startGrab(func(e Event) *Event { return &e })
	require.Eventually(t, IsGrabbed, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, ExitGrab())
	require.NoError(t, waitErr(t, errc))

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.opts, 2)
	assert.True(t, b.opts[0].keyboardOnly)
	assert.False(t, b.opts[1].keyboardOnly)
}

func TestListenWhileListeningReplacesCallback(t *testing.T) {
	b := newFakeBackend()
	b.listenGate = make(chan struct{})
	useBackend(t, b)

	var first, second atomic.Int32
	errc := make(chan error, 1)
	go func() { errc <- Listen(func(Event) { first.Add(1) }) }()
	waitSignal(t, b.listening, "listen session")
	assert.True(t, IsListening())

	require.NoError(t, Listen(func(Event) { second.Add(1) }))
	dispatchListen(Event{Type: KeyPress(KeyA)})
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())

	close(b.listenGate)
	require.NoError(t, waitErr(t, errc))
	assert.False(t, IsListening())

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Len(t, b.opts, 1)
}

func TestListenInstallationError(t *testing.T) {
	b := newFakeBackend()
	b.listenErr = newCaptureError(ModeListen, ErrKeyboardHook, 5, nil)
	useBackend(t, b)

	err := Listen(func(Event) {})
	assert.ErrorIs(t, err, ErrKeyboardHook)
	assert.False(t, IsListening())
}
