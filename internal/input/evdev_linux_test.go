//go:build linux

package input

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idleSource blocks in ReadOne like a quiet device node: Close leaves the read
// blocked, only Revoke ends it.
type idleSource struct {
	revoked chan struct{}
	once    sync.Once
	closed  atomic.Bool
	ungrabs atomic.Int32
}

func newIdleSource() *idleSource {
	return &idleSource{revoked: make(chan struct{})}
}

func (s *idleSource) ReadOne() (*evdev.InputEvent, error) {
	<-s.revoked
	return nil, io.ErrUnexpectedEOF
}

func (s *idleSource) Path() string { return "/dev/input/event-test" }
func (s *idleSource) Grab() error  { return nil }

func (s *idleSource) Ungrab() error {
	s.ungrabs.Add(1)
	return nil
}

func (s *idleSource) Revoke() error {
	s.once.Do(func() { close(s.revoked) })
	return nil
}

func (s *idleSource) Close() error {
	s.closed.Store(true)
	return nil
}

func TestEvdevSessionStopWithIdleReaders(t *testing.T) {
	for _, mode := range []Mode{ModeListen, ModeGrab} {
		t.Run(mode.String(), func(t *testing.T) {
			kb, mouse := newIdleSource(), newIdleSource()
			s := newEvdevSession(mode, []openedDevice{
				{dev: kb, kind: DeviceTypeKeyboard},
				{dev: mouse, kind: DeviceTypePointer},
			})
			s.start()

			done := make(chan struct{})
			go func() {
				s.run()
				close(done)
			}()

			s.stop()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("session did not stop while its readers were idle")
			}

			for _, src := range []*idleSource{kb, mouse} {
				assert.True(t, src.closed.Load())
				if mode == ModeGrab {
					assert.EqualValues(t, 1, src.ungrabs.Load())
				} else {
					assert.Zero(t, src.ungrabs.Load())
				}
			}
		})
	}
}

func TestCheckOpened(t *testing.T) {
	errDeniedNode := errors.New("open /dev/input/event7: permission denied")
	keyboard := openedDevice{dev: newIdleSource(), kind: DeviceTypeKeyboard}
	pointer := openedDevice{dev: newIdleSource(), kind: DeviceTypePointer}

	tests := []struct {
		name         string
		opened       []openedDevice
		keyboardOnly bool
		openErr      error
		wantKind     error
	}{
		{name: "keyboard and pointer", opened: []openedDevice{keyboard, pointer}},
		{name: "no keyboard", opened: []openedDevice{pointer}, wantKind: ErrKeyboardDevice},
		{name: "no keyboard after open failure", opened: nil, openErr: errDeniedNode, wantKind: ErrKeyboardDevice},
		{name: "pointer failed to open", opened: []openedDevice{keyboard}, openErr: errDeniedNode, wantKind: ErrPointerDevice},
		{name: "pointer failed to open, keyboard only", opened: []openedDevice{keyboard}, keyboardOnly: true, openErr: errDeniedNode},
		{name: "host without pointer", opened: []openedDevice{keyboard}},
		{name: "unrelated node failed to open", opened: []openedDevice{keyboard, pointer}, openErr: errDeniedNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOpened(ModeListen, tt.opened, tt.keyboardOnly, tt.openErr)
			if tt.wantKind == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			if tt.openErr != nil {
				assert.ErrorIs(t, err, tt.openErr)
			}
		})
	}
}
