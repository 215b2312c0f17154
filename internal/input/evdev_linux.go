//go:build linux

package input

import (
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"github.com/bnema/keytap/internal/logger"
)

var nativeKeyCodes = evdevKeyCodes

// evdevSource is the part of *evdev.InputDevice a session reads from.
type evdevSource interface {
	ReadOne() (*evdev.InputEvent, error)
	Path() string
	Grab() error
	Ungrab() error
	Revoke() error
	Close() error
}

type timedRecord struct {
	rec evdevRecord
	at  time.Time
}

// evdevSession reads a set of devices. Readers run one goroutine per device
// and feed a single dispatcher so callbacks see records in arrival order.
type evdevSession struct {
	mode     Mode
	devices  []openedDevice
	conv     *evdevConverter
	replay   *replayer
	records  chan timedRecord
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func openSession(mode Mode, opts captureOptions) (*evdevSession, error) {
	devices, err := openDevices(mode, opts.keyboardOnly, mode == ModeGrab)
	if err != nil {
		return nil, err
	}

	s := newEvdevSession(mode, devices)
	if mode == ModeGrab {
		hasPointer := false
		for _, d := range devices {
			if d.kind == DeviceTypePointer {
				hasPointer = true
			}
		}
		s.replay, err = newReplayer(mode, hasPointer)
		if err != nil {
			closeDevices(devices)
			return nil, err
		}
		if err := s.grabDevices(); err != nil {
			_ = s.replay.Close()
			closeDevices(devices)
			return nil, err
		}
	}

	s.start()
	logger.Debug("Evdev session installed", "mode", mode, "devices", len(devices))
	return s, nil
}

func newEvdevSession(mode Mode, devices []openedDevice) *evdevSession {
	return &evdevSession{
		mode:    mode,
		devices: devices,
		conv:    newEvdevConverter(keyboardState()),
		records: make(chan timedRecord, 256),
		done:    make(chan struct{}),
	}
}

// start launches one reader per device.
func (s *evdevSession) start() {
	for _, d := range s.devices {
		s.wg.Add(1)
		go s.read(d.dev)
	}
}

// grabDevices takes exclusive access of every device. On failure the grabs
// already taken are released.
func (s *evdevSession) grabDevices() error {
	for i, d := range s.devices {
		if err := d.dev.Grab(); err != nil {
			for _, g := range s.devices[:i] {
				_ = g.dev.Ungrab()
			}
			kind := ErrKeyboardDevice
			if d.kind == DeviceTypePointer {
				kind = ErrPointerDevice
			}
			return newCaptureError(s.mode, kind, 0, err)
		}
	}
	return nil
}

func (s *evdevSession) read(dev evdevSource) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic in evdev reader %s: %v", dev.Path(), r)
		}
	}()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			select {
			case <-s.done:
			default:
				logger.Warnf("Stopped reading %s: %v", dev.Path(), err)
			}
			return
		}

		rec := timedRecord{
			rec: evdevRecord{Type: uint16(ev.Type), Code: uint16(ev.Code), Value: ev.Value},
			at:  time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000),
		}
		select {
		case s.records <- rec:
		case <-s.done:
			return
		}
	}
}

// run dispatches records until stop, then releases the devices.
func (s *evdevSession) run() {
	defer s.close()
	for {
		select {
		case <-s.done:
			return
		case r := <-s.records:
			pass := handleEvdev(s.mode, s.conv, r.rec, r.at)
			if s.replay != nil && pass {
				s.replay.write(r.rec)
			}
		}
	}
}

func (s *evdevSession) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// close releases the devices and waits for the readers. Close alone does not
// wake a reader blocked in ReadOne, EVIOCREVOKE does.
func (s *evdevSession) close() {
	for _, d := range s.devices {
		if s.mode == ModeGrab {
			_ = d.dev.Ungrab()
		}
		_ = d.dev.Revoke()
		_ = d.dev.Close()
	}
	s.wg.Wait()
	if s.replay != nil {
		_ = s.replay.Close()
	}
	logger.Debug("Evdev session closed", "mode", s.mode)
}

type evdevBackend struct{}

func newNativeBackend() backend {
	return evdevBackend{}
}

func (evdevBackend) listen(opts captureOptions) error {
	s, err := openSession(ModeListen, opts)
	if err != nil {
		return err
	}
	s.run()
	return nil
}

func (evdevBackend) openGrab(opts captureOptions) (grabLoop, error) {
	s, err := openSession(ModeGrab, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}
