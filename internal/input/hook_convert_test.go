package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mouseData(hi int16) uint32 {
	return uint32(uint16(hi)) << 16
}

func TestConvertKeyboardHook(t *testing.T) {
	kb := NewKeyboard(winKeyCodes)
	now := time.Now()

	rec := &kbdllHookStruct{VkCode: 0x41, ScanCode: 0x1E, DwExtraInfo: 0xFEED}

	for _, msg := range []uintptr{wmKeyDown, wmSysKeyDown} {
		e := convertKeyboardHook(msg, rec, kb, now)
		require.NotNil(t, e)
		assert.Equal(t, KeyPress(KeyA), e.Type)
		assert.Equal(t, uint32(0x41), e.PlatformCode)
		assert.Equal(t, uint32(0x1E), e.PositionCode)
		assert.Equal(t, uint32(0x04), e.USBHID)
		assert.Equal(t, uint64(0xFEED), e.ExtraData)
		require.NotNil(t, e.Unicode)
		assert.Equal(t, "a", e.Unicode.Name)
	}

	for _, msg := range []uintptr{wmKeyUp, wmSysKeyUp} {
		e := convertKeyboardHook(msg, rec, kb, now)
		require.NotNil(t, e)
		assert.Equal(t, KeyRelease(KeyA), e.Type)
		assert.Nil(t, e.Unicode)
	}
}

func TestConvertKeyboardHookUnrecognized(t *testing.T) {
	kb := NewKeyboard(winKeyCodes)
	before, _ := kb.state()

	rec := &kbdllHookStruct{VkCode: 0xA0}
	assert.Nil(t, convertKeyboardHook(0x0102, rec, kb, time.Now()))
	assert.Nil(t, convertKeyboardHook(wmMouseMove, rec, kb, time.Now()))

	after, _ := kb.state()
	assert.Equal(t, before, after)
}

func TestConvertMouseHook(t *testing.T) {
	tests := []struct {
		name     string
		msg      uintptr
		rec      msllHookStruct
		want     EventType
		wantCode uint32
	}{
		{"left down", wmLButtonDown, msllHookStruct{}, ButtonPress(ButtonLeft), 1},
		{"left up", wmLButtonUp, msllHookStruct{}, ButtonRelease(ButtonLeft), 1},
		{"right down", wmRButtonDown, msllHookStruct{}, ButtonPress(ButtonRight), 2},
		{"right up", wmRButtonUp, msllHookStruct{}, ButtonRelease(ButtonRight), 2},
		{"middle down", wmMButtonDown, msllHookStruct{}, ButtonPress(ButtonMiddle), 3},
		{"middle up", wmMButtonUp, msllHookStruct{}, ButtonRelease(ButtonMiddle), 3},
		{"xbutton1 down", wmXButtonDown, msllHookStruct{MouseData: mouseData(1)}, ButtonPress(UnknownButton(1)), 1},
		{"xbutton2 up", wmXButtonUp, msllHookStruct{MouseData: mouseData(2)}, ButtonRelease(UnknownButton(2)), 2},
		{"move", wmMouseMove, msllHookStruct{Pt: point{X: -15, Y: 300}}, MouseMove(-15, 300), 0},
		{"wheel up", wmMouseWheel, msllHookStruct{MouseData: mouseData(120)}, Wheel(0, 1), 0},
		{"wheel down twice", wmMouseWheel, msllHookStruct{MouseData: mouseData(-240)}, Wheel(0, -2), 0},
		{"horizontal wheel", wmMouseHWheel, msllHookStruct{MouseData: mouseData(120)}, Wheel(1, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			rec.DwExtraInfo = 42
			e := convertMouseHook(tt.msg, &rec, time.Now())
			require.NotNil(t, e)
			assert.Equal(t, tt.want, e.Type)
			assert.Equal(t, tt.wantCode, e.PlatformCode)
			assert.Equal(t, uint32(0), e.PositionCode)
			assert.Equal(t, uint64(42), e.ExtraData)
		})
	}

	assert.Nil(t, convertMouseHook(0x0203, &msllHookStruct{}, time.Now()), "double click message has no mapping")
}

// chainCounter counts calls to the next hook.
type chainCounter struct {
	calls int
}

func (c *chainCounter) next() uintptr {
	c.calls++
	return 7
}

func TestHandleHookListenAlwaysChains(t *testing.T) {
	kb := NewKeyboard(winKeyCodes)
	keyDown := func() *Event {
		return convertKeyboardHook(wmKeyDown, &kbdllHookStruct{VkCode: 0x41}, kb, time.Now())
	}
	noEvent := func() *Event { return nil }
	panics := func() *Event { panic("converter failure") }

	tests := []struct {
		name     string
		nCode    int32
		convert  func() *Event
		callback func(Event)
	}{
		{"no callback", hcAction, keyDown, nil},
		{"with callback", hcAction, keyDown, func(Event) {}},
		{"panicking callback", hcAction, keyDown, func(Event) { panic("boom") }},
		{"no mapping", hcAction, noEvent, func(Event) {}},
		{"panicking converter", hcAction, panics, func(Event) {}},
		{"negative code", -1, keyDown, func(Event) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCallbacks(t)
			if tt.callback != nil {
				listenCallbacks.register(tt.callback)
			}

			var c chainCounter
			ret := handleHook(ModeListen, tt.nCode, tt.convert, c.next)
			assert.Equal(t, 1, c.calls)
			assert.Equal(t, uintptr(7), ret)
		})
	}
}

func TestHandleHookNegativeCodeSkipsCallback(t *testing.T) {
	resetCallbacks(t)

	called := false
	listenCallbacks.register(func(Event) { called = true })

	var c chainCounter
	handleHook(ModeListen, -1, func() *Event { return &Event{Type: KeyPress(KeyA)} }, c.next)
	assert.False(t, called)
}

func TestHandleHookGrab(t *testing.T) {
	resetCallbacks(t)

	grabCallbacks.register(func(e Event) *Event {
		if e.Type.Key == KeyQ {
			return nil
		}
		return &e
	})

	var vetoed chainCounter
	ret := handleHook(ModeGrab, hcAction, func() *Event { return &Event{Type: KeyPress(KeyQ)} }, vetoed.next)
	assert.Equal(t, uintptr(1), ret)
	assert.Equal(t, 0, vetoed.calls, "vetoed events are not chained")

	var passed chainCounter
	ret = handleHook(ModeGrab, hcAction, func() *Event { return &Event{Type: KeyPress(KeyW)} }, passed.next)
	assert.Equal(t, uintptr(7), ret)
	assert.Equal(t, 1, passed.calls)
}

func TestWindowsKeyPressScenario(t *testing.T) {
	resetCallbacks(t)
	kb := NewKeyboard(winKeyCodes)

	var got []Event
	listenCallbacks.register(func(e Event) { got = append(got, e) })

	rec := &kbdllHookStruct{VkCode: 0x5A, ScanCode: 0x2C}
	var c chainCounter
	handleHook(ModeListen, hcAction, func() *Event {
		return convertKeyboardHook(wmKeyDown, rec, kb, time.Now())
	}, c.next)

	require.Len(t, got, 1)
	assert.Equal(t, KeyPress(KeyZ), got[0].Type)
	assert.Equal(t, uint32(0x5A), got[0].PlatformCode)
	assert.Equal(t, uint32(0x2C), got[0].PositionCode)
	require.NotNil(t, got[0].Unicode)
	assert.Equal(t, "z", got[0].Unicode.Name)
	assert.Equal(t, 1, c.calls)
}
