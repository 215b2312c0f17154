package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTapEvent struct {
	fields map[uint32]int64
	x, y   float64
	flags  uint64
	typ    uint32
	setTo  []uint32
}

func newFakeTapEvent(typ uint32, fields map[uint32]int64) *fakeTapEvent {
	if fields == nil {
		fields = map[uint32]int64{}
	}
	return &fakeTapEvent{typ: typ, fields: fields}
}

func (f *fakeTapEvent) IntegerField(field uint32) int64 { return f.fields[field] }
func (f *fakeTapEvent) Location() (float64, float64)    { return f.x, f.y }
func (f *fakeTapEvent) Flags() uint64                   { return f.flags }

func (f *fakeTapEvent) SetType(typ uint32) {
	f.typ = typ
	f.setTo = append(f.setTo, typ)
}

func TestConvertTapEventKeys(t *testing.T) {
	kb := NewKeyboard(macKeyCodes)
	now := time.Unix(1700000000, 0)

	ev := newFakeTapEvent(cgEventKeyDown, map[uint32]int64{
		cgFieldKeyboardKeycode:     macA,
		cgFieldEventSourceUserData: 77,
	})
	e := convertTapEvent(cgEventKeyDown, ev, kb, now)
	require.NotNil(t, e)
	assert.Equal(t, KeyPress(KeyA), e.Type)
	assert.Equal(t, now, e.Time)
	assert.Equal(t, uint32(macA), e.PlatformCode)
	assert.Equal(t, uint32(macA), e.PositionCode)
	assert.Equal(t, uint32(0x04), e.USBHID)
	assert.Equal(t, uint64(77), e.ExtraData)
	require.NotNil(t, e.Unicode)
	assert.Equal(t, "a", e.Unicode.Name)

	e = convertTapEvent(cgEventKeyUp, ev, kb, now)
	require.NotNil(t, e)
	assert.Equal(t, KeyRelease(KeyA), e.Type)
	assert.Nil(t, e.Unicode)
}

func TestConvertTapEventFlagsChanged(t *testing.T) {
	kb := NewKeyboard(macKeyCodes)

	ev := newFakeTapEvent(cgEventFlagsChanged, map[uint32]int64{cgFieldKeyboardKeycode: macShiftLeft})
	ev.flags = 0x20102
	e := convertTapEvent(cgEventFlagsChanged, ev, kb, time.Now())
	require.NotNil(t, e)
	assert.Equal(t, KeyPress(KeyShiftLeft), e.Type)
	assert.Equal(t, uint32(0xE1), e.USBHID)

	ev.flags = 0x100
	e = convertTapEvent(cgEventFlagsChanged, ev, kb, time.Now())
	require.NotNil(t, e)
	assert.Equal(t, KeyRelease(KeyShiftLeft), e.Type)
}

func TestConvertTapEventMouse(t *testing.T) {
	kb := NewKeyboard(macKeyCodes)

	tests := []struct {
		name   string
		typ    uint32
		button int64
		want   EventType
	}{
		{"left down", cgEventLeftMouseDown, 0, ButtonPress(ButtonLeft)},
		{"left up", cgEventLeftMouseUp, 0, ButtonRelease(ButtonLeft)},
		{"right down", cgEventRightMouseDown, 1, ButtonPress(ButtonRight)},
		{"right up", cgEventRightMouseUp, 1, ButtonRelease(ButtonRight)},
		{"middle down", cgEventOtherMouseDown, 2, ButtonPress(ButtonMiddle)},
		{"middle up", cgEventOtherMouseUp, 2, ButtonRelease(ButtonMiddle)},
		{"extra down", cgEventOtherMouseDown, 4, ButtonPress(UnknownButton(4))},
		{"extra up", cgEventOtherMouseUp, 3, ButtonRelease(UnknownButton(3))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := newFakeTapEvent(tt.typ, map[uint32]int64{cgFieldMouseButtonNumber: tt.button})
			e := convertTapEvent(tt.typ, ev, kb, time.Now())
			require.NotNil(t, e)
			assert.Equal(t, tt.want, e.Type)
			assert.Equal(t, uint32(tt.button), e.PlatformCode)
			assert.Equal(t, uint32(0), e.USBHID)
		})
	}
}

func TestConvertTapEventMotionAndWheel(t *testing.T) {
	kb := NewKeyboard(macKeyCodes)

	for _, typ := range []uint32{cgEventMouseMoved, cgEventLeftMouseDragged, cgEventRightMouseDragged, cgEventOtherMouseDragged} {
		ev := newFakeTapEvent(typ, nil)
		ev.x, ev.y = 120.5, 40
		e := convertTapEvent(typ, ev, kb, time.Now())
		require.NotNil(t, e)
		assert.Equal(t, MouseMove(120.5, 40), e.Type)
	}

	ev := newFakeTapEvent(cgEventScrollWheel, map[uint32]int64{
		cgFieldScrollDeltaAxis1: -3,
		cgFieldScrollDeltaAxis2: 1,
	})
	e := convertTapEvent(cgEventScrollWheel, ev, kb, time.Now())
	require.NotNil(t, e)
	assert.Equal(t, Wheel(1, -3), e.Type)
}

func TestConvertTapEventUnrecognized(t *testing.T) {
	kb := NewKeyboard(macKeyCodes)
	kb.Apply(KeyShiftLeft, true)
	kb.FlagsTransition(0x20002)
	before, beforeFlags := kb.state()

	for _, typ := range []uint32{cgEventNull, 8, 13, 29, cgEventTapDisabledByTimeout, cgEventTapDisabledByUserInput} {
		ev := newFakeTapEvent(typ, map[uint32]int64{cgFieldKeyboardKeycode: macCapsLock})
		assert.Nil(t, convertTapEvent(typ, ev, kb, time.Now()), "type %d", typ)
	}

	after, afterFlags := kb.state()
	assert.Equal(t, before, after)
	assert.Equal(t, beforeFlags, afterFlags)
}

func TestConvertTapEventDeterministic(t *testing.T) {
	now := time.Now()
	ev := newFakeTapEvent(cgEventKeyDown, map[uint32]int64{cgFieldKeyboardKeycode: macQ})

	a := convertTapEvent(cgEventKeyDown, ev, NewKeyboard(macKeyCodes), now)
	b := convertTapEvent(cgEventKeyDown, ev, NewKeyboard(macKeyCodes), now)
	assert.Equal(t, a, b)
}

func TestHandleTapEventGrabVeto(t *testing.T) {
	resetCallbacks(t)
	kb := NewKeyboard(macKeyCodes)

	grabCallbacks.register(func(e Event) *Event {
		if e.Type.Key == KeyQ {
			return nil
		}
		return &e
	})

	vetoed := newFakeTapEvent(cgEventKeyDown, map[uint32]int64{cgFieldKeyboardKeycode: macQ})
	assert.False(t, handleTapEvent(ModeGrab, vetoed.typ, vetoed, kb))
	assert.Equal(t, uint32(cgEventNull), vetoed.typ)

	passed := newFakeTapEvent(cgEventKeyDown, map[uint32]int64{cgFieldKeyboardKeycode: macA})
	handleTapEvent(ModeGrab, passed.typ, passed, kb)
	assert.Equal(t, uint32(cgEventKeyDown), passed.typ)
	assert.Empty(t, passed.setTo)
}

func TestHandleTapEventListenNeverMutates(t *testing.T) {
	resetCallbacks(t)
	kb := NewKeyboard(macKeyCodes)

	var got []Event
	listenCallbacks.register(func(e Event) { got = append(got, e) })
	grabCallbacks.register(func(Event) *Event { return nil })

	ev := newFakeTapEvent(cgEventKeyDown, map[uint32]int64{cgFieldKeyboardKeycode: macA})
	handleTapEvent(ModeListen, ev.typ, ev, kb)

	require.Len(t, got, 1)
	assert.Equal(t, KeyPress(KeyA), got[0].Type)
	assert.Equal(t, "a", got[0].Unicode.Name)
	assert.Empty(t, ev.setTo)
}

func TestHandleTapEventDisabled(t *testing.T) {
	resetCallbacks(t)
	kb := NewKeyboard(macKeyCodes)

	called := false
	listenCallbacks.register(func(Event) { called = true })

	ev := newFakeTapEvent(cgEventTapDisabledByTimeout, nil)
	assert.True(t, handleTapEvent(ModeListen, cgEventTapDisabledByTimeout, ev, kb))
	assert.True(t, handleTapEvent(ModeGrab, cgEventTapDisabledByUserInput, ev, kb))
	assert.False(t, called)
	assert.Empty(t, ev.setTo)
}
