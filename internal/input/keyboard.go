package input

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/keytap/internal/logger"
)

// Modifier masks
const (
	ModCtrl  = 1 << 0
	ModAlt   = 1 << 1
	ModShift = 1 << 2
	ModMeta  = 1 << 3
)

// Supported keyboard layouts
const (
	LayoutUS = "us"
	LayoutFR = "fr"
)

// macOS kCGEventFlagMaskAlphaShift
const flagMaskAlphaShift = 0x00010000

// modState is the modifier state tracked across key events.
type modState struct {
	shiftLeft    bool
	shiftRight   bool
	capsLock     bool
	controlLeft  bool
	controlRight bool
	alt          bool
	altGr        bool
	metaLeft     bool
	metaRight    bool
}

// Keyboard translates raw platform key codes into keys and text while tracking
// modifier state. It is safe for concurrent use.
type Keyboard struct {
	mu        sync.Mutex
	codes     map[uint32]Key
	layout    string
	mods      modState
	lastFlags uint64
}

// NewKeyboard creates a keyboard for the given platform code table.
func NewKeyboard(codes map[uint32]Key) *Keyboard {
	return &Keyboard{
		codes:  codes,
		layout: LayoutUS,
	}
}

var (
	sharedKeyboard     *Keyboard
	sharedKeyboardOnce sync.Once
)

// keyboardState returns the process-wide keyboard for the native platform.
func keyboardState() *Keyboard {
	sharedKeyboardOnce.Do(func() {
		sharedKeyboard = NewKeyboard(nativeKeyCodes)
	})
	return sharedKeyboard
}

// KeyFor maps a raw platform code to a key.
func (k *Keyboard) KeyFor(code uint32) Key {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keyFor(code)
}

func (k *Keyboard) keyFor(code uint32) Key {
	if key, ok := k.codes[code]; ok {
		return key
	}
	return UnknownKey(code)
}

// Apply records a key transition in the modifier state.
func (k *Keyboard) Apply(key Key, pressed bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.apply(key, pressed)
}

func (k *Keyboard) apply(key Key, pressed bool) {
	switch key {
	case KeyShiftLeft:
		k.mods.shiftLeft = pressed
	case KeyShiftRight:
		k.mods.shiftRight = pressed
	case KeyControlLeft:
		k.mods.controlLeft = pressed
	case KeyControlRight:
		k.mods.controlRight = pressed
	case KeyAlt:
		k.mods.alt = pressed
	case KeyAltGr:
		k.mods.altGr = pressed
	case KeyMetaLeft:
		k.mods.metaLeft = pressed
	case KeyMetaRight:
		k.mods.metaRight = pressed
	case KeyCapsLock:
		if pressed {
			k.mods.capsLock = !k.mods.capsLock
		}
	}
}

// Unicode returns the text the key produces when pressed in the current
// modifier state, or nil when it produces none.
func (k *Keyboard) Unicode(key Key) *UnicodeInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.unicode(key)
}

func (k *Keyboard) unicode(key Key) *UnicodeInfo {
	m := k.mods
	if m.controlLeft || m.controlRight || m.alt || m.altGr || m.metaLeft || m.metaRight {
		return nil
	}
	shift := m.shiftLeft || m.shiftRight

	if k.layout == LayoutFR {
		if swapped, ok := azertySwaps[key]; ok {
			key = swapped
		}
		if chars, ok := azertyChars[key]; ok {
			return pick(chars, shift, key == KeyLeftBracket)
		}
	}

	chars, ok := usChars[key]
	if !ok {
		return nil
	}
	if key >= KeyA && key <= KeyZ && m.capsLock {
		shift = !shift
	}
	return pick(chars, shift, false)
}

func pick(chars [2]string, shift, dead bool) *UnicodeInfo {
	s := chars[0]
	if shift {
		s = chars[1]
	}
	if s == "" {
		return nil
	}
	return &UnicodeInfo{Name: s, IsDead: dead}
}

// Translate resolves a key event in one step: the code is mapped, the
// modifier state updated, and text decoded for presses.
func (k *Keyboard) Translate(code uint32, pressed bool) (Key, *UnicodeInfo) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key := k.keyFor(code)
	k.apply(key, pressed)
	if !pressed {
		return key, nil
	}
	return key, k.unicode(key)
}

// FlagsTransition compares a macOS modifier flag word with the previous one.
// It reports a press when flags were added and stores the new word.
func (k *Keyboard) FlagsTransition(flags uint64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.flagsTransition(flags)
}

func (k *Keyboard) flagsTransition(flags uint64) bool {
	pressed := flags > k.lastFlags
	k.lastFlags = flags
	return pressed
}

// TranslateFlags resolves a macOS flags-changed event for the modifier key
// with the given code. Caps lock follows the alpha shift flag directly.
func (k *Keyboard) TranslateFlags(code uint32, flags uint64) (Key, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	pressed := k.flagsTransition(flags)
	key := k.keyFor(code)
	if key == KeyCapsLock {
		k.mods.capsLock = flags&flagMaskAlphaShift != 0
	} else {
		k.apply(key, pressed)
	}
	return key, pressed
}

// Modifiers returns the current modifier mask.
func (k *Keyboard) Modifiers() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()

	var mask uint32
	if k.mods.controlLeft || k.mods.controlRight {
		mask |= ModCtrl
	}
	if k.mods.alt || k.mods.altGr {
		mask |= ModAlt
	}
	if k.mods.shiftLeft || k.mods.shiftRight {
		mask |= ModShift
	}
	if k.mods.metaLeft || k.mods.metaRight {
		mask |= ModMeta
	}
	return mask
}

// SetLayout selects the layout used to decode text.
func (k *Keyboard) SetLayout(layout string) error {
	layout = strings.ToLower(strings.TrimSpace(layout))
	switch layout {
	case LayoutUS, LayoutFR:
	default:
		return fmt.Errorf("unsupported keyboard layout %q", layout)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.layout != layout {
		logger.Debugf("Keyboard layout: %s -> %s", k.layout, layout)
	}
	k.layout = layout
	return nil
}

// Layout returns the active layout name.
func (k *Keyboard) Layout() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.layout
}

func (k *Keyboard) state() (modState, uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mods, k.lastFlags
}

// azertySwaps maps a physical US position to the key an AZERTY keyboard
// prints there.
var azertySwaps = map[Key]Key{
	KeyQ:         KeyA,
	KeyA:         KeyQ,
	KeyW:         KeyZ,
	KeyZ:         KeyW,
	KeyM:         KeySemiColon,
	KeySemiColon: KeyM,
}

// azertyChars overrides the US text for AZERTY positions that differ beyond
// the swaps. The number row is shifted for digits.
var azertyChars = map[Key][2]string{
	KeyNum1:         {"&", "1"},
	KeyNum2:         {"é", "2"},
	KeyNum3:         {"\"", "3"},
	KeyNum4:         {"'", "4"},
	KeyNum5:         {"(", "5"},
	KeyNum6:         {"-", "6"},
	KeyNum7:         {"è", "7"},
	KeyNum8:         {"_", "8"},
	KeyNum9:         {"ç", "9"},
	KeyNum0:         {"à", "0"},
	KeyLeftBracket:  {"^", "¨"},
	KeyRightBracket: {"$", "£"},
	KeyQuote:        {"ù", "%"},
	KeyBackQuote:    {"²", ""},
}
