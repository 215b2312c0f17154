package input

import (
	"fmt"
	"strings"

	"github.com/bnema/keytap/internal/logger"
)

// Hotkey is a key combined with an exact modifier mask.
type Hotkey struct {
	Modifiers uint32
	Key       Key
}

var modifierNames = map[string]uint32{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"shift":   ModShift,
	"super":   ModMeta,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"win":     ModMeta,
}

// ParseHotkey parses combinations such as "ctrl+alt+escape". The last part is
// the key, the others are modifiers.
func ParseHotkey(s string) (Hotkey, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return Hotkey{}, fmt.Errorf("empty hotkey")
	}

	var h Hotkey
	for _, mod := range parts[:len(parts)-1] {
		mask, ok := modifierNames[strings.TrimSpace(mod)]
		if !ok {
			return Hotkey{}, fmt.Errorf("unknown modifier %q in hotkey %q", mod, s)
		}
		h.Modifiers |= mask
	}

	key, err := ParseKey(parts[len(parts)-1])
	if err != nil {
		return Hotkey{}, fmt.Errorf("invalid hotkey %q: %w", s, err)
	}
	if key.IsModifier() {
		return Hotkey{}, fmt.Errorf("hotkey %q must end with a non-modifier key", s)
	}
	h.Key = key
	return h, nil
}

// Matches reports whether e is a press of the hotkey while exactly its
// modifiers are held.
func (h Hotkey) Matches(e Event, mods uint32) bool {
	return e.Type.Kind == KindKeyPress && e.Type.Key == h.Key && mods == h.Modifiers
}

func (h Hotkey) String() string {
	var parts []string
	for _, m := range []struct {
		mask uint32
		name string
	}{{ModCtrl, "ctrl"}, {ModAlt, "alt"}, {ModShift, "shift"}, {ModMeta, "super"}} {
		if h.Modifiers&m.mask != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, strings.ToLower(h.Key.String())), "+")
}

// GrabFilter is a grab callback that vetoes blocked keys and ends the grab
// when the release hotkey is pressed.
type GrabFilter struct {
	block     map[Key]bool
	release   *Hotkey
	onRelease func()
	mods      func() uint32
	next      func(Event)
}

// NewGrabFilter builds a filter. release may be nil. onRelease is typically
// ExitGrab.
func NewGrabFilter(block []Key, release *Hotkey, onRelease func()) *GrabFilter {
	f := &GrabFilter{
		block:     make(map[Key]bool, len(block)),
		release:   release,
		onRelease: onRelease,
		mods:      Modifiers,
	}
	for _, k := range block {
		f.block[k] = true
	}
	return f
}

// OnEvent sets a function that observes every event before the decision.
func (f *GrabFilter) OnEvent(fn func(Event)) {
	f.next = fn
}

// Decide returns nil to veto e, or e to let it through.
func (f *GrabFilter) Decide(e Event) *Event {
	if f.next != nil {
		f.next(e)
	}

	if f.release != nil && f.release.Matches(e, f.mods()) {
		logger.Info("Release hotkey pressed", "hotkey", f.release.String())
		if f.onRelease != nil {
			f.onRelease()
		}
		return nil
	}

	if e.Type.IsKey() && f.block[e.Type.Key] {
		return nil
	}
	return &e
}
