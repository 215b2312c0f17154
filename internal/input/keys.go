package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a semantic keyboard key, independent of platform and layout.
// Codes the tables do not know are carried as UnknownKey(code).
type Key uint32

const (
	KeyNone Key = iota

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	KeyNum0
	KeyNum1
	KeyNum2
	KeyNum3
	KeyNum4
	KeyNum5
	KeyNum6
	KeyNum7
	KeyNum8
	KeyNum9

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24

	KeyKp0
	KeyKp1
	KeyKp2
	KeyKp3
	KeyKp4
	KeyKp5
	KeyKp6
	KeyKp7
	KeyKp8
	KeyKp9
	KeyKpReturn
	KeyKpMinus
	KeyKpPlus
	KeyKpMultiply
	KeyKpDivide
	KeyKpDecimal
	KeyKpEqual

	KeyEscape
	KeyReturn
	KeyTab
	KeySpace
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUpArrow
	KeyDownArrow
	KeyLeftArrow
	KeyRightArrow
	KeyCapsLock
	KeyNumLock
	KeyScrollLock
	KeyPrintScreen
	KeyPause

	KeyShiftLeft
	KeyShiftRight
	KeyControlLeft
	KeyControlRight
	KeyAlt
	KeyAltGr
	KeyMetaLeft
	KeyMetaRight
	KeyFunction

	KeyMinus
	KeyEqual
	KeyLeftBracket
	KeyRightBracket
	KeyBackSlash
	KeySemiColon
	KeyQuote
	KeyBackQuote
	KeyComma
	KeyDot
	KeySlash
	KeyIntlBackslash

	KeyVolumeMute
	KeyVolumeUp
	KeyVolumeDown

	keyCount
)

// keyUnknownFlag marks a Key that only carries a raw platform code.
const keyUnknownFlag Key = 1 << 24

// UnknownKey wraps a raw platform code that has no semantic key.
func UnknownKey(code uint32) Key {
	return keyUnknownFlag | Key(code&0xFFFFFF)
}

// Unknown returns the raw platform code of a key built with UnknownKey.
func (k Key) Unknown() (uint32, bool) {
	if k&keyUnknownFlag == 0 {
		return 0, false
	}
	return uint32(k &^ keyUnknownFlag), true
}

type keyInfo struct {
	name string
	hid  uint32
}

var keyTable [keyCount]keyInfo

func init() {
	for i := Key(0); i < 26; i++ {
		keyTable[KeyA+i] = keyInfo{string(rune('A' + i)), 0x04 + uint32(i)}
	}
	keyTable[KeyNum0] = keyInfo{"Num0", 0x27}
	for i := Key(1); i < 10; i++ {
		keyTable[KeyNum0+i] = keyInfo{"Num" + strconv.Itoa(int(i)), 0x1E + uint32(i-1)}
	}
	for i := Key(0); i < 24; i++ {
		hid := 0x3A + uint32(i)
		if i >= 12 {
			hid = 0x68 + uint32(i-12)
		}
		keyTable[KeyF1+i] = keyInfo{"F" + strconv.Itoa(int(i+1)), hid}
	}
	keyTable[KeyKp0] = keyInfo{"Kp0", 0x62}
	for i := Key(1); i < 10; i++ {
		keyTable[KeyKp0+i] = keyInfo{"Kp" + strconv.Itoa(int(i)), 0x59 + uint32(i-1)}
	}

	named := map[Key]keyInfo{
		KeyKpReturn:   {"KpReturn", 0x58},
		KeyKpMinus:    {"KpMinus", 0x56},
		KeyKpPlus:     {"KpPlus", 0x57},
		KeyKpMultiply: {"KpMultiply", 0x55},
		KeyKpDivide:   {"KpDivide", 0x54},
		KeyKpDecimal:  {"KpDecimal", 0x63},
		KeyKpEqual:    {"KpEqual", 0x67},

		KeyEscape:      {"Escape", 0x29},
		KeyReturn:      {"Return", 0x28},
		KeyTab:         {"Tab", 0x2B},
		KeySpace:       {"Space", 0x2C},
		KeyBackspace:   {"Backspace", 0x2A},
		KeyDelete:      {"Delete", 0x4C},
		KeyInsert:      {"Insert", 0x49},
		KeyHome:        {"Home", 0x4A},
		KeyEnd:         {"End", 0x4D},
		KeyPageUp:      {"PageUp", 0x4B},
		KeyPageDown:    {"PageDown", 0x4E},
		KeyUpArrow:     {"UpArrow", 0x52},
		KeyDownArrow:   {"DownArrow", 0x51},
		KeyLeftArrow:   {"LeftArrow", 0x50},
		KeyRightArrow:  {"RightArrow", 0x4F},
		KeyCapsLock:    {"CapsLock", 0x39},
		KeyNumLock:     {"NumLock", 0x53},
		KeyScrollLock:  {"ScrollLock", 0x47},
		KeyPrintScreen: {"PrintScreen", 0x46},
		KeyPause:       {"Pause", 0x48},

		KeyShiftLeft:    {"ShiftLeft", 0xE1},
		KeyShiftRight:   {"ShiftRight", 0xE5},
		KeyControlLeft:  {"ControlLeft", 0xE0},
		KeyControlRight: {"ControlRight", 0xE4},
		KeyAlt:          {"Alt", 0xE2},
		KeyAltGr:        {"AltGr", 0xE6},
		KeyMetaLeft:     {"MetaLeft", 0xE3},
		KeyMetaRight:    {"MetaRight", 0xE7},
		KeyFunction:     {"Function", 0},

		KeyMinus:         {"Minus", 0x2D},
		KeyEqual:         {"Equal", 0x2E},
		KeyLeftBracket:   {"LeftBracket", 0x2F},
		KeyRightBracket:  {"RightBracket", 0x30},
		KeyBackSlash:     {"BackSlash", 0x31},
		KeySemiColon:     {"SemiColon", 0x33},
		KeyQuote:         {"Quote", 0x34},
		KeyBackQuote:     {"BackQuote", 0x35},
		KeyComma:         {"Comma", 0x36},
		KeyDot:           {"Dot", 0x37},
		KeySlash:         {"Slash", 0x38},
		KeyIntlBackslash: {"IntlBackslash", 0x64},

		KeyVolumeMute: {"VolumeMute", 0x7F},
		KeyVolumeUp:   {"VolumeUp", 0x80},
		KeyVolumeDown: {"VolumeDown", 0x81},
	}
	for k, info := range named {
		keyTable[k] = info
	}

	keysByName = make(map[string]Key, len(keyTable)+len(keyAliases))
	for k := KeyA; k < keyCount; k++ {
		keysByName[strings.ToLower(keyTable[k].name)] = k
	}
	for alias, k := range keyAliases {
		keysByName[alias] = k
	}
}

// Short names accepted by ParseKey on top of the canonical ones.
var keyAliases = map[string]Key{
	"esc":       KeyEscape,
	"enter":     KeyReturn,
	"space":     KeySpace,
	"bksp":      KeyBackspace,
	"del":       KeyDelete,
	"ins":       KeyInsert,
	"pgup":      KeyPageUp,
	"pgdn":      KeyPageDown,
	"up":        KeyUpArrow,
	"down":      KeyDownArrow,
	"left":      KeyLeftArrow,
	"right":     KeyRightArrow,
	"shift":     KeyShiftLeft,
	"ctrl":      KeyControlLeft,
	"control":   KeyControlLeft,
	"alt":       KeyAlt,
	"altgr":     KeyAltGr,
	"super":     KeyMetaLeft,
	"meta":      KeyMetaLeft,
	"cmd":       KeyMetaLeft,
	"win":       KeyMetaLeft,
	"fn":        KeyFunction,
	"-":         KeyMinus,
	"=":         KeyEqual,
	"[":         KeyLeftBracket,
	"]":         KeyRightBracket,
	";":         KeySemiColon,
	"'":         KeyQuote,
	"`":         KeyBackQuote,
	",":         KeyComma,
	".":         KeyDot,
	"/":         KeySlash,
	"backslash": KeyBackSlash,
	"0":         KeyNum0,
	"1":         KeyNum1,
	"2":         KeyNum2,
	"3":         KeyNum3,
	"4":         KeyNum4,
	"5":         KeyNum5,
	"6":         KeyNum6,
	"7":         KeyNum7,
	"8":         KeyNum8,
	"9":         KeyNum9,
}

var keysByName map[string]Key

func (k Key) String() string {
	if code, ok := k.Unknown(); ok {
		return fmt.Sprintf("Unknown(%d)", code)
	}
	if k == KeyNone || k >= keyCount {
		return "None"
	}
	return keyTable[k].name
}

// USBHID returns the keyboard page (0x07) usage id of the key, or 0.
func (k Key) USBHID() uint32 {
	if k >= keyCount {
		return 0
	}
	return keyTable[k].hid
}

// IsModifier reports whether the key is a shift, control, alt or meta key.
func (k Key) IsModifier() bool {
	return k >= KeyShiftLeft && k <= KeyFunction
}

// ParseKey resolves a key name such as "escape", "F5", "a" or "Unknown(42)".
// Matching is case insensitive.
func ParseKey(name string) (Key, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return KeyNone, fmt.Errorf("empty key name")
	}
	if k, ok := keysByName[s]; ok {
		return k, nil
	}
	if strings.HasPrefix(s, "unknown(") && strings.HasSuffix(s, ")") {
		code, err := strconv.ParseUint(s[len("unknown("):len(s)-1], 10, 24)
		if err != nil {
			return KeyNone, fmt.Errorf("invalid unknown key code %q: %w", name, err)
		}
		return UnknownKey(uint32(code)), nil
	}
	return KeyNone, fmt.Errorf("unknown key name %q", name)
}

// usChars holds the unshifted and shifted text of every printing key on a US
// layout.
var usChars = map[Key][2]string{
	KeyNum0:         {"0", ")"},
	KeyNum1:         {"1", "!"},
	KeyNum2:         {"2", "@"},
	KeyNum3:         {"3", "#"},
	KeyNum4:         {"4", "$"},
	KeyNum5:         {"5", "%"},
	KeyNum6:         {"6", "^"},
	KeyNum7:         {"7", "&"},
	KeyNum8:         {"8", "*"},
	KeyNum9:         {"9", "("},
	KeyMinus:        {"-", "_"},
	KeyEqual:        {"=", "+"},
	KeyLeftBracket:  {"[", "{"},
	KeyRightBracket: {"]", "}"},
	KeyBackSlash:    {"\\", "|"},
	KeySemiColon:    {";", ":"},
	KeyQuote:        {"'", "\""},
	KeyBackQuote:    {"`", "~"},
	KeyComma:        {",", "<"},
	KeyDot:          {".", ">"},
	KeySlash:        {"/", "?"},
	KeySpace:        {" ", " "},
	KeyTab:          {"\t", "\t"},
	KeyReturn:       {"\r", "\r"},
	KeyKpReturn:     {"\r", "\r"},
	KeyKpMinus:      {"-", "-"},
	KeyKpPlus:       {"+", "+"},
	KeyKpMultiply:   {"*", "*"},
	KeyKpDivide:     {"/", "/"},
	KeyKpEqual:      {"=", "="},
}

func init() {
	for i := Key(0); i < 26; i++ {
		usChars[KeyA+i] = [2]string{string(rune('a' + i)), string(rune('A' + i))}
	}
	for i := Key(0); i < 10; i++ {
		d := strconv.Itoa(int(i))
		usChars[KeyKp0+i] = [2]string{d, d}
	}
	usChars[KeyKpDecimal] = [2]string{".", "."}
}
