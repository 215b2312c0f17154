package input

// winKeyCodes maps Windows virtual-key codes to keys. Low-level hooks report
// the sided modifier codes; the generic ones are kept for injected input.
var winKeyCodes = map[uint32]Key{
	0x08: KeyBackspace,
	0x09: KeyTab,
	0x0D: KeyReturn,
	0x10: KeyShiftLeft,
	0x11: KeyControlLeft,
	0x12: KeyAlt,
	0x13: KeyPause,
	0x14: KeyCapsLock,
	0x1B: KeyEscape,
	0x20: KeySpace,
	0x21: KeyPageUp,
	0x22: KeyPageDown,
	0x23: KeyEnd,
	0x24: KeyHome,
	0x25: KeyLeftArrow,
	0x26: KeyUpArrow,
	0x27: KeyRightArrow,
	0x28: KeyDownArrow,
	0x2C: KeyPrintScreen,
	0x2D: KeyInsert,
	0x2E: KeyDelete,
	0x5B: KeyMetaLeft,
	0x5C: KeyMetaRight,
	0x6A: KeyKpMultiply,
	0x6B: KeyKpPlus,
	0x6D: KeyKpMinus,
	0x6E: KeyKpDecimal,
	0x6F: KeyKpDivide,
	0x90: KeyNumLock,
	0x91: KeyScrollLock,
	0xA0: KeyShiftLeft,
	0xA1: KeyShiftRight,
	0xA2: KeyControlLeft,
	0xA3: KeyControlRight,
	0xA4: KeyAlt,
	0xA5: KeyAltGr,
	0xAD: KeyVolumeMute,
	0xAE: KeyVolumeDown,
	0xAF: KeyVolumeUp,
	0xBA: KeySemiColon,
	0xBB: KeyEqual,
	0xBC: KeyComma,
	0xBD: KeyMinus,
	0xBE: KeyDot,
	0xBF: KeySlash,
	0xC0: KeyBackQuote,
	0xDB: KeyLeftBracket,
	0xDC: KeyBackSlash,
	0xDD: KeyRightBracket,
	0xDE: KeyQuote,
	0xE2: KeyIntlBackslash,
}

func init() {
	for i := uint32(0); i < 10; i++ {
		winKeyCodes[0x30+i] = KeyNum0 + Key(i)
		winKeyCodes[0x60+i] = KeyKp0 + Key(i)
	}
	for i := uint32(0); i < 26; i++ {
		winKeyCodes[0x41+i] = KeyA + Key(i)
	}
	for i := uint32(0); i < 24; i++ {
		winKeyCodes[0x70+i] = KeyF1 + Key(i)
	}
}
