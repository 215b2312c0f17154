package input

// evdevKeyCodes maps Linux input event codes (KEY_*) to keys.
var evdevKeyCodes = map[uint32]Key{
	1:   KeyEscape,
	12:  KeyMinus,
	13:  KeyEqual,
	14:  KeyBackspace,
	15:  KeyTab,
	16:  KeyQ,
	17:  KeyW,
	18:  KeyE,
	19:  KeyR,
	20:  KeyT,
	21:  KeyY,
	22:  KeyU,
	23:  KeyI,
	24:  KeyO,
	25:  KeyP,
	26:  KeyLeftBracket,
	27:  KeyRightBracket,
	28:  KeyReturn,
	29:  KeyControlLeft,
	30:  KeyA,
	31:  KeyS,
	32:  KeyD,
	33:  KeyF,
	34:  KeyG,
	35:  KeyH,
	36:  KeyJ,
	37:  KeyK,
	38:  KeyL,
	39:  KeySemiColon,
	40:  KeyQuote,
	41:  KeyBackQuote,
	42:  KeyShiftLeft,
	43:  KeyBackSlash,
	44:  KeyZ,
	45:  KeyX,
	46:  KeyC,
	47:  KeyV,
	48:  KeyB,
	49:  KeyN,
	50:  KeyM,
	51:  KeyComma,
	52:  KeyDot,
	53:  KeySlash,
	54:  KeyShiftRight,
	55:  KeyKpMultiply,
	56:  KeyAlt,
	57:  KeySpace,
	58:  KeyCapsLock,
	69:  KeyNumLock,
	70:  KeyScrollLock,
	71:  KeyKp7,
	72:  KeyKp8,
	73:  KeyKp9,
	74:  KeyKpMinus,
	75:  KeyKp4,
	76:  KeyKp5,
	77:  KeyKp6,
	78:  KeyKpPlus,
	79:  KeyKp1,
	80:  KeyKp2,
	81:  KeyKp3,
	82:  KeyKp0,
	83:  KeyKpDecimal,
	86:  KeyIntlBackslash,
	87:  KeyF11,
	88:  KeyF12,
	96:  KeyKpReturn,
	97:  KeyControlRight,
	98:  KeyKpDivide,
	99:  KeyPrintScreen,
	100: KeyAltGr,
	102: KeyHome,
	103: KeyUpArrow,
	104: KeyPageUp,
	105: KeyLeftArrow,
	106: KeyRightArrow,
	107: KeyEnd,
	108: KeyDownArrow,
	109: KeyPageDown,
	110: KeyInsert,
	111: KeyDelete,
	113: KeyVolumeMute,
	114: KeyVolumeDown,
	115: KeyVolumeUp,
	117: KeyKpEqual,
	119: KeyPause,
	125: KeyMetaLeft,
	126: KeyMetaRight,
	464: KeyFunction,
}

func init() {
	// KEY_1..KEY_9 are 2..10, KEY_0 is 11
	for i := uint32(1); i < 10; i++ {
		evdevKeyCodes[1+i] = KeyNum0 + Key(i)
	}
	evdevKeyCodes[11] = KeyNum0
	for i := uint32(0); i < 10; i++ {
		evdevKeyCodes[59+i] = KeyF1 + Key(i)
	}
	for i := uint32(0); i < 12; i++ {
		evdevKeyCodes[183+i] = KeyF13 + Key(i)
	}
}
